package delivery

import "strings"

// Tracker fingerprints payloads streamed mid-run (the onBlockReply path) so
// the final payload set can avoid re-sending what already went out. Per the
// "no stream/final duplication" rule, any block streamed at all suppresses
// the entire final payload set — callers should check ShouldDropFinalPayloads
// before publishing anything built from the run's accumulated result.
// One Tracker is scoped to a single run.
type Tracker struct {
	seen     map[string]bool
	streamed bool
}

// NewTracker creates an empty dedup tracker for one run.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]bool)}
}

// Fingerprint computes the dedup key for a payload from its text, its media
// URLs (order-sensitive), and its reply target.
func Fingerprint(text string, mediaURLs []string, replyToID string) string {
	return text + "\x00" + strings.Join(mediaURLs, "\x00") + "\x00" + replyToID
}

// RecordBlock marks a block payload as delivered via onBlockReply.
func (t *Tracker) RecordBlock(text string, mediaURLs []string, replyToID string) {
	t.seen[Fingerprint(text, mediaURLs, replyToID)] = true
	t.streamed = true
}

// StreamedAny reports whether any block was recorded for this run.
func (t *Tracker) StreamedAny() bool {
	return t.streamed
}

// ShouldDropFinalPayloads reports whether the final payload set must be
// suppressed entirely because at least one block was already streamed.
func (t *Tracker) ShouldDropFinalPayloads() bool {
	return t.streamed
}

// IsDuplicate reports whether a final payload was already streamed verbatim.
func (t *Tracker) IsDuplicate(text string, mediaURLs []string, replyToID string) bool {
	return t.seen[Fingerprint(text, mediaURLs, replyToID)]
}
