package delivery

import (
	"regexp"
	"strings"
)

// SilentReplySentinel is the literal payload the delivery pipeline drops
// outright when it carries no media. It is distinct from the agent
// package's NO_REPLY token, which short-circuits earlier in the pipeline
// before a payload ever reaches chunking/dedup.
const SilentReplySentinel = "__SILENT_REPLY__"

const replyToCurrentTag = "[[reply_to_current]]"

var replyToIDPattern = regexp.MustCompile(`\[\[reply_to:([^\]]+)\]\]`)

// replyTagRunPattern matches a run of directive tags together with the
// spaces/tabs around them, so removing the run leaves a single space.
var replyTagRunPattern = regexp.MustCompile(`[ \t]*(?:(?:\[\[reply_to:[^\]]+\]\]|\[\[reply_to_current\]\])[ \t]*)+`)

// ExtractReplyTo strips [[reply_to:<id>]] / [[reply_to_current]] directive
// tags out of text and reports the reply target they named. An explicit
// [[reply_to:<id>]] wins over [[reply_to_current]] when both are present.
func ExtractReplyTo(text string) (cleaned string, replyToID string, replyToCurrent bool) {
	if m := replyToIDPattern.FindStringSubmatch(text); m != nil {
		replyToID = strings.TrimSpace(m[1])
	}
	replyToCurrent = strings.Contains(text, replyToCurrentTag)

	cleaned = replyTagRunPattern.ReplaceAllString(text, " ")
	cleaned = strings.TrimSpace(cleaned)

	if replyToID != "" {
		replyToCurrent = false
	}
	return cleaned, replyToID, replyToCurrent
}

// IsSilentPayload reports whether a finalization payload should be dropped
// outright: the literal sentinel string with no attached media.
func IsSilentPayload(content string, hasMedia bool) bool {
	return !hasMedia && strings.TrimSpace(content) == SilentReplySentinel
}
