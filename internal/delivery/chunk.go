// Package delivery implements the outbound delivery pipeline shared by every
// channel adapter: Markdown-fence-safe chunking for per-channel message size
// limits, streamed/final payload dedup, directive-tag extraction, and the
// silent-reply sentinel filter.
package delivery

import "strings"

// Per-channel outbound character limits.
const (
	DiscordMaxChars  = 2000
	TelegramMaxChars = 4096
	WhatsAppMaxChars = 65000
	SlackMaxChars    = 40000
)

// ChunkText splits text into pieces no longer than maxChars, preferring to
// break at a paragraph boundary, then a newline, then a sentence boundary,
// and falling back to a hard cut. A split that lands inside an open
// Markdown fenced code block closes the outgoing chunk with "```" and
// reopens the next chunk with the same language tag.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DiscordMaxChars
	}
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	remaining := text
	reopen := ""

	for len(remaining) > 0 {
		budget := maxChars - len(reopen)
		if budget <= 0 {
			budget = maxChars
		}

		if len(remaining) <= budget {
			chunks = append(chunks, reopen+remaining)
			break
		}

		cut := findBreak(remaining, budget)
		if cut <= 0 {
			cut = budget
		}
		piece := remaining[:cut]
		remaining = remaining[cut:]
		// A paragraph break is consumed by the split rather than sent as
		// trailing blank lines.
		if strings.HasSuffix(piece, "\n\n") {
			piece = strings.TrimRight(piece, "\n")
		}

		lang, open := fenceStateAfter(reopen + piece)
		if open {
			chunks = append(chunks, reopen+piece+"\n```")
			reopen = "```" + lang + "\n"
		} else {
			chunks = append(chunks, reopen+piece)
			reopen = ""
		}
	}
	return chunks
}

// findBreak picks the best cut point in s within the first budget bytes:
// paragraph break, then line break, then sentence end, then a hard cut at
// budget. Breaks found in the first half of the window are ignored so a
// chunk never shrinks to a sliver.
func findBreak(s string, budget int) int {
	if budget >= len(s) {
		return len(s)
	}
	window := s[:budget]

	if idx := strings.LastIndex(window, "\n\n"); idx > budget/2 {
		return idx + 2
	}
	if idx := strings.LastIndex(window, "\n"); idx > budget/2 {
		return idx + 1
	}
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(window, sep); idx > budget/2 {
			return idx + len(sep)
		}
	}
	return budget
}

// fenceStateAfter reports whether s ends inside an open ``` fence and, if
// so, the language tag that opened it (e.g. "go" for a "```go" line).
func fenceStateAfter(s string) (lang string, open bool) {
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		if open {
			open = false
			lang = ""
		} else {
			open = true
			lang = strings.TrimSpace(trimmed[3:])
		}
	}
	return lang, open
}
