package delivery

import (
	"strconv"
	"strings"
	"testing"
)

func TestChunkText_UnderLimitIsSingleChunk(t *testing.T) {
	chunks := ChunkText("hello world", 2000)
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Fatalf("chunks = %v, want [%q]", chunks, "hello world")
	}
}

func TestChunkText_Empty(t *testing.T) {
	if chunks := ChunkText("", 2000); chunks != nil {
		t.Fatalf("chunks = %v, want nil", chunks)
	}
}

func TestChunkText_SplitsOnParagraphBreak(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	text := a + "\n\n" + b
	chunks := ChunkText(text, 45)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2 (%v)", len(chunks), chunks)
	}
	if chunks[0] != a {
		t.Errorf("chunks[0] = %q, want %q", chunks[0], a)
	}
	if chunks[1] != b {
		t.Errorf("chunks[1] = %q, want %q", chunks[1], b)
	}
}

func TestChunkText_RespectsMaxChars(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	chunks := ChunkText(text, DiscordMaxChars)
	for i, c := range chunks {
		if len(c) > DiscordMaxChars {
			t.Errorf("chunk %d len = %d, exceeds max %d", i, len(c), DiscordMaxChars)
		}
	}
	if joined := strings.Join(chunks, ""); joined != text {
		t.Error("chunks do not reassemble to the original text")
	}
}

func TestChunkText_FenceReopenAcrossSplit(t *testing.T) {
	// Build a fenced go block long enough to force a split mid-fence.
	body := strings.Repeat("line of code here\n", 10)
	text := "intro text\n```go\n" + body + "```\nafter"
	chunks := ChunkText(text, 60)
	if len(chunks) < 2 {
		t.Fatalf("expected split across multiple chunks, got %d: %v", len(chunks), chunks)
	}

	// Every chunk must have a balanced (even) number of fence markers,
	// i.e. it never ends mid-fence.
	for i, c := range chunks {
		if strings.Count(c, "```")%2 != 0 {
			t.Errorf("chunk %d has unbalanced fences: %q", i, c)
		}
	}
}

func TestExtractReplyTo_ExplicitIDWinsOverCurrent(t *testing.T) {
	cleaned, id, current := ExtractReplyTo("hello [[reply_to:42]] [[reply_to_current]] world")
	if id != "42" {
		t.Errorf("id = %q, want 42", id)
	}
	if current {
		t.Error("current = true, want false (explicit id should win)")
	}
	if strings.Contains(cleaned, "[[reply_to") {
		t.Errorf("cleaned still contains a directive tag: %q", cleaned)
	}
	if cleaned != "hello world" {
		t.Errorf("cleaned = %q, want %q", cleaned, "hello world")
	}
}

func TestExtractReplyTo_CurrentOnly(t *testing.T) {
	cleaned, id, current := ExtractReplyTo("ack [[reply_to_current]]")
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if !current {
		t.Error("current = false, want true")
	}
	if cleaned != "ack" {
		t.Errorf("cleaned = %q, want %q", cleaned, "ack")
	}
}

func TestExtractReplyTo_NoTags(t *testing.T) {
	cleaned, id, current := ExtractReplyTo("just a plain reply")
	if id != "" || current {
		t.Fatalf("id=%q current=%v, want both zero", id, current)
	}
	if cleaned != "just a plain reply" {
		t.Errorf("cleaned = %q, want unchanged", cleaned)
	}
}

func TestIsSilentPayload(t *testing.T) {
	cases := []struct {
		content  string
		hasMedia bool
		want     bool
	}{
		{SilentReplySentinel, false, true},
		{" " + SilentReplySentinel + " ", false, true},
		{SilentReplySentinel, true, false},
		{"hello", false, false},
		{"", false, false},
	}
	for _, c := range cases {
		if got := IsSilentPayload(c.content, c.hasMedia); got != c.want {
			t.Errorf("IsSilentPayload(%q, %v) = %v, want %v", c.content, c.hasMedia, got, c.want)
		}
	}
}

func TestTracker_ShouldDropFinalPayloadsAfterAnyBlock(t *testing.T) {
	tr := NewTracker()
	if tr.ShouldDropFinalPayloads() {
		t.Fatal("fresh tracker should not drop final payloads")
	}
	tr.RecordBlock("hi", nil, "")
	if !tr.ShouldDropFinalPayloads() {
		t.Error("after one streamed block, final payloads must be dropped")
	}
}

func TestTracker_IsDuplicateMatchesFingerprint(t *testing.T) {
	tr := NewTracker()
	tr.RecordBlock("hi", []string{"a.png"}, "123")
	if !tr.IsDuplicate("hi", []string{"a.png"}, "123") {
		t.Error("expected exact fingerprint match to be a duplicate")
	}
	if tr.IsDuplicate("hi", []string{"b.png"}, "123") {
		t.Error("different media should not be treated as a duplicate")
	}
}

func TestFingerprint_DistinguishesOrderAndReplyTarget(t *testing.T) {
	a := Fingerprint("x", []string{"1", "2"}, "r1")
	b := Fingerprint("x", []string{"2", "1"}, "r1")
	c := Fingerprint("x", []string{"1", "2"}, "r2")
	if a == b {
		t.Error("media order should affect fingerprint")
	}
	if a == c {
		t.Error("reply target should affect fingerprint")
	}
}

func TestChunkText_ManyChunksReassemble(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("sentence number " + strconv.Itoa(i) + ". ")
	}
	text := sb.String()
	chunks := ChunkText(text, 120)
	if strings.Join(chunks, "") != text {
		t.Error("reassembled chunks do not match original text")
	}
}
