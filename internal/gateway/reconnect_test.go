package gateway

import (
	"testing"
)

func TestReconnectDelayMs_MatchesDocumentedBackoff(t *testing.T) {
	zero := func() float64 { return 0 }
	p := ReconnectPolicy{BaseMs: 1000, MaxMs: 30000, JitterMs: 0, Random: zero}

	if got := ReconnectDelayMs(0, p); got != 1000 {
		t.Errorf("attempt 0: got %v, want 1000", got)
	}
	if got := ReconnectDelayMs(4, p); got != 16000 {
		t.Errorf("attempt 4: got %v, want 16000", got)
	}
	if got := ReconnectDelayMs(20, p); got != 30000 {
		t.Errorf("attempt 20: got %v, want 30000 (capped)", got)
	}

	jittered := ReconnectPolicy{BaseMs: 1000, MaxMs: 30000, JitterMs: 1000, Random: func() float64 { return 0.25 }}
	if got := ReconnectDelayMs(3, jittered); got != 8250 {
		t.Errorf("attempt 3 with jitter: got %v, want 8250", got)
	}
}

func TestIsRetryableReconnectError(t *testing.T) {
	if IsRetryableReconnectError(nil) != true {
		t.Error("nil error should be treated as retryable (no error)")
	}
	_, err := BuildRelayWsUrl(18792, "")
	if IsRetryableReconnectError(err) {
		t.Error("missing gatewayToken should be non-retryable")
	}
}

func TestBuildRelayWsUrl(t *testing.T) {
	got, err := BuildRelayWsUrl(18792, "abc/+= token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "ws://127.0.0.1:18792/extension?token=abc%2F%2B%3D%20token"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	_, err = BuildRelayWsUrl(18792, "")
	if err == nil {
		t.Fatal("expected error for empty token")
	}
	if !contains(err.Error(), "Missing gatewayToken") {
		t.Errorf("error message %q must contain %q", err.Error(), "Missing gatewayToken")
	}
}

func contains(s, sub string) bool {
	return len(sub) == 0 || indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
