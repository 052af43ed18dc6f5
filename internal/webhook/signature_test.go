package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"testing"
)

func TestVerify_DisabledAcceptsAnything(t *testing.T) {
	t.Parallel()

	v := NewVerifier("", "https://example.com/webhooks/inbound")

	if v.Enabled() {
		t.Error("Enabled(): got true, want false for empty key")
	}
	if err := v.Verify(url.Values{"a": {"b"}}, "garbage"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSignature_SortedKeyConcatenation(t *testing.T) {
	t.Parallel()

	const key = "test-webhook-key"
	const hookURL = "https://example.com/webhooks/inbound"

	form := url.Values{}
	form.Set("mandrill_events", "[]")
	form.Set("a_first", "1")

	// Independently computed: URL, then each key and value in sorted
	// key order.
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(hookURL + "a_first" + "1" + "mandrill_events" + "[]"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	v := NewVerifier(key, hookURL)
	if got := v.Signature(form); got != want {
		t.Errorf("Signature: got %q, want %q", got, want)
	}
}

func TestVerify_MatchAndMismatch(t *testing.T) {
	t.Parallel()

	v := NewVerifier("test-webhook-key", "https://example.com/webhooks/inbound")

	form := url.Values{}
	form.Set("mandrill_events", `[{"event":"inbound"}]`)

	if err := v.Verify(form, v.Signature(form)); err != nil {
		t.Errorf("unexpected error for valid signature: %v", err)
	}
	if err := v.Verify(form, "bm90IHRoZSBzaWduYXR1cmU="); err == nil {
		t.Error("expected error for wrong signature, got nil")
	}
}
