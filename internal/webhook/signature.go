package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Verifier checks Mandrill webhook signatures: base64(HMAC-SHA1(key,
// webhook URL + form keys and values concatenated in sorted key order)).
// An empty key disables verification.
type Verifier struct {
	key string
	url string
}

// NewVerifier creates a Verifier for the given webhook key and the exact
// URL the provider was configured to post to.
func NewVerifier(key, url string) *Verifier {
	return &Verifier{key: key, url: url}
}

// Enabled returns true if a webhook key is configured.
func (v *Verifier) Enabled() bool {
	return v.key != ""
}

// Signature computes the expected signature for a set of posted form values.
func (v *Verifier) Signature(form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var signed strings.Builder
	signed.WriteString(v.url)
	for _, k := range keys {
		signed.WriteString(k)
		signed.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(v.key))
	mac.Write([]byte(signed.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature header against the posted form. It returns
// nil when verification is disabled or the signature matches.
func (v *Verifier) Verify(form url.Values, signature string) error {
	if !v.Enabled() {
		return nil
	}
	want := v.Signature(form)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}
