package engagement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// LinkBuilder produces the recipient-facing URLs embedded in shared
// proposals: the viewer page, the open pixel, and the signed PDF download
// link. Tokens are unguessable, so beacons rely on the token alone; the
// download link additionally carries an HMAC signature because it streams
// the proposal document itself.
type LinkBuilder struct {
	baseURL    string
	signingKey []byte
}

// NewLinkBuilder creates a builder rooted at baseURL.
func NewLinkBuilder(baseURL, signingKey string) *LinkBuilder {
	return &LinkBuilder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: []byte(signingKey),
	}
}

// ViewerURL is the page a recipient lands on from the share email.
func (lb *LinkBuilder) ViewerURL(token string) string {
	return fmt.Sprintf("%s/p/%s", lb.baseURL, token)
}

// PixelURL is the open-tracking pixel embedded in the share email.
func (lb *LinkBuilder) PixelURL(token string) string {
	return fmt.Sprintf("%s/track/open/%s", lb.baseURL, token)
}

// DownloadURL is the signed PDF download link for the token.
func (lb *LinkBuilder) DownloadURL(token string) string {
	return fmt.Sprintf("%s/track/download/%s?sig=%s", lb.baseURL, token, lb.Sign(token))
}

// Sign returns a short HMAC-SHA256 signature over the token.
func (lb *LinkBuilder) Sign(token string) string {
	h := hmac.New(sha256.New, lb.signingKey)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Verify checks a signature produced by Sign.
func (lb *LinkBuilder) Verify(token, signature string) bool {
	return hmac.Equal([]byte(lb.Sign(token)), []byte(signature))
}
