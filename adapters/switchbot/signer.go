package switchbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyToken and ErrEmptySecret are configuration errors: the client
// refuses to sign rather than call the API with an invalid signature.
var (
	ErrEmptyToken  = errors.New("switchbot token is required")
	ErrEmptySecret = errors.New("switchbot secret is required")
)

// Credentials identify the account against the SwitchBot API
type Credentials struct {
	Token  string
	Secret []byte
}

// String never prints the secret
func (c Credentials) String() string {
	return "Credentials{Token: " + c.Token + ", Secret: [redacted]}"
}

// GoString never prints the secret
func (c Credentials) GoString() string {
	return c.String()
}

// SignedRequest is the authentication material for one outbound call
type SignedRequest struct {
	Token     string
	Timestamp int64
	Nonce     string
	Signature string
}

// Apply sets the authentication and content-type headers
func (r SignedRequest) Apply(h http.Header) {
	h.Set("Authorization", r.Token)
	h.Set("t", strconv.FormatInt(r.Timestamp, 10))
	h.Set("sign", r.Signature)
	h.Set("nonce", r.Nonce)
	h.Set("Content-Type", "application/json")
}

// Sign computes base64(HMAC-SHA256(secret, token + timestamp + nonce))
func Sign(token string, secret []byte, timestampMs int64, nonce string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(token + strconv.FormatInt(timestampMs, 10) + nonce))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Signer produces a fresh SignedRequest per call
type Signer struct {
	creds Credentials
	now   func() time.Time
	nonce func() string
}

// SignerOption customizes a Signer
type SignerOption func(*Signer)

// WithClock replaces time.Now
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// WithNonceSource replaces the UUIDv4 nonce generator
func WithNonceSource(nonce func() string) SignerOption {
	return func(s *Signer) { s.nonce = nonce }
}

// NewSigner creates a signer for the given credentials
func NewSigner(creds Credentials, opts ...SignerOption) (*Signer, error) {
	if creds.Token == "" {
		return nil, ErrEmptyToken
	}
	if len(creds.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	s := &Signer{
		creds: creds,
		now:   time.Now,
		nonce: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewRequest signs a new request with the current time and a fresh nonce
func (s *Signer) NewRequest() SignedRequest {
	t := s.now().UnixMilli()
	nonce := s.nonce()
	return SignedRequest{
		Token:     s.creds.Token,
		Timestamp: t,
		Nonce:     nonce,
		Signature: Sign(s.creds.Token, s.creds.Secret, t, nonce),
	}
}
