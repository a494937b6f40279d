package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnsigned     = errors.New("identity payload is not signed")
	ErrBadSignature = errors.New("identity payload signature is invalid")
	ErrExpired      = errors.New("identity payload has expired")
)

// clockSkew is how far in the future an issue time may be.
const clockSkew = time.Minute

// Signer seals payloads into time-boxed tokens and opens them again.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("identity signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("identity token ttl must be positive")
	}
	return &Signer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the signer that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Signer) TTL() time.Duration { return s.ttl }

// Seal stamps the issue time on p and returns its signed JSON form.
func (s *Signer) Seal(p Payload) (string, error) {
	p.IssuedAt = s.now().Unix()
	p.Signature = ""

	signingString, err := canonical(p)
	if err != nil {
		return "", err
	}
	sig, err := jwt.SigningMethodHS256.Sign(signingString, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign identity payload: %w", err)
	}
	p.Signature = base64.RawURLEncoding.EncodeToString(sig)

	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode identity payload: %w", err)
	}
	return string(b), nil
}

// Open decodes raw and checks its signature and age.
func (s *Signer) Open(raw string) (Payload, error) {
	p, err := Decode(raw)
	if err != nil {
		return Payload{}, err
	}
	if err := s.Verify(p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Verify checks an already decoded payload.
func (s *Signer) Verify(p Payload) error {
	if !p.Signed() {
		return ErrUnsigned
	}
	sig, err := base64.RawURLEncoding.DecodeString(p.Signature)
	if err != nil {
		return ErrBadSignature
	}

	unsigned := p
	unsigned.Signature = ""
	signingString, err := canonical(unsigned)
	if err != nil {
		return err
	}
	if err := jwt.SigningMethodHS256.Verify(signingString, sig, s.key); err != nil {
		return ErrBadSignature
	}

	issued := time.Unix(p.IssuedAt, 0)
	now := s.now()
	if now.After(issued.Add(s.ttl)) || issued.After(now.Add(clockSkew)) {
		return ErrExpired
	}
	return nil
}

func canonical(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode identity payload: %w", err)
	}
	return string(b), nil
}
