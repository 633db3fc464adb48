package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// SignedURLSigner issues HMAC-signed download tokens binding a job to a stored file.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer; ttl defaults to one day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token of the form payload.signature and its expiry.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, errors.New("job id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	raw := strings.Join([]string{jobID, strconv.FormatInt(expiresAt.Unix(), 10), relPath}, "|")
	payload := base64.RawURLEncoding.EncodeToString([]byte(raw))
	return payload + "." + s.sign(payload), expiresAt, nil
}

// Parse verifies a token and returns its job id, path and expiry.
// allowExpired skips the expiry check.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (string, string, time.Time, error) {
	payload, signature, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(signature), []byte(s.sign(payload))) {
		return "", "", time.Time{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return "", "", time.Time{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	expiresAt := time.Unix(unix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return parts[0], parts[2], expiresAt, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
