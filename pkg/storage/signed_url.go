package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("storage: invalid download token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("storage: download token expired")
)

// Grant is the payload carried by a signed download token.
type Grant struct {
	BillID    string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates signed download tokens for bill
// artifacts.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Sign returns a token granting access to relPath of the given bill.
func (s *SignedURLSigner) Sign(billID, relPath string) (string, time.Time, error) {
	if billID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("billID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{billID, ts, encodedPath, s.signature(billID, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Verify validates a token and returns its grant.
func (s *SignedURLSigner) Verify(token string) (*Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrTokenInvalid
	}
	billID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.signature(billID, ts, encodedPath)), []byte(signature)) {
		return nil, ErrTokenInvalid
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return nil, ErrTokenExpired
	}
	return &Grant{BillID: billID, Path: string(rawPath), ExpiresAt: expiresAt}, nil
}

func (s *SignedURLSigner) signature(billID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(billID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
