package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	AdminCookieName = "auction_admin_session"
	DefaultAdminTTL = 12 * time.Hour
)

var (
	ErrNoSessionKey     = errors.New("session key not configured")
	ErrInvalidSession   = errors.New("invalid session signature")
	ErrSessionExpired   = errors.New("session expired")
	errMalformedSession = errors.New("malformed session")
)

type AdminSession struct {
	Subject   string    `json:"sub"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions signs operator session cookies with HMAC-SHA256. The cookie value
// is base64(json || mac).
type Sessions struct {
	key []byte
	now func() time.Time
}

func NewSessions(key string) *Sessions {
	return &Sessions{key: []byte(key), now: time.Now}
}

func (s *Sessions) NewAdmin(subject string, ttl time.Duration) AdminSession {
	if ttl <= 0 {
		ttl = DefaultAdminTTL
	}
	return AdminSession{Subject: subject, IsAdmin: true, ExpiresAt: s.now().Add(ttl).UTC()}
}

func (s *Sessions) Sign(session AdminSession) (string, error) {
	if len(s.key) == 0 {
		return "", ErrNoSessionKey
	}
	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	combined := append(data, s.mac(data)...)
	return base64.URLEncoding.EncodeToString(combined), nil
}

func (s *Sessions) Verify(value string) (*AdminSession, error) {
	if len(s.key) == 0 {
		return nil, ErrNoSessionKey
	}
	combined, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if len(combined) <= sha256.Size {
		return nil, errMalformedSession
	}
	data := combined[:len(combined)-sha256.Size]
	sig := combined[len(combined)-sha256.Size:]
	if !hmac.Equal(sig, s.mac(data)) {
		return nil, ErrInvalidSession
	}

	var session AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *Sessions) mac(data []byte) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write(data)
	return h.Sum(nil)
}
