package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
)

const (
	BidderCookieName  = "bidder_session"
	DefaultBidderTTL  = 7 * 24 * time.Hour
	bidderTokenIssuer = "auctionhouse"
)

// BidderClaims carry the storefront identity of a customer. Sub is the
// external customer ref, the bidder profile is derived from it on demand.
type BidderClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultBidderTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) IssueBidder(identity bidders.Identity) (string, error) {
	if identity.ExternalRef == "" {
		return "", errors.New("external ref is required")
	}
	now := t.now()
	claims := BidderClaims{
		Name:  identity.DisplayName,
		Email: identity.Email,
		Phone: identity.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ExternalRef,
			Issuer:    bidderTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign bidder token: %w", err)
	}
	return signed, nil
}

// ParseBidder validates the token and returns the identity it carries. Every
// failure maps to ErrUnauthenticated.
func (t *Tokens) ParseBidder(token string) (bidders.Identity, error) {
	claims := &BidderClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(bidderTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return bidders.Identity{}, domain.ErrUnauthenticated.Wrap(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return bidders.Identity{}, domain.ErrUnauthenticated
	}
	return bidders.Identity{
		ExternalRef: claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Phone:       claims.Phone,
	}, nil
}
