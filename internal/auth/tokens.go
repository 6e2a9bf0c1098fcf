package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"procurement/models"
)

const (
	sessionAudience = "session"
	vendorAudience  = "vendor-submission"

	defaultSessionTTL = 24 * time.Hour
	defaultVendorTTL  = 30 * 24 * time.Hour
)

type TokenConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	VendorTTL  time.Duration
	Clock      func() time.Time
}

// Claims is shared by session and vendor tokens; the audience tells them apart.
type Claims struct {
	UserID      int         `json:"uid,omitempty"`
	Email       string      `json:"email,omitempty"`
	Role        models.Role `json:"role,omitempty"`
	CompanyName string      `json:"company,omitempty"`
	BidID       int         `json:"bid,omitempty"`
	VendorID    int         `json:"vendor,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens.
type Tokens struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	vendorTTL  time.Duration
	now        func() time.Time
}

func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}
	t := &Tokens{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		sessionTTL: cfg.SessionTTL,
		vendorTTL:  cfg.VendorTTL,
		now:        time.Now,
	}
	if t.sessionTTL <= 0 {
		t.sessionTTL = defaultSessionTTL
	}
	if t.vendorTTL <= 0 {
		t.vendorTTL = defaultVendorTTL
	}
	if cfg.Clock != nil {
		t.now = cfg.Clock
	}
	return t, nil
}

// IssueSession signs a login token for user.
func (t *Tokens) IssueSession(user *models.User) (string, error) {
	return t.sign(&Claims{
		UserID:           user.ID,
		Email:            user.Email,
		Role:             user.Role,
		CompanyName:      user.CompanyName,
		RegisteredClaims: t.registered(strconv.Itoa(user.ID), sessionAudience, t.sessionTTL),
	})
}

// ParseSession verifies a login token and returns the caller identity.
func (t *Tokens) ParseSession(token string) (models.Identity, error) {
	claims, err := t.parse(token, sessionAudience)
	if err != nil {
		return models.Identity{}, err
	}
	if claims.UserID <= 0 {
		return models.Identity{}, errors.New("jwt: missing user id claim")
	}
	return models.Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        claims.Role,
		CompanyName: claims.CompanyName,
	}, nil
}

// IssueVendorToken signs the link a vendor uses to answer one bid.
func (t *Tokens) IssueVendorToken(bidID, vendorID int) (string, error) {
	return t.sign(&Claims{
		BidID:            bidID,
		VendorID:         vendorID,
		RegisteredClaims: t.registered(strconv.Itoa(vendorID), vendorAudience, t.vendorTTL),
	})
}

// ParseVendorToken returns the vendor a token was issued to, if it was issued for bidID.
func (t *Tokens) ParseVendorToken(token string, bidID int) (int, error) {
	claims, err := t.parse(token, vendorAudience)
	if err != nil {
		return 0, err
	}
	if claims.BidID != bidID || claims.VendorID <= 0 {
		return 0, errors.New("jwt: token was not issued for this bid")
	}
	return claims.VendorID, nil
}

func (t *Tokens) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    t.issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func (t *Tokens) sign(claims *Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(token, audience string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithAudience(audience),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	if _, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	return &claims, nil
}
