// Package auth implements password hashing, bearer token issuance and the
// request middleware that turns an Authorization header into a request
// identity.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calebdee/dndwiki/internal/config"
)

// ErrInvalidToken is returned by Verify for any token that does not parse,
// is expired, or carries unusable claims. A missing token is not an error;
// callers decide that before calling Verify.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified content of a token.
type Identity struct {
	UserID   uint
	Username string
}

type wikiClaims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies signed bearer tokens. The secret comes from the
// config struct built at startup; there is no package-level state.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokens(cfg config.AuthConfig) *Tokens {
	return &Tokens{
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTL) * time.Minute,
		issuer: cfg.Issuer,
	}
}

// Issue returns a signed token embedding the username and user id.
func (t *Tokens) Issue(userID uint, username string) (string, error) {
	now := time.Now()
	claims := wikiClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token and returns the identity it embeds.
func (t *Tokens) Verify(bearer string) (Identity, error) {
	claims := wikiClaims{}
	token, err := jwt.ParseWithClaims(bearer, &claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}
