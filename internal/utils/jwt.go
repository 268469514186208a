package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// SessionToken represents a signed JWT session token along with its expiry.
// The Token field contains the serialized JWT string. Sessions are stateless:
// everything the server needs is inside the token, there is no server-side
// session storage or revocation list.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenClaims carries the identity extracted from a verified session token.
type TokenClaims struct {
	UserID   uint64 // subject (sub) claim
	Username string // username claim
}

// ErrInvalidToken is returned when a token fails signature verification, has
// expired, or does not carry the expected claims.
var ErrInvalidToken = errors.New("invalid token")

// NewSessionToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the user ID, the username and a TTL in minutes. The JWT
// includes the subject (sub), username, expiration (exp) and issued at (iat)
// claims.
func NewSessionToken(secret string, userID uint64, username string, ttlMin int) (SessionToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of a session token and
// extracts its identity claims. It is a pure function of the token and the
// secret; no store lookup is involved. Any failure collapses into
// ErrInvalidToken so callers cannot distinguish a tampered token from an
// expired one.
func ParseSessionToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC; otherwise a
		// client could switch the algorithm and bypass verification.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	// JWT numbers decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return TokenClaims{}, ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return TokenClaims{}, ErrInvalidToken
	}
	return TokenClaims{UserID: uint64(sub), Username: username}, nil
}
