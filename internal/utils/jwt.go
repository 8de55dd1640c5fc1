package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel auth error returned on any token problem
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned by ParseAccessToken for every failure mode:
// bad signature, expiry, malformed claims or a missing subject.  Handlers
// only need to know the token is unusable, not why.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short‑lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// TokenClaims is the decoded, validated content of an access token.  The
// subject is the username; Role and UserID are carried alongside so the
// middleware can cross-check them against the current user row.
type TokenClaims struct {
    Username string
    Role     string
    UserID   uint64
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the username, the user's role and numeric id, and a TTL
// in minutes.  The JWT carries sub (username), role, user_id, exp and iat.
func NewAccessToken(secret, username, role string, userID uint64, ttlMin int) (AccessToken, error) {
    // Calculate the expiration time by adding the TTL to the current UTC time.
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":     username,
        "role":    role,
        "user_id": userID,
        "exp":     exp.Unix(),
        "iat":     time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates the signature and expiry of a raw token and
// extracts its claims.  Tokens signed with anything but HMAC are rejected
// outright.  A token without a subject is invalid even when the signature
// checks out.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
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
    out := TokenClaims{}
    if sub, ok := claims["sub"].(string); ok {
        out.Username = sub
    }
    if out.Username == "" {
        return TokenClaims{}, ErrInvalidToken
    }
    if role, ok := claims["role"].(string); ok {
        out.Role = role
    }
    // Numeric JSON values decode as float64.
    if id, ok := claims["user_id"].(float64); ok {
        out.UserID = uint64(id)
    }
    return out, nil
}
