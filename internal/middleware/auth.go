// Package middleware provides the HTTP middleware shared by the API server.
package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Registered claim values stamped on every session token.
const (
	TokenIssuer   = "murmur-api"
	TokenAudience = "murmur-client"
)

var (
	// ErrMissingSecret is returned when tokens are issued without a signing key.
	ErrMissingSecret = errors.New("JWT secret not configured")
	// ErrInvalidSubject is returned when the sub claim is not an account ID.
	ErrInvalidSubject = errors.New("invalid account ID in token")
)

// TokenClaims is the part of a session token the server relies on. Instance
// is the network instance the account ID belongs to.
type TokenClaims struct {
	AccountID uint
	Name      string
	Instance  string
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs an HS256 session token for the account of the given
// network instance.
func IssueToken(secret, instance string, accountID uint, name string, ttl time.Duration) (string, TokenClaims, error) {
	if secret == "" {
		return "", TokenClaims{}, ErrMissingSecret
	}

	now := time.Now()
	out := TokenClaims{
		AccountID: accountID,
		Name:      name,
		Instance:  instance,
		JTI:       GenerateJTI(),
		ExpiresAt: now.Add(ttl),
	}
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(accountID), 10),
		"name": name,
		"nid":  instance,
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"exp":  out.ExpiresAt.Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  out.JTI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", TokenClaims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, out, nil
}

// GenerateJTI creates a unique token ID used for revocation.
func GenerateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// ParseToken validates signature, issuer, audience and expiry and returns the
// session claims.
func ParseToken(secret, tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return TokenClaims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return TokenClaims{}, err
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return TokenClaims{}, ErrInvalidSubject
	}

	out := TokenClaims{AccountID: uint(id)}
	out.Name, _ = claims["name"].(string)
	out.Instance, _ = claims["nid"].(string)
	out.JTI, _ = claims["jti"].(string)
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>". When
// allowQuery is set, a ?token= query parameter is accepted as a fallback for
// clients that cannot set headers (browser WebSockets).
func BearerToken(c *fiber.Ctx, allowQuery bool) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}
