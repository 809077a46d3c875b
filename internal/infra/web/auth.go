package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Session/JWT primitives =====

type AuthManager struct {
	secret []byte
	token  string // static bearer token for non-browser clients
	ttl    time.Duration
}

func NewAuthManager(jwtSecret, bearerToken string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{secret: []byte(jwtSecret), token: bearerToken, ttl: ttl}
}

type opsClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint issues a short-lived ops session token for a caller that already
// presented the bearer token.
func (a *AuthManager) Mint() (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := opsClaims{
		Role: "ops",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   "ops",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) verifyJWT(raw string) bool {
	if len(a.secret) == 0 {
		return false
	}
	tok, err := jwt.ParseWithClaims(raw, &opsClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	return err == nil && tok.Valid
}

// Middleware accepts either the static bearer token or a minted JWT.
func (a *AuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		raw := parts[1]
		if (a.token != "" && raw == a.token) || a.verifyJWT(raw) {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	})
}
