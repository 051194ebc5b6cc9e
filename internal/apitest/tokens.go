package apitest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer token claims issued by the backend.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type contextKey string

const userIDKey contextKey = "userID"

// MintToken signs a token for userID that expires after ttl. A negative ttl
// yields an already expired token.
func (b *Backend) MintToken(userID int64, ttl time.Duration) string {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: failed to sign token: %v", err))
	}
	return signed
}

// TokenFor mints a valid token for the account with the given email.
func (b *Backend) TokenFor(email string) string {
	b.mu.Lock()
	acct, ok := b.accounts[email]
	b.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("apitest: unknown account %s", email))
	}
	return b.MintToken(acct.user.ID, b.tokenTTL)
}

func (b *Backend) validateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// requireAuth rejects requests without a valid, unrevoked bearer token.
func (b *Backend) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		tokenString := parts[1]

		b.mu.Lock()
		revoked := b.revoked[tokenString]
		b.mu.Unlock()
		if revoked {
			writeError(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		claims, err := b.validateToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token has expired")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
