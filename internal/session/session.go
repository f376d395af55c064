package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const viewerKey = contextKey("viewer")

// Claims - содержимое токена сессии.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Auth проверяет Bearer-токены, подписанные HS256.
type Auth struct {
	secret []byte
}

// New создает Auth с общим секретом.
func New(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Issue выписывает токен для пользователя.
func (a *Auth) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate разбирает токен и возвращает id пользователя.
func (a *Auth) Validate(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("token expired")
		}
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return "", errors.New("token is not valid")
	}
	return claims.UserID, nil
}

// Middleware кладёт id зрителя в контекст запроса.
// Без заголовка запрос проходит анонимно, неверный токен отклоняется с 401.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}
		userID, err := a.Validate(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), userID)))
	})
}

// WithViewer помещает id зрителя в контекст.
func WithViewer(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, viewerKey, userID)
}

// ViewerID возвращает id зрителя, пустую строку для анонимного запроса.
func ViewerID(ctx context.Context) string {
	id, _ := ctx.Value(viewerKey).(string)
	return id
}
