package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/services"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

// Имена JWT claims, которые кладёт GenerateToken и читает Authenticate.
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

const tokenTTL = 72 * time.Hour

// Auth проверяет Bearer-токены и кладёт claims в контекст запроса.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// GenerateToken выпускает подписанный JWT для пользователя.
func (a *Auth) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		jwtClaimUserID: user.ID,
		jwtClaimRole:   string(user.Role),
		"exp":          time.Now().Add(tokenTTL).Unix(),
		"iat":          time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (a *Auth) parseToken(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Authenticate требует валидный Bearer-токен.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			// Поддержка токена в query — нужна для websocket-подключений,
			// где заголовки из браузера поставить нельзя.
			tokenStr = r.URL.Query().Get("token")
		}
		if tokenStr == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := a.parseToken(tokenStr)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin пропускает только администраторов. Вешается после Authenticate.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := GetIdentityFromContext(r.Context())
		if err != nil || !identity.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context")
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing %q claim in token", jwtClaimUserID)
	}
	// JSON-числа приходят как float64.
	userIDFloat, ok := userIDClaim.(float64)
	if !ok || userIDFloat != float64(int(userIDFloat)) {
		return 0, fmt.Errorf("invalid %q claim: %v", jwtClaimUserID, userIDClaim)
	}
	userID := int(userIDFloat)
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value: %d", userID)
	}
	return userID, nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context")
	}
	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid %q claim in token", jwtClaimRole)
	}
	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}

// GetIdentityFromContext собирает Identity вызывающего из claims.
func GetIdentityFromContext(ctx context.Context) (services.Identity, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return services.Identity{}, err
	}
	role, err := GetUserRoleFromContext(ctx)
	if err != nil {
		return services.Identity{}, err
	}
	return services.Identity{
		UserID:  userID,
		IsAdmin: role == models.RoleAdmin,
	}, nil
}
