package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// AuthService resolves the caller from a bearer token. Token issuance lives with the
// identity provider; IssueToken exists for operators and tests.
type AuthService interface {
	UserFromToken(ctx context.Context, tokenString string) (uuid.UUID, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	users        UserReader
	jwtSecretKey string
}

// NewAuthService checks that the subject exists when users is non-nil.
func NewAuthService(log *logger.Logger, users UserReader, jwtSecretKey string) AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		users:        users,
		jwtSecretKey: jwtSecretKey,
	}
}

func unauthenticated(msg string, cause error) error {
	return domainagg.NewError(domainagg.CodeUnauthenticated, "auth", msg, cause)
}

func (as *authService) UserFromToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return uuid.Nil, domainagg.ErrUnauthenticated
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, unauthenticated("invalid token", fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, unauthenticated("invalid or expired token", nil)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, unauthenticated("invalid user id in token", err)
	}
	if as.users != nil {
		u, err := as.users.GetByID(dbctx.New(ctx), userID)
		if err != nil {
			as.log.Warn("Error loading token subject", "user_id", userID, "error", err)
			return uuid.Nil, domainagg.Wrap(domainagg.CodeInternal, "auth", err)
		}
		if u == nil {
			return uuid.Nil, unauthenticated("unknown user", nil)
		}
	}
	return userID, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, err := as.UserFromToken(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      userID,
		TokenString: tokenString,
	}), nil
}

func (as *authService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
}
