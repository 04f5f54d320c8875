package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kiranshivaraju/backoffice/internal/api/response"
	"github.com/kiranshivaraju/backoffice/internal/logger"
	"github.com/kiranshivaraju/backoffice/internal/service"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// touchTimeout bounds the background last-used update of an application.
const touchTimeout = 5 * time.Second

// Claims is the JWT payload accepted for merchant users.
type Claims struct {
	MerchantID int64    `json:"merchant_id"`
	Scopes     []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Auth provides authentication and scope-checking middleware.
type Auth struct {
	store  store.Store
	secret []byte
	issuer string
}

// NewAuth creates a new Auth middleware. JWTs are verified with secret and,
// when issuer is non-empty, must carry it.
func NewAuth(s store.Store, secret, issuer string) *Auth {
	return &Auth{store: s, secret: []byte(secret), issuer: issuer}
}

// Authenticate resolves the Bearer token into a merchant id and scopes.
// Application keys start with "mk_"; every other token is parsed as a JWT.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"UNAUTHORIZED", "Missing or invalid Authorization header", nil)
			return
		}

		var (
			ctx context.Context
			err error
		)
		if strings.HasPrefix(token, service.KeyPrefix) {
			ctx, err = a.applicationKey(r.Context(), token)
		} else {
			ctx, err = a.jwt(r.Context(), token)
		}
		if err != nil {
			if errors.Is(err, errInvalidCredentials) {
				response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
				return
			}
			logger.FromContext(r.Context()).Error("authenticate", zap.Error(err))
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to validate credentials", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errInvalidCredentials = errors.New("invalid credentials")

func (a *Auth) applicationKey(ctx context.Context, raw string) (context.Context, error) {
	if len(raw) < service.KeyPrefixLen {
		return nil, errInvalidCredentials
	}
	prefix := raw[:service.KeyPrefixLen]

	apps, err := a.store.GetApplicationsByKeyPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("lookup application key: %w", err)
	}

	for _, app := range apps {
		if bcrypt.CompareHashAndPassword([]byte(app.KeyHash), []byte(raw)) != nil {
			continue
		}
		log := logger.FromContext(ctx)
		go func(id int64) {
			ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
			defer cancel()
			if err := a.store.UpdateApplicationLastUsed(ctx, id); err != nil {
				log.Warn("update application last used", zap.Int64("application_id", id), zap.Error(err))
			}
		}(app.ID)

		ctx = SetMerchantID(ctx, app.MerchantID)
		ctx = setPrincipal(ctx, "app:"+prefix)
		ctx = setScopes(ctx, app.Scopes)
		return ctx, nil
	}
	return nil, errInvalidCredentials
}

func (a *Auth) jwt(ctx context.Context, raw string) (context.Context, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || claims.MerchantID <= 0 {
		return nil, errInvalidCredentials
	}

	principal := claims.Subject
	if principal == "" {
		principal = strconv.FormatInt(claims.MerchantID, 10)
	}
	ctx = SetMerchantID(ctx, claims.MerchantID)
	ctx = setPrincipal(ctx, "jwt:"+principal)
	ctx = setScopes(ctx, claims.Scopes)
	return ctx, nil
}

// SignToken issues an HS256 token the Authenticate middleware accepts.
// Used by operators and tests; the back office has no login endpoint.
func (a *Auth) SignToken(merchantID int64, subject string, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		MerchantID: merchantID,
		Scopes:     scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireScope returns middleware that checks whether the caller holds
// the specified scope.
func (a *Auth) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range getScopes(r) {
				if s == scope {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
