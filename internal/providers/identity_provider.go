package providers

import (
	"context"
	"net/http"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/structures"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIdentityHeader = "X-User-Id"

type IdentityProviderInterface interface {
	UserID(r *http.Request) (string, error)
}

// IdentityProvider resolves the caller from an HS256 bearer token. When
// allowHeader is set a plain header is accepted as well, for local runs.
type IdentityProvider struct {
	secret      []byte
	allowHeader bool
	header      string
}

func NewIdentityProvider(conf *structures.Config) IdentityProviderInterface {
	header := conf.Auth.Header
	if header == "" {
		header = defaultIdentityHeader
	}
	return &IdentityProvider{
		secret:      []byte(conf.Auth.JwtSecret),
		allowHeader: conf.Auth.AllowHeader,
		header:      header,
	}
}

func (ip *IdentityProvider) UserID(r *http.Request) (string, error) {
	if raw, ok := bearerToken(r); ok {
		return ip.parse(raw)
	}
	if ip.allowHeader {
		if userID := strings.TrimSpace(r.Header.Get(ip.header)); userID != "" {
			return userID, nil
		}
	}
	return "", apperrors.Unauthenticated("missing caller identity")
}

func (ip *IdentityProvider) parse(raw string) (string, error) {
	if len(ip.secret) == 0 {
		return "", apperrors.Unauthenticated("bearer tokens are not accepted")
	}
	token, err := jwt.Parse(raw, func(_ *jwt.Token) (interface{}, error) {
		return ip.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", apperrors.Unauthenticated("invalid bearer token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperrors.Unauthenticated("bearer token has no subject")
	}
	return sub, nil
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type userIDKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}

// IdentityMiddleware rejects requests without a resolvable caller. onError
// writes the failure response.
func IdentityMiddleware(identity IdentityProviderInterface, onError func(http.ResponseWriter, *http.Request, error), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := identity.UserID(r)
		if err != nil {
			onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
