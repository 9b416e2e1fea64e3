package xhttp

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "xhttp.user_id"

const DefaultUserHeader = "X-User-Id"

var (
	ErrMissingIdentity = errors.New("missing caller identity")
	ErrInvalidToken    = errors.New("invalid bearer token")
)

// IdentityConfig selects how the caller is identified. With a Secret the
// request must carry an HS256 bearer token whose subject is the user id,
// otherwise the user id is read from Header as set by a trusted proxy.
type IdentityConfig struct {
	Secret    string
	Header    string
	SkipPaths []string
}

func IdentityMiddleware(cfg IdentityConfig) MiddlewareFunc {
	if cfg.Header == "" {
		cfg.Header = DefaultUserHeader
	}
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			if shouldSkip(string(ctx.Path()), cfg.SkipPaths) {
				next(ctx)
				return
			}

			uid, err := resolveIdentity(ctx, cfg)
			if err != nil {
				ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
				ctx.SetContentType("application/json")
				ctx.SetStatusCode(StatusUnauthorized)
				ctx.SetBodyString(`{"error":"` + err.Error() + `"}`)
				return
			}
			ctx.SetUserValue(userIDKey, uid)
			next(ctx)
		}
	}
}

func resolveIdentity(ctx *RequestCtx, cfg IdentityConfig) (string, error) {
	if cfg.Secret == "" {
		uid := strings.TrimSpace(string(ctx.Request.Header.Peek(cfg.Header)))
		if uid == "" {
			return "", ErrMissingIdentity
		}
		return uid, nil
	}

	raw, ok := BearerToken(ctx)
	if !ok {
		return "", ErrMissingIdentity
	}
	return ParseSubject(raw, cfg.Secret)
}

// ParseSubject validates an HS256 token and returns its subject claim.
func ParseSubject(raw, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(ctx *RequestCtx) (string, bool) {
	h := string(ctx.Request.Header.Peek("Authorization"))
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// UserID returns the caller resolved by IdentityMiddleware.
func UserID(ctx *RequestCtx) string {
	uid, _ := ctx.UserValue(userIDKey).(string)
	return uid
}

// WithUserID sets the caller on ctx, for handlers invoked without the middleware.
func WithUserID(ctx *RequestCtx, uid string) {
	ctx.SetUserValue(userIDKey, uid)
}
