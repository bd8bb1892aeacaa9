package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Actor is the authenticated identity extracted from the access token.
type Actor struct {
	ID       int64
	Username string
	Roles    []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type actorKey struct{}

// Request-scoped user value key, shared with the handlers.
const ActorUserValue = "actor"

// WithActor attaches the actor to a stdlib context so lower layers (the
// audit recorder in particular) can resolve who acted.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// ActorName adapts ActorFromContext to the audit recorder's resolver shape.
func ActorName(ctx context.Context) (string, bool) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return "", false
	}
	return actor.Username, true
}

// JWTAuth rejects requests without a valid bearer token and stores the
// decoded actor as a request user value.
func JWTAuth(secret string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(secret)
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			actor, ok := actorFromClaims(claims)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			ctx.SetUserValue(ActorUserValue, actor)
			next(ctx)
		}
	}
}

// RequireRole gates a route on a role carried in the token. It composes
// after JWTAuth.
func RequireRole(role string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			actor, ok := ctx.UserValue(ActorUserValue).(Actor)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			if !actor.HasRole(role) {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				return
			}
			next(ctx)
		}
	}
}

func actorFromClaims(claims jwt.MapClaims) (Actor, bool) {
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return Actor{}, false
	}
	actor := Actor{ID: int64(id)}
	if username, ok := claims["username"].(string); ok {
		actor.Username = username
	}
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if role, ok := r.(string); ok {
				actor.Roles = append(actor.Roles, role)
			}
		}
	}
	return actor, true
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
