package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/httputil"
)

const ContextActor = "actor"

// ActorClaims are the token claims the scheduler cares about. The subject
// is the patient or clinician ID, role decides what the bearer may do.
type ActorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ActorMiddleware struct {
	secret []byte
}

func NewActorMiddleware(secret string) *ActorMiddleware {
	return &ActorMiddleware{secret: []byte(secret)}
}

// Authenticate validates the bearer token and stores the resolved actor
// in the request context.
func (m *ActorMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := m.actorFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.Abort()
			httputil.RespondWithError(c, err)
			return
		}
		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole gates a route group to specific roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.Abort()
			httputil.RespondWithError(c, unauthorized("missing actor"))
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.Abort()
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
	}
}

func (m *ActorMiddleware) actorFromHeader(header string) (model.Actor, error) {
	if header == "" {
		return model.Actor{}, unauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return model.Actor{}, unauthorized("invalid authorization format")
	}

	claims := &ActorClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, unauthorized("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, unauthorized("invalid subject claim")
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Actor{}, unauthorized("unknown role claim")
	}
	return model.Actor{ID: id, Role: role}, nil
}

// GetActor reads the authenticated actor set by Authenticate.
func GetActor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

func unauthorized(message string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    apperrors.CodeAccessDenied,
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}
