// Package api exposes the help line over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aeg-helpline/server/internal/agent/model"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

// TurnRunner runs help line turns and manages stored conversations.
type TurnRunner interface {
	Invoke(ctx context.Context, in model.TurnInput) (model.TurnOutput, error)
	Transcript(ctx context.Context, conversationID string) (*model.ConversationHistory, error)
	Reset(ctx context.Context, conversationID string) error
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter mounts the help line routes on a new gin engine.
func NewRouter(runner TurnRunner, health HealthCheck) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(), gin.Recovery(), ErrorHandler())

	if err := r.SetTrustedProxies(nil); err != nil {
		logx.Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", RequestID: GetRequestID(c)})
	})

	h := &Handler{runner: runner, health: health}
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/messages", h.PostMessage)

		conversations := api.Group("/conversations")
		conversations.GET("/:id/transcript", h.Transcript)
		conversations.DELETE("/:id", h.DeleteConversation)
	}
	return r
}
