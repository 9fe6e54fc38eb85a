package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-client/internal/session"
	"chat-client/internal/state"
	"chat-client/internal/ws"
)

// RegisterDebugRoutes wires the local debug/metrics endpoints. The
// debug server is loopback-only tooling; it carries no business traffic.
func RegisterDebugRoutes(router *gin.Engine, sess *session.Manager, channel *ws.Channel, reconciler *state.Reconciler, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/debug/status", func(c *gin.Context) {
		snapshot := sess.Snapshot()

		status := gin.H{
			"channel":     channel.State().String(),
			"loggedIn":    !snapshot.Empty(),
			"collections": reconciler.CollectionStats(),
		}
		if !snapshot.Empty() {
			status["userId"] = snapshot.UserID
			status["username"] = snapshot.Username
			if expiry := sess.AccessTokenExpiry(); !expiry.IsZero() {
				status["tokenExpiresAt"] = expiry.UTC().Format(time.RFC3339)
			}
		}

		c.JSON(http.StatusOK, status)
	})
}
