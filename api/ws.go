package api

import (
	"net/http"

	"github.com/danglnh07/concord/service/pubsub"
	"github.com/gin-gonic/gin"
)

// HandleWS upgrades the request and registers the connection with the
// event hub. The connection only ever receives; inbound frames are drained
// to detect disconnects.
func (server *Server) HandleWS(ctx *gin.Context) {
	// Upgrade request from HTTP to Web Socket
	conn, err := server.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		server.logger.Error("failed to upgrade to Web Socket", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	claims := server.identity(ctx)
	client := pubsub.NewClient(claims.ID, conn)

	server.eventHub.Subscribe(client)
	defer server.eventHub.Unsubscribe(client)

	// Block until client is disconnected
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			server.logger.Info("client disconnected", "id", claims.ID, "err", err)
			break
		}
	}
}
