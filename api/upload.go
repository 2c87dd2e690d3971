package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleGenerateUploadURL hands the client a one-time presigned PUT URL
// and the object key to reference in later requests (avatar, banner,
// attachment, badge or emoji image).
func (server *Server) HandleGenerateUploadURL(ctx *gin.Context) {
	key, url, err := server.blobs.GenerateUploadURL()
	if err != nil {
		server.logger.Error("POST /api/uploads: failed to generate upload URL", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"key": key,
		"url": url,
	})
}
