package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danglnh07/concord/db"
	"github.com/gin-gonic/gin"
)

// HandleGetAllUsers lists every profile for the moderation dashboard.
func (server *Server) HandleGetAllUsers(ctx *gin.Context) {
	profiles, err := server.store.ListProfiles()
	if err != nil {
		server.logger.Error("GET /api/admin/users: failed to list profiles", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	views := make([]ProfileView, 0, len(profiles))
	for i := range profiles {
		views = append(views, server.profileView(&profiles[i]))
	}
	ctx.JSON(http.StatusOK, views)
}

type BanRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}

// HandleBanUser sets or clears the banned flag. A banned account keeps its
// session and can read; only posting is blocked.
func (server *Server) HandleBanUser(ctx *gin.Context) {
	accountID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid user ID"})
		return
	}

	var req BanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	profile, err := server.store.GetProfile(accountID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"User not found"})
			return
		}
		server.logger.Error("POST /api/admin/users/:id/ban: failed to fetch profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	profile.Banned = *req.Banned
	if err := server.store.UpdateProfile(profile); err != nil {
		server.logger.Error("POST /api/admin/users/:id/ban: failed to update profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, server.profileView(profile))
}

type VerifyRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

func (server *Server) HandleVerifyUser(ctx *gin.Context) {
	accountID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid user ID"})
		return
	}

	var req VerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	profile, err := server.store.GetProfile(accountID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"User not found"})
			return
		}
		server.logger.Error("POST /api/admin/users/:id/verify: failed to fetch profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	profile.Verified = *req.Verified
	if err := server.store.UpdateProfile(profile); err != nil {
		server.logger.Error("POST /api/admin/users/:id/verify: failed to update profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, server.profileView(profile))
}

type AddBadgeRequest struct {
	Name        string `json:"name" binding:"required"`
	ImageKey    string `json:"image_key"`
	Description string `json:"description"`
}

func (server *Server) HandleAddBadge(ctx *gin.Context) {
	accountID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid user ID"})
		return
	}

	var req AddBadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	profile, err := server.store.GetProfile(accountID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"User not found"})
			return
		}
		server.logger.Error("POST /api/admin/users/:id/badges: failed to fetch profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	badge := db.Badge{
		Name:        strings.TrimSpace(req.Name),
		ImageKey:    req.ImageKey,
		Description: req.Description,
	}
	if badge.Name == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Badge name cannot be empty"})
		return
	}

	if err := server.store.AddBadge(profile.ID, &badge); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			ctx.JSON(http.StatusConflict, ErrorResponse{"Badge already granted"})
			return
		}
		server.logger.Error("POST /api/admin/users/:id/badges: failed to add badge", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusCreated)
}

func (server *Server) HandleRemoveBadge(ctx *gin.Context) {
	accountID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid user ID"})
		return
	}
	name := ctx.Param("name")

	profile, err := server.store.GetProfile(accountID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"User not found"})
			return
		}
		server.logger.Error("DELETE /api/admin/users/:id/badges/:name: failed to fetch profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if err := server.store.RemoveBadge(profile.ID, name); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Badge not found"})
			return
		}
		server.logger.Error("DELETE /api/admin/users/:id/badges/:name: failed to remove badge", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

type AddEmojiRequest struct {
	Name     string `json:"name" binding:"required"`
	ImageKey string `json:"image_key" binding:"required"`
}

func (server *Server) HandleAddEmoji(ctx *gin.Context) {
	claims := server.identity(ctx)

	var req AddEmojiRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	emoji := db.CustomEmoji{
		Name:        strings.ToLower(strings.TrimSpace(req.Name)),
		ImageKey:    req.ImageKey,
		CreatedByID: claims.ID,
	}
	if emoji.Name == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Emoji name cannot be empty"})
		return
	}

	if err := server.store.CreateEmoji(&emoji); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			ctx.JSON(http.StatusConflict, ErrorResponse{"Emoji name already taken"})
			return
		}
		server.logger.Error("POST /api/admin/emojis: failed to create emoji", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, server.emojiView(&emoji))
}

func (server *Server) HandleRemoveEmoji(ctx *gin.Context) {
	name := ctx.Param("name")

	if err := server.store.DeleteEmojiByName(name); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Emoji not found"})
			return
		}
		server.logger.Error("DELETE /api/admin/emojis/:name: failed to delete emoji", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

type EmojiView struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (server *Server) emojiView(emoji *db.CustomEmoji) EmojiView {
	url, err := server.blobs.GetURL(emoji.ImageKey)
	if err != nil {
		server.logger.Error("Failed to resolve emoji URL", "name", emoji.Name, "error", err)
	}
	return EmojiView{Name: emoji.Name, URL: url}
}

// HandleListEmojis is open to every signed-in user; only management is
// admin-gated.
func (server *Server) HandleListEmojis(ctx *gin.Context) {
	emojis, err := server.store.ListEmojis()
	if err != nil {
		server.logger.Error("GET /api/emojis: failed to list emojis", "error", err)
		ctx.JSON(http.StatusOK, []EmojiView{})
		return
	}

	views := make([]EmojiView, 0, len(emojis))
	for i := range emojis {
		views = append(views, server.emojiView(&emojis[i]))
	}
	ctx.JSON(http.StatusOK, views)
}
