package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/presence"
	"github.com/gin-gonic/gin"
)

// Usernames: 3-20 chars, letters/digits/underscore, stored lowercase,
// immutable once the profile exists.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// BadgeView is the client-facing badge shape with a resolved image URL
type BadgeView struct {
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description,omitempty"`
}

// ProfileView is the client-facing profile shape. It is always resolved
// from the live profile row at read time, never from a cached snapshot.
type ProfileView struct {
	AccountID    uint        `json:"account_id"`
	Username     string      `json:"username"`
	DisplayName  string      `json:"display_name"`
	AvatarURL    string      `json:"avatar_url,omitempty"`
	BannerURL    string      `json:"banner_url,omitempty"`
	AboutMe      string      `json:"about_me,omitempty"`
	Status       db.Status   `json:"status"`
	LastSeen     time.Time   `json:"last_seen"`
	Verified     bool        `json:"verified"`
	Banned       bool        `json:"banned"`
	DoNotDisturb bool        `json:"do_not_disturb"`
	Badges       []BadgeView `json:"badges"`
}

// profileView resolves storage keys to asset URLs. URL resolution failures
// degrade to empty URLs instead of failing the whole read.
func (server *Server) profileView(profile *db.Profile) ProfileView {
	avatarURL, err := server.blobs.GetURL(profile.AvatarKey)
	if err != nil {
		server.logger.Error("failed to resolve avatar URL", "profile_id", profile.ID, "error", err)
	}
	bannerURL, err := server.blobs.GetURL(profile.BannerKey)
	if err != nil {
		server.logger.Error("failed to resolve banner URL", "profile_id", profile.ID, "error", err)
	}

	badges := make([]BadgeView, 0, len(profile.Badges))
	for _, badge := range profile.Badges {
		imageURL, err := server.blobs.GetURL(badge.ImageKey)
		if err != nil {
			server.logger.Error("failed to resolve badge URL", "badge_id", badge.ID, "error", err)
		}
		badges = append(badges, BadgeView{
			Name:        badge.Name,
			ImageURL:    imageURL,
			Description: badge.Description,
		})
	}

	return ProfileView{
		AccountID:    profile.AccountID,
		Username:     profile.Username,
		DisplayName:  profile.DisplayName,
		AvatarURL:    avatarURL,
		BannerURL:    bannerURL,
		AboutMe:      profile.AboutMe,
		Status:       profile.Status,
		LastSeen:     profile.LastSeen,
		Verified:     profile.Verified,
		Banned:       profile.Banned,
		DoNotDisturb: profile.DoNotDisturb,
		Badges:       badges,
	}
}

// Helper to parse a numeric path parameter
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

type CreateProfileRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	AvatarKey   string `json:"avatar_key"`
}

func (server *Server) HandleCreateProfile(ctx *gin.Context) {
	claims := server.identity(ctx)

	var req CreateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if !usernameRegex.MatchString(req.Username) {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Username must be 3-20 characters of letters, numbers and underscores"})
		return
	}
	username := strings.ToLower(req.Username)

	// Check if username is already taken
	if _, err := server.store.GetProfileByUsername(username); err == nil {
		ctx.JSON(http.StatusConflict, ErrorResponse{"Username already taken"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		server.logger.Error("POST /api/profiles: failed to check username", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Check if user already has a profile
	if _, err := server.store.GetProfile(claims.ID); err == nil {
		ctx.JSON(http.StatusConflict, ErrorResponse{"Profile already exists"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		server.logger.Error("POST /api/profiles: failed to check existing profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	profile := db.Profile{
		AccountID:   claims.ID,
		Username:    username,
		DisplayName: req.DisplayName,
		AvatarKey:   req.AvatarKey,
		Status:      db.StatusOnline,
		LastSeen:    time.Now(),
	}
	if err := server.store.CreateProfile(&profile); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			ctx.JSON(http.StatusConflict, ErrorResponse{"Username already taken"})
			return
		}
		server.logger.Error("POST /api/profiles: failed to create profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Every new profile joins the singleton general conversation
	if err := server.ensureGeneralMembership(claims.ID); err != nil {
		server.logger.Error("POST /api/profiles: failed to join general conversation", "error", err)
		// The profile exists; the general sweep-in happens on the next
		// conversation list anyway, so do not fail the request
	}

	ctx.JSON(http.StatusCreated, server.profileView(&profile))
}

type UpdateProfileRequest struct {
	DisplayName  *string `json:"display_name"`
	AvatarKey    *string `json:"avatar_key"`
	BannerKey    *string `json:"banner_key"`
	AboutMe      *string `json:"about_me"`
	Status       *string `json:"status"`
	DoNotDisturb *bool   `json:"do_not_disturb"`
}

func (server *Server) HandleUpdateProfile(ctx *gin.Context) {
	claims := server.identity(ctx)

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	profile, err := server.store.GetProfile(claims.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Profile not found"})
			return
		}
		server.logger.Error("PATCH /api/profiles/me: failed to fetch profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if req.DisplayName != nil {
		profile.DisplayName = *req.DisplayName
	}
	if req.AvatarKey != nil {
		profile.AvatarKey = *req.AvatarKey
	}
	if req.BannerKey != nil {
		profile.BannerKey = *req.BannerKey
	}
	if req.AboutMe != nil {
		profile.AboutMe = *req.AboutMe
	}
	if req.DoNotDisturb != nil {
		profile.DoNotDisturb = *req.DoNotDisturb
	}
	if req.Status != nil {
		status := db.Status(*req.Status)
		switch status {
		case db.StatusOnline, db.StatusAway, db.StatusDnd, db.StatusOffline:
			profile.Status = status
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid value for status"})
			return
		}
	}
	profile.LastSeen = time.Now()

	if err := server.store.UpdateProfile(profile); err != nil {
		server.logger.Error("PATCH /api/profiles/me: failed to update profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, server.profileView(profile))
}

// HandleHeartbeat is the presence heartbeat: clients call it on an interval
// (~30s) while active. It refreshes lastSeen and recomputes status; a
// client that stops calling goes stale until the next status sweep.
func (server *Server) HandleHeartbeat(ctx *gin.Context) {
	claims := server.identity(ctx)

	profile, err := server.store.GetProfile(claims.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// No profile yet: nothing to refresh
			ctx.Status(http.StatusNoContent)
			return
		}
		server.logger.Error("POST /api/profiles/heartbeat: failed to fetch profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	profile.LastSeen = time.Now()
	profile.Status = presence.HeartbeatStatus(profile.DoNotDisturb)
	if err := server.store.UpdateProfile(profile); err != nil {
		server.logger.Error("POST /api/profiles/heartbeat: failed to update profile", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (server *Server) HandleGetCurrentUser(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	account, err := server.store.GetAccount(claims.ID)
	if err != nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	response := gin.H{
		"user":    UserData{ID: account.ID, Username: account.Username, Email: account.Email},
		"profile": nil,
	}
	if profile, err := server.store.GetProfile(claims.ID); err == nil {
		response["profile"] = server.profileView(profile)
	}

	ctx.JSON(http.StatusOK, response)
}

func (server *Server) HandleGetUser(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	accountID, ok := paramID(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	profile, err := server.store.GetProfile(accountID)
	if err != nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	ctx.JSON(http.StatusOK, server.profileView(profile))
}

func (server *Server) HandleSearchUsers(ctx *gin.Context) {
	claims := server.identity(ctx)
	if claims == nil {
		ctx.JSON(http.StatusOK, []ProfileView{})
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))
	if query == "" {
		ctx.JSON(http.StatusOK, []ProfileView{})
		return
	}

	profiles, err := server.store.SearchProfiles(query, 10)
	if err != nil {
		server.logger.Error("GET /api/users: failed to search profiles", "error", err)
		ctx.JSON(http.StatusOK, []ProfileView{})
		return
	}

	views := make([]ProfileView, 0, len(profiles))
	for i := range profiles {
		views = append(views, server.profileView(&profiles[i]))
	}
	ctx.JSON(http.StatusOK, views)
}
