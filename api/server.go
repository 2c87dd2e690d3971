package api

import (
	"log/slog"
	"net/http"

	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/notify"
	"github.com/danglnh07/concord/service/pubsub"
	"github.com/danglnh07/concord/service/security"
	"github.com/danglnh07/concord/service/worker"
	"github.com/danglnh07/concord/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Uploader is the blob storage collaborator: one-time upload URLs in, asset
// URLs out. Implemented by storage.BlobStore.
type Uploader interface {
	GenerateUploadURL() (key, url string, err error)
	GetURL(key string) (string, error)
}

type Server struct {
	mux   *gin.Engine
	store db.Store

	limiter     *RateLimiter
	jwtService  *security.JWTService
	oauth       OAuth
	upgrader    *websocket.Upgrader
	distributor worker.TaskDistributor
	notifyHub   *notify.Hub
	eventHub    *pubsub.Hub
	blobs       Uploader

	config *util.Config
	logger *slog.Logger
}

func NewServer(
	store db.Store,
	config *util.Config,
	notifyHub *notify.Hub,
	eventHub *pubsub.Hub,
	distributor worker.TaskDistributor,
	blobs Uploader,
	logger *slog.Logger,
) *Server {
	// Create dependency
	jwtService := security.NewJWTService(config)
	oauth := NewGoogleAuth(store, distributor, jwtService, config, logger)

	return &Server{
		mux:   gin.Default(),
		store: store,

		limiter:    NewRateLimiter(config.MaxRequest, config.RefillRate),
		jwtService: jwtService,
		oauth:      oauth,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		distributor: distributor,
		notifyHub:   notifyHub,
		eventHub:    eventHub,
		blobs:       blobs,

		config: config,
		logger: logger,
	}
}

type ErrorResponse struct {
	Message string `json:"error"`
}

// Helper method to register handler to route.
//
// Queries go through the lenient Identify middleware and answer
// empty/null when there is no session; mutations go through the strict
// Authenticate middleware and fail with 401. UI polling must never crash on
// logout, but an action attempted while logged out must surface.
func (server *Server) RegisterHandler() {
	// Setup global middlewares
	server.mux.Use(server.CORSMiddlware(), server.RateLimitingMiddleware())

	api := server.mux.Group("/api")

	// Auth routes
	api.GET("/oauth", server.oauth.HandleOAuth)

	// Queries
	queries := api.Group("", server.Identify())
	{
		queries.GET("/me", server.HandleGetCurrentUser)
		queries.GET("/users", server.HandleSearchUsers)
		queries.GET("/users/:id", server.HandleGetUser)
		queries.GET("/conversations", server.HandleListConversations)
		queries.GET("/conversations/:id", server.HandleGetConversation)
		queries.GET("/conversations/:id/messages", server.HandleListMessages)
		queries.GET("/conversations/:id/typing", server.HandleListTyping)
		queries.GET("/conversations/:id/call", server.HandleGetActiveCall)
		queries.GET("/friends", server.HandleListFriends)
		queries.GET("/friends/requests", server.HandleListFriendRequests)
		queries.GET("/unread", server.HandleListUnread)
		queries.GET("/notifications", server.HandleListNotifications)
		queries.GET("/notifications/unread-count", server.HandleCountUnreadNotifications)
		queries.GET("/emojis", server.HandleListEmojis)
	}

	// Mutations
	mutations := api.Group("", server.Authenticate())
	{
		mutations.POST("/profiles", server.HandleCreateProfile)
		mutations.PATCH("/profiles/me", server.HandleUpdateProfile)
		mutations.POST("/profiles/heartbeat", server.HandleHeartbeat)

		mutations.POST("/conversations", server.HandleCreateConversation)
		mutations.POST("/conversations/:id/members", server.HandleAddMembers)
		mutations.POST("/conversations/:id/messages", server.HandleSendMessage)
		mutations.POST("/conversations/:id/typing", server.HandleSetTyping)
		mutations.POST("/conversations/:id/read", server.HandleMarkConversationRead)

		mutations.PATCH("/messages/:id", server.HandleEditMessage)
		mutations.DELETE("/messages/:id", server.HandleDeleteMessage)
		mutations.POST("/messages/:id/reactions", server.HandleToggleReaction)

		mutations.POST("/friends/requests", server.HandleSendFriendRequest)
		mutations.POST("/friends/requests/:id/respond", server.HandleRespondFriendRequest)

		mutations.POST("/conversations/:id/call/join", server.HandleJoinCall)
		mutations.POST("/conversations/:id/call/leave", server.HandleLeaveCall)
		mutations.PATCH("/conversations/:id/call", server.HandleUpdateCallSettings)

		mutations.PATCH("/notifications/:id", server.HandleMarkNotificationRead)
		mutations.POST("/notifications/read-all", server.HandleMarkAllNotificationsRead)
		mutations.GET("/notifications/stream", server.SSEHandler)

		mutations.POST("/uploads", server.HandleGenerateUploadURL)

		// Admin routes, fail-closed on role
		admin := mutations.Group("/admin", server.RequireAdmin())
		{
			admin.GET("/users", server.HandleGetAllUsers)
			admin.POST("/users/:id/ban", server.HandleBanUser)
			admin.POST("/users/:id/verify", server.HandleVerifyUser)
			admin.POST("/users/:id/badges", server.HandleAddBadge)
			admin.DELETE("/users/:id/badges/:name", server.HandleRemoveBadge)
			admin.POST("/emojis", server.HandleAddEmoji)
			admin.DELETE("/emojis/:name", server.HandleRemoveEmoji)
		}
	}

	// Websocket routes
	ws := server.mux.Group("/ws")
	{
		ws.GET("/events", server.Authenticate(), server.HandleWS)
	}

	// Callback URL for OAuth2
	server.mux.GET("/oauth2/callback", server.oauth.HandleCallback)
}

// Method to start the server
func (server *Server) Start() error {
	server.RegisterHandler()
	return server.mux.Run(":8080")
}
