package server

import (
	"log/slog"
	"net/http"

	"civicpulse/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	db             *gorm.DB
	cfg            config.Config
	log            *slog.Logger
	sweeper        *cron.Cron
	authLimiter    *rateLimiter
	voteLimiter    *rateLimiter
	generalLimiter *rateLimiter
}

func New(conn *gorm.DB, cfg config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		db:             conn,
		cfg:            cfg,
		log:            log,
		authLimiter:    newRateLimiter(cfg.AuthRequestsPerMinute),
		voteLimiter:    newRateLimiter(cfg.VoteRequestsPerMinute),
		generalLimiter: newRateLimiter(cfg.GeneralRequestsPerMinute),
	}
}

func (s *Server) Handler() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")

	authAPI := api.Group("/auth")
	{
		authAPI.POST("/register", s.rateLimit(s.authLimiter), s.handleRegister)
		authAPI.POST("/login", s.rateLimit(s.authLimiter), s.handleLogin)
		authAPI.GET("/profile", s.requireAuth(), s.handleGetProfile)
		authAPI.PUT("/profile", s.requireAuth(), s.handleUpdateProfile)
	}

	polls := api.Group("/polls", s.rateLimit(s.generalLimiter))
	{
		polls.GET("", s.optionalAuth(), s.handleListPolls)
		polls.POST("/vote", s.requireAuth(), s.rateLimit(s.voteLimiter), s.handleCastVote)
		polls.GET("/:id", s.optionalAuth(), s.handleGetPoll)
		polls.GET("/:id/results", s.optionalAuth(), s.handleGetPollResults)
		polls.POST("", s.requireAuth(), s.requireAdmin(), s.handleCreatePoll)
		polls.PATCH("/:id/status", s.requireAuth(), s.requireAdmin(), s.handleUpdatePollStatus)
		polls.DELETE("/:id", s.requireAuth(), s.requireAdmin(), s.handleDeletePoll)
	}

	candidates := api.Group("/candidates", s.rateLimit(s.generalLimiter))
	{
		candidates.GET("", s.handleListCandidates)
		candidates.GET("/:id", s.handleGetCandidate)
		candidates.POST("", s.requireAuth(), s.requireAdmin(), s.handleCreateCandidate)
		candidates.PUT("/:id", s.requireAuth(), s.requireAdmin(), s.handleUpdateCandidate)
		candidates.DELETE("/:id", s.requireAuth(), s.requireAdmin(), s.handleDeleteCandidate)
	}

	issues := api.Group("/issues", s.rateLimit(s.generalLimiter))
	{
		issues.GET("/categories", s.handleListCategories)
		issues.GET("", s.requireAuth(), s.handleListIssues)
		issues.GET("/:id", s.requireAuth(), s.handleGetIssue)
		issues.POST("", s.requireAuth(), s.handleCreateIssue)
		issues.POST("/:id/upvote", s.requireAuth(), s.handleToggleUpvote)
		issues.GET("/:id/comments", s.requireAuth(), s.handleListComments)
		issues.POST("/:id/comments", s.requireAuth(), s.handleAddComment)
		issues.POST("/:id/view", s.requireAuth(), s.handleIncrementView)
	}

	admin := api.Group("/admin", s.rateLimit(s.generalLimiter), s.requireAuth(), s.requireAdmin())
	{
		admin.GET("/stats", s.handleAdminStats)
		admin.GET("/stats/issues", s.handleAdminIssueStats)
		admin.GET("/issues", s.handleAdminListIssues)
		admin.GET("/issues/:id", s.handleAdminGetIssue)
		admin.PUT("/issues/:id/status", s.handleAdminUpdateIssueStatus)
		admin.PUT("/issues/:id/response", s.handleAdminAddResponse)
		admin.PUT("/issues/:id/priority", s.handleAdminUpdateIssuePriority)
		admin.GET("/users", s.handleAdminListUsers)
		admin.PUT("/users/:id/role", s.requireSuperAdmin(), s.handleAdminUpdateUserRole)
	}

	reference := api.Group("/reference", s.rateLimit(s.generalLimiter))
	{
		reference.GET("/positions", s.handleListPositions)
		reference.GET("/parties", s.handleListParties)
		reference.GET("/locations", s.handleListLocations)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "path": c.Request.URL.Path})
	})

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondServerError hides the raw store error from clients and logs it
// server-side with the request id.
func (s *Server) respondServerError(c *gin.Context, message string, err error) {
	s.log.Error(message, slog.String("request_id", requestIDFrom(c)), slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
