package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"orgdir/internal/api"
	"orgdir/internal/config"
	"orgdir/internal/model"
	"orgdir/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	avatarStore, err := storage.NewAvatarStore(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise avatar storage")
		return
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, avatarStore)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/login", httpHandler.Login)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)

	// Creation carries no principal; everything else resolves one.
	apiGroup.POST("/users", httpHandler.CreateUser)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())

	protected.GET("/users", httpHandler.ListUsers)
	protected.GET("/users/:id", httpHandler.GetUser)
	protected.PATCH("/users/:id", httpHandler.UpdateUser)
	protected.DELETE("/users/:id", httpHandler.DeleteUser)
	protected.PATCH("/users/:id/status", httpHandler.ChangeUserStatus)
	protected.PATCH("/users/:id/role", httpHandler.ChangeUserRole)

	protected.GET("/teams/:teamId/members", httpHandler.ListTeamMembers)
	protected.GET("/managers/:managerId/subordinates", httpHandler.ListSubordinates)

	protected.GET("/profile/me", httpHandler.Me)
	protected.PATCH("/profile/me", httpHandler.UpdateMyProfile)
	protected.POST("/profile/me/avatar", httpHandler.UploadMyAvatar)

	if localProvider, ok := avatarStore.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.AvatarPublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/avatars"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("server starting")
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("server failed to start")
	}
}

// CORSMiddleware handles cross-origin requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware records one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
