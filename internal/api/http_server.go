package api

import (
	"strings"
	"time"

	"orgdir/internal/auth"
	"orgdir/internal/config"
	"orgdir/internal/model"
	"orgdir/internal/service"
	"orgdir/internal/storage"
)

// HTTPHandler carries the dependencies of the HTTP surface.
type HTTPHandler struct {
	cfg              config.Config
	repo             model.Repository
	users            *service.UserService
	avatars          storage.AvatarStore
	avatarPublicBase string
	authManager      *auth.Manager
}

// NewHTTPHandler wires the handler with its collaborators.
func NewHTTPHandler(cfg config.Config, repo model.Repository, avatars storage.AvatarStore) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	return &HTTPHandler{
		cfg:              cfg,
		repo:             repo,
		users:            service.NewUserService(repo),
		avatars:          avatars,
		avatarPublicBase: normalisePublicBase(cfg.AvatarPublicBaseURL),
		authManager:      authManager,
	}, nil
}

// publicAvatarURL turns a storage key into the reference persisted on the
// user record. The base is either a serving path for local storage or a
// CDN/bucket URL for object storage.
func (h *HTTPHandler) publicAvatarURL(key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return h.avatarPublicBase + "/" + strings.TrimLeft(key, "/")
}

func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/avatars"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}
