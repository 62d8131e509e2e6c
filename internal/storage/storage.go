// Package storage persists avatar images for directory accounts. Backends
// return an opaque reference (a relative path or object key) that the service
// stores in the user's avatar field.
package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"orgdir/internal/config"
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeOSS   = "oss"
	TypeCOS   = "cos"
)

// AvatarStore saves an avatar image owned by a user and returns its reference.
type AvatarStore interface {
	SaveAvatar(ctx context.Context, ownerID string, data []byte, ext string) (string, error)
}

// LocalBaseDirProvider is implemented by stores whose files can be served
// directly over HTTP from a local directory.
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewAvatarStore instantiates the configured backend.
func NewAvatarStore(cfg config.Config) (AvatarStore, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.AvatarStoreType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalAvatarStore(cfg.AvatarLocalDir)
	case TypeS3:
		return NewS3AvatarStore(cfg)
	case TypeOSS:
		return NewOSSAvatarStore(cfg)
	case TypeCOS:
		return NewCOSAvatarStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported avatar store type: %s", cfg.AvatarStoreType)
	}
}

var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// normalizeImageExtension lowercases the extension and falls back to png for
// anything outside the accepted image formats.
func normalizeImageExtension(ext string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if imageExtensions[trimmed] {
		return trimmed
	}
	return "png"
}

// avatarKey builds the object key for an owner's avatar. A timestamp suffix
// keeps stale CDN/browser caches from serving the previous image.
func avatarKey(ownerID, ext string) string {
	owner := sanitizeKeySegment(ownerID)
	if owner == "" {
		owner = "unknown"
	}
	return path.Join("avatars", fmt.Sprintf("%s_%d.%s", owner, time.Now().UTC().UnixNano(), normalizeImageExtension(ext)))
}

func sanitizeKeySegment(value string) string {
	value = strings.TrimSpace(value)
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + 32)
		case ch == '-', ch == '_':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func imageContentType(ext string) string {
	typeName := mime.TypeByExtension("." + normalizeImageExtension(ext))
	if typeName == "" {
		return "application/octet-stream"
	}
	return typeName
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(strings.TrimSpace(prefix), "/")
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	return path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
}
