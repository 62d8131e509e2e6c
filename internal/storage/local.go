package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalAvatarStore keeps avatars on the local filesystem.
type LocalAvatarStore struct {
	baseDir string
}

// NewLocalAvatarStore creates the store, making the directory if needed.
func NewLocalAvatarStore(baseDir string) (*LocalAvatarStore, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "datas/avatars"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &LocalAvatarStore{baseDir: baseDir}, nil
}

// LocalBaseDir returns the root directory used for storing avatars.
func (s *LocalAvatarStore) LocalBaseDir() string {
	return s.baseDir
}

// SaveAvatar writes the image to disk and returns a relative reference that
// can be served under the public avatar base URL.
func (s *LocalAvatarStore) SaveAvatar(ctx context.Context, ownerID string, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty avatar payload")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	relativePath := avatarKey(ownerID, ext)

	absPath := filepath.Join(s.baseDir, filepath.FromSlash(relativePath))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}

	return relativePath, nil
}

var _ AvatarStore = (*LocalAvatarStore)(nil)
var _ LocalBaseDirProvider = (*LocalAvatarStore)(nil)
