package imagestore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a stored image cannot be resolved.
var ErrNotFound = errors.New("image_not_found")

var dataURIPrefixRe = regexp.MustCompile(`^data:image/(png|jpg|jpeg|gif);base64,`)

// Config configures the on-disk image store.
type Config struct {
	Dir     string
	BaseURL string
}

// Store persists submitted meter images on local disk and builds the
// public URLs they are served from.
type Store struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("image dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Store{cfg: cfg, log: log.Named("imagestore")}, nil
}

// Save decodes a base64 image payload and writes it as <id>.<ext>,
// returning the stored file name.
func (s *Store) Save(id string, imageBase64 string) (string, error) {
	ext := "png"
	if m := dataURIPrefixRe.FindStringSubmatch(imageBase64); m != nil {
		ext = m[1]
	}

	payload := dataURIPrefixRe.ReplaceAllString(imageBase64, "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	name := id + "." + ext
	if err := os.WriteFile(filepath.Join(s.cfg.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	s.log.Debug("image stored", zap.String("file", name), zap.Int("bytes", len(data)))
	return name, nil
}

// URL builds the public URL a stored file is served from.
func (s *Store) URL(name string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/image/" + name
}

// Path resolves a stored file name to its on-disk path.
func (s *Store) Path(name string) (string, error) {
	// The name comes from a URL segment; never let it escape the store dir.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound
	}
	path := filepath.Join(s.cfg.Dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// Remove deletes a stored file, ignoring files that are already gone.
func (s *Store) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return os.Remove(path)
}
