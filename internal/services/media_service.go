package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/storage"
)

const msgMediaNotFound = "File not found"

// mediaTypes covers what the admin UI uploads; mime.TypeByExtension is the
// fallback for anything else.
var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".txt":  "text/plain",
}

type MediaUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type MediaResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// MediaService stores admin uploads (skill icons, topic images) in the
// public container.
type MediaService struct {
	storage storage.Storage
	maxSize int64
}

func NewMediaService(st storage.Storage, maxSize int64) *MediaService {
	return &MediaService{storage: st, maxSize: maxSize}
}

func (s *MediaService) Upload(ctx context.Context, in MediaUpload) (*MediaResult, error) {
	if in.Reader == nil {
		return nil, invalid("File is required")
	}
	if s.maxSize > 0 && in.Size > s.maxSize {
		return nil, invalid(fmt.Sprintf("File is too large (max %d MB)", s.maxSize>>20))
	}
	name := mediaFileName(in.FileName)
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = DetectContentType(name)
	}

	loc, err := s.storage.Upload(ctx, &storage.Object{
		Key:         uuid.NewString() + "-" + name,
		Container:   storage.ContainerPublic,
		ContentType: contentType,
		Size:        in.Size,
		Reader:      in.Reader,
	})
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	return &MediaResult{URL: loc.URL, Path: loc.Path}, nil
}

// Open streams a public object. The caller closes the reader.
func (s *MediaService) Open(ctx context.Context, rawPath string) (*storage.DownloadResult, error) {
	key, err := storage.CleanKey(rawPath)
	if err != nil {
		return nil, notFound(msgMediaNotFound)
	}
	res, err := s.storage.Download(ctx, &storage.Location{Container: storage.ContainerPublic, Path: key})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound(msgMediaNotFound)
		}
		return nil, fmt.Errorf("download media: %w", err)
	}
	if res.ContentType == "" {
		res.ContentType = DetectContentType(key)
	}
	return res, nil
}

// Delete removes a public object. Deleting a missing object succeeds.
func (s *MediaService) Delete(ctx context.Context, rawPath string) error {
	key, err := storage.CleanKey(rawPath)
	if err != nil {
		return notFound(msgMediaNotFound)
	}
	if err := s.storage.Delete(ctx, &storage.Location{Container: storage.ContainerPublic, Path: key}); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

// DetectContentType guesses a MIME type from the file extension.
func DetectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// mediaFileName keeps the base name, with spaces and odd characters replaced
// so the key is URL safe.
func mediaFileName(raw string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(raw, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
