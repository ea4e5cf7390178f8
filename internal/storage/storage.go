// Package storage keeps uploaded media in a public or private container,
// on local disk or in Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrInvalidObject   = errors.New("storage: invalid object")
	ErrInvalidLocation = errors.New("storage: invalid location")
	ErrNotFound        = errors.New("storage: object not found")
)

type ContainerType string

const (
	ContainerPublic  ContainerType = "public"
	ContainerPrivate ContainerType = "private"
)

func (c ContainerType) String() string {
	switch c {
	case ContainerPublic, ContainerPrivate:
		return string(c)
	default:
		return "unknown"
	}
}

func (c ContainerType) IsValid() bool {
	return c == ContainerPublic || c == ContainerPrivate
}

// Object is an upload. Key is a slash-separated path inside the container.
type Object struct {
	Key         string
	Container   ContainerType
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Location is where an object lives. URL is what clients fetch it from.
type Location struct {
	Container ContainerType
	Path      string
	URL       string
}

type DownloadResult struct {
	Reader      io.ReadCloser
	ContentType string
	Size        int64
}

type Storage interface {
	Upload(ctx context.Context, obj *Object) (*Location, error)
	// Download returns ErrNotFound when nothing is stored at loc.
	Download(ctx context.Context, loc *Location) (*DownloadResult, error)
	Delete(ctx context.Context, loc *Location) error
}

func ValidateObject(obj *Object) error {
	if obj == nil || obj.Reader == nil {
		return fmt.Errorf("%w: missing data stream", ErrInvalidObject)
	}
	if !obj.Container.IsValid() {
		return fmt.Errorf("%w: invalid container %q", ErrInvalidObject, obj.Container)
	}
	if _, err := CleanKey(obj.Key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidObject, err)
	}
	return nil
}

func ValidateLocation(loc *Location) error {
	if loc == nil {
		return ErrInvalidLocation
	}
	if !loc.Container.IsValid() {
		return fmt.Errorf("%w: invalid container %q", ErrInvalidLocation, loc.Container)
	}
	if _, err := CleanKey(loc.Path); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return nil
}

// CleanKey normalizes a slash path and rejects empty keys and any key that
// escapes its container.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "" || key == "" {
		return "", errors.New("missing object key")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", errors.New("path traversal detected")
		}
	}
	return clean, nil
}
