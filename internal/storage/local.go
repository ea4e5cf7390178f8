package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects under basePath/<container>/<key>. Public
// objects are served by the API itself below publicURL.
type LocalStorage struct {
	basePath  string
	publicURL string
}

func NewLocalStorage(basePath, publicURL string) *LocalStorage {
	return &LocalStorage{basePath: basePath, publicURL: strings.TrimSuffix(publicURL, "/")}
}

func (s *LocalStorage) Upload(ctx context.Context, obj *Object) (*Location, error) {
	if err := ValidateObject(obj); err != nil {
		return nil, err
	}
	key, _ := CleanKey(obj.Key)
	fullPath := s.fullPath(obj.Container, key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("local storage: mkdir failed: %w", err)
	}
	out, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("local storage: create file failed: %w", err)
	}
	if _, err := io.Copy(out, readerWithContext(ctx, obj.Reader)); err != nil {
		out.Close()
		os.Remove(fullPath)
		return nil, fmt.Errorf("local storage: write failed: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("local storage: close failed: %w", err)
	}

	loc := &Location{Container: obj.Container, Path: key}
	if obj.Container == ContainerPublic {
		loc.URL = s.publicURL + "/" + key
	}
	return loc, nil
}

func (s *LocalStorage) Download(ctx context.Context, loc *Location) (*DownloadResult, error) {
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}
	key, _ := CleanKey(loc.Path)
	handle, err := os.Open(s.fullPath(loc.Container, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("local storage: open failed: %w", err)
	}
	info, err := handle.Stat()
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("local storage: stat failed: %w", err)
	}
	if info.IsDir() {
		handle.Close()
		return nil, ErrNotFound
	}
	return &DownloadResult{
		Reader:      handle,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(path.Ext(key)),
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, loc *Location) error {
	if err := ValidateLocation(loc); err != nil {
		return err
	}
	key, _ := CleanKey(loc.Path)
	if err := os.Remove(s.fullPath(loc.Container, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local storage: delete failed: %w", err)
	}
	return nil
}

func (s *LocalStorage) fullPath(c ContainerType, key string) string {
	return filepath.Join(s.basePath, c.String(), filepath.FromSlash(key))
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
