package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// LocalStorage keeps objects under basePath, fanned out into two-character
// directories so no single directory grows unbounded.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) pathFor(key string) string {
	if len(key) < 2 {
		return filepath.Join(ls.basePath, key)
	}
	return filepath.Join(ls.basePath, key[:2], key)
}

func (ls *LocalStorage) Save(_ context.Context, key string, data io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	filePath := ls.pathFor(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filePath)
}

// Get opens the object. The content type is sniffed from its first bytes
// because the local backend keeps no metadata.
func (ls *LocalStorage) Get(_ context.Context, key string) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	file, err := os.Open(ls.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", key, ErrObjectNotFound)
		}
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	br := bufio.NewReader(file)
	head, _ := br.Peek(512)

	return &Object{
		Body:        readCloser{Reader: br, Closer: file},
		ContentType: http.DetectContentType(head),
		Size:        info.Size(),
	}, nil
}

func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := os.Remove(ls.pathFor(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

type readCloser struct {
	io.Reader
	io.Closer
}
