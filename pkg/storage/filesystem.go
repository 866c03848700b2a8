package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage persists documents on disk under a base directory.
type LocalStorage struct {
	baseDir       string
	bucket        string
	publicBaseURL string
	signer        *SignedURLSigner
}

// NewLocalStorage ensures the bucket directory exists and returns a handle.
// Links are signed download URLs rooted at publicBaseURL.
func NewLocalStorage(baseDir, bucket, publicBaseURL string, signer *SignedURLSigner) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if bucket == "" {
		bucket = VerificationBucket
	}
	if err := os.MkdirAll(filepath.Join(baseDir, bucket), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{
		baseDir:       baseDir,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		signer:        signer,
	}, nil
}

// Put streams r into <bucket>/<name>.
func (s *LocalStorage) Put(_ context.Context, name string, r io.Reader) (*StoredDocument, error) {
	key := path.Join(s.bucket, filepath.Base(name))
	if _, err := s.SaveStream(key, r); err != nil {
		return nil, err
	}
	return &StoredDocument{Key: key, URL: s.publicBaseURL + "/" + key}, nil
}

// Link returns a time limited download URL for a stored document.
func (s *LocalStorage) Link(_ context.Context, doc StoredDocument) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, fmt.Errorf("local storage has no url signer")
	}
	token, expiresAt, err := s.signer.Generate(s.bucket, doc.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign document link: %w", err)
	}
	return s.publicBaseURL + "/" + token, expiresAt, nil
}

// SaveStream copies from reader into the target file path.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (string, error) {
	target, err := s.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create stored file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}
	return filename, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	target, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Remove deletes the document's file. A missing file is not an error.
func (s *LocalStorage) Remove(_ context.Context, doc StoredDocument) error {
	return s.Delete(doc.Key)
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	target, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// Verify checks a signed token and returns the key it grants access to.
func (s *LocalStorage) Verify(token string) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("local storage has no url signer")
	}
	parsed, err := s.signer.Verify(token)
	if err != nil {
		return "", err
	}
	if parsed.Scope != s.bucket {
		return "", ErrInvalidToken
	}
	return parsed.Key, nil
}

func (s *LocalStorage) resolve(filename string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(filename))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", filename)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
