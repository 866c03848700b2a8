package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStorage uploads documents to a Cloudinary folder.
type CloudinaryStorage struct {
	upload uploadAPI
	folder string
}

// NewCloudinaryStorage builds a store from account credentials.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	if folder == "" {
		folder = VerificationBucket
	}
	return &CloudinaryStorage{upload: &cld.Upload, folder: folder}, nil
}

// Put uploads r under the folder using the name without its extension as public id.
func (s *CloudinaryStorage) Put(ctx context.Context, name string, r io.Reader) (*StoredDocument, error) {
	publicID := strings.TrimSuffix(name, filepath.Ext(name))
	result, err := s.upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       publicID,
		ResourceType:   "auto",
		UniqueFilename: api.Bool(false),
		Overwrite:      api.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	if result == nil || result.PublicID == "" {
		return nil, fmt.Errorf("upload document: no public id returned")
	}
	return &StoredDocument{Key: result.PublicID, URL: result.SecureURL}, nil
}

// Remove destroys the uploaded asset.
func (s *CloudinaryStorage) Remove(ctx context.Context, doc StoredDocument) error {
	result, err := s.upload.Destroy(ctx, uploader.DestroyParams{PublicID: doc.Key, Invalidate: api.Bool(true)})
	if err != nil {
		return fmt.Errorf("destroy document %s: %w", doc.Key, err)
	}
	if result != nil && result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("destroy document %s: %s", doc.Key, result.Result)
	}
	return nil
}

// Link returns the stored secure URL; Cloudinary delivery URLs do not expire.
func (s *CloudinaryStorage) Link(_ context.Context, doc StoredDocument) (string, time.Time, error) {
	if doc.URL == "" {
		return "", time.Time{}, fmt.Errorf("document %s has no delivery url", doc.Key)
	}
	return doc.URL, time.Time{}, nil
}
