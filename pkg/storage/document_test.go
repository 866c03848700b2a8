package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	assert.Equal(t, "1718000000123-Registration_Certificate.pdf", ObjectName(now, "Registration  Certificate.pdf"))
	assert.Equal(t, "1718000000123-scan_1.png", ObjectName(now, "C:\\Users\\admin\\scan 1.png"))
	assert.Equal(t, "1718000000123-passwd", ObjectName(now, "../../etc/passwd"))
}

func TestLocalStoragePutAndLink(t *testing.T) {
	dir := t.TempDir()
	signer := NewSignedURLSigner("secret", time.Hour)
	store, err := NewLocalStorage(dir, VerificationBucket, "http://localhost:8080/files/", signer)
	require.NoError(t, err)

	doc, err := store.Put(context.Background(), "1718000000123-license.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "institute-verification-documents/1718000000123-license.pdf", doc.Key)
	assert.Equal(t, "http://localhost:8080/files/institute-verification-documents/1718000000123-license.pdf", doc.URL)

	link, expiresAt, err := store.Link(context.Background(), *doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/files/"))
	assert.True(t, expiresAt.After(time.Now()))

	key, err := store.Verify(strings.TrimPrefix(link, "http://localhost:8080/files/"))
	require.NoError(t, err)
	assert.Equal(t, doc.Key, key)

	file, err := store.Open(key)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "", "", nil)
	require.NoError(t, err)
	_, err = store.Open("../secret")
	assert.Error(t, err)
}

type fakeUploader struct {
	params        uploader.UploadParams
	result        *uploader.UploadResult
	err           error
	destroyed     []string
	destroyResult string
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = params
	return f.result, f.err
}

func (f *fakeUploader) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	return &uploader.DestroyResult{Result: f.destroyResult}, nil
}

func TestCloudinaryStoragePut(t *testing.T) {
	up := &fakeUploader{result: &uploader.UploadResult{
		PublicID:  "institute-verification-documents/1718000000123-license",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/institute-verification-documents/1718000000123-license.pdf",
	}}
	store := &CloudinaryStorage{upload: up, folder: VerificationBucket}

	doc, err := store.Put(context.Background(), "1718000000123-license.pdf", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, VerificationBucket, up.params.Folder)
	assert.Equal(t, "1718000000123-license", up.params.PublicID)
	assert.Equal(t, up.result.SecureURL, doc.URL)

	link, _, err := store.Link(context.Background(), *doc)
	require.NoError(t, err)
	assert.Equal(t, doc.URL, link)
}

func TestCloudinaryStoragePutWithoutPublicID(t *testing.T) {
	store := &CloudinaryStorage{upload: &fakeUploader{result: &uploader.UploadResult{}}, folder: VerificationBucket}
	_, err := store.Put(context.Background(), "a.pdf", strings.NewReader("data"))
	assert.Error(t, err)
}

func TestCloudinaryStorageRemove(t *testing.T) {
	up := &fakeUploader{destroyResult: "ok"}
	store := &CloudinaryStorage{upload: up, folder: VerificationBucket}

	require.NoError(t, store.Remove(context.Background(), StoredDocument{Key: "institute-verification-documents/1-a"}))
	assert.Equal(t, []string{"institute-verification-documents/1-a"}, up.destroyed)

	up.destroyResult = "error"
	assert.Error(t, store.Remove(context.Background(), StoredDocument{Key: "x"}))
}

func TestLocalStorageRemove(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "", "", nil)
	require.NoError(t, err)
	doc, err := store.Put(context.Background(), "1-a.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(context.Background(), *doc))
	_, err = store.Open(doc.Key)
	assert.Error(t, err)
	assert.NoError(t, store.Remove(context.Background(), *doc))
}
