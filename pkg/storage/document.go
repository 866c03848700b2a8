package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// VerificationBucket groups institute sign-up documents.
const VerificationBucket = "institute-verification-documents"

var whitespace = regexp.MustCompile(`\s+`)

// StoredDocument points at an uploaded object.
type StoredDocument struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// DocumentStore persists uploaded documents and hands out links to them.
type DocumentStore interface {
	Put(ctx context.Context, name string, r io.Reader) (*StoredDocument, error)
	Link(ctx context.Context, doc StoredDocument) (string, time.Time, error)
	Remove(ctx context.Context, doc StoredDocument) error
}

// ObjectName builds the stored file name: upload time in unix milliseconds,
// a dash, then the original base name with whitespace runs replaced by underscores.
func ObjectName(now time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = "document"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), whitespace.ReplaceAllString(base, "_"))
}
