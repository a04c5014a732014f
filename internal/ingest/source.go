// Package ingest loads article files into the vector store and records each
// file in the ingestion ledger.
package ingest

import (
	"context"
	"path"
	"strings"
)

// Supported file extensions.
var supportedExts = []string{".pdf", ".txt", ".md"}

// Object is one file offered by a Source.
type Object struct {
	// Key is the path or object key, relative keys are fine.
	Key  string
	Size int64
}

// ArticleID derives the article id from the file base name without extension.
func (o Object) ArticleID() string {
	base := path.Base(strings.ReplaceAll(o.Key, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Source lists and fetches article files.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Object, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

func supported(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	for _, e := range supportedExts {
		if e == ext {
			return true
		}
	}
	return false
}
