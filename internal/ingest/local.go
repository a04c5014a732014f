package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// LocalSource walks a directory for supported files.
type LocalSource struct {
	dir string
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

func (s *LocalSource) Name() string { return "local:" + s.dir }

// List returns supported files under dir, sorted by key.
func (s *LocalSource) List(ctx context.Context) ([]Object, error) {
	var objs []Object
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !supported(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objs = append(objs, Object{Key: p, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, errno.ErrIngestSource.WithCause(err)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (s *LocalSource) Fetch(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(key)
	if err != nil {
		return nil, errno.ErrIngestSource.WithCause(err)
	}
	return b, nil
}
