package ingest

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	ingestopts "github.com/kart-io/paperqa/pkg/options/ingest"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// S3Source reads files from an S3 compatible bucket.
type S3Source struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Source creates a minio client for opts. No request is made until List.
func NewS3Source(opts *ingestopts.S3Options) (*S3Source, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Source{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.prefix }

func (s *S3Source) List(ctx context.Context) ([]Object, error) {
	var objs []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, errno.ErrIngestSource.WithCause(info.Err)
		}
		if !supported(info.Key) {
			continue
		}
		objs = append(objs, Object{Key: info.Key, Size: info.Size})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errno.ErrIngestSource.WithCause(err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, errno.ErrIngestSource.WithCause(err)
	}
	return b, nil
}
