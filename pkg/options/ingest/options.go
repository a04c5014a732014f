// Package ingest provides options for the document ingestion pipeline.
package ingest

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kart-io/paperqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Source kinds.
const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

// S3Options configures an S3 compatible bucket.
type S3Options struct {
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	Prefix    string `json:"prefix" mapstructure:"prefix"`
	AccessKey string `json:"-" mapstructure:"access-key"`
	SecretKey string `json:"-" mapstructure:"secret-key"`
	Region    string `json:"region" mapstructure:"region"`
	UseSSL    bool   `json:"use-ssl" mapstructure:"use-ssl"`
}

// Options 文档入库配置。
type Options struct {
	// Source 文档来源（local|s3）。
	Source string `json:"source" mapstructure:"source"`
	// Dir 本地文档目录。
	Dir string     `json:"dir" mapstructure:"dir"`
	S3  *S3Options `json:"s3" mapstructure:"s3"`

	// Workers 并发处理的文件数。
	Workers      int `json:"workers" mapstructure:"workers"`
	ChunkSize    int `json:"chunk-size" mapstructure:"chunk-size"`
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`
	// BatchSize 单次 embedding 请求的文本数量。
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`
}

// NewOptions 创建默认配置。
func NewOptions() *Options {
	return &Options{
		Source:       SourceLocal,
		Dir:          "./data",
		S3:           &S3Options{Region: "us-east-1", UseSSL: true},
		Workers:      4,
		ChunkSize:    1000,
		ChunkOverlap: 200,
		BatchSize:    32,
	}
}

// AddFlags adds flags for ingest options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "ingest."
	fs.StringVar(&o.Source, p+"source", o.Source, "Document source (local|s3).")
	fs.StringVar(&o.Dir, p+"dir", o.Dir, "Local directory with .pdf, .txt and .md files.")
	fs.StringVar(&o.S3.Endpoint, p+"s3.endpoint", o.S3.Endpoint, "S3 endpoint (host:port).")
	fs.StringVar(&o.S3.Bucket, p+"s3.bucket", o.S3.Bucket, "S3 bucket.")
	fs.StringVar(&o.S3.Prefix, p+"s3.prefix", o.S3.Prefix, "S3 object key prefix.")
	fs.StringVar(&o.S3.AccessKey, p+"s3.access-key", o.S3.AccessKey, "S3 access key (prefer AWS_ACCESS_KEY_ID env var).")
	fs.StringVar(&o.S3.SecretKey, p+"s3.secret-key", o.S3.SecretKey, "S3 secret key (prefer AWS_SECRET_ACCESS_KEY env var).")
	fs.StringVar(&o.S3.Region, p+"s3.region", o.S3.Region, "S3 region.")
	fs.BoolVar(&o.S3.UseSSL, p+"s3.use-ssl", o.S3.UseSSL, "Use TLS for S3.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Number of files processed concurrently.")
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Chunk size in characters.")
	fs.IntVar(&o.ChunkOverlap, p+"chunk-overlap", o.ChunkOverlap, "Overlap between chunks in characters.")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Texts per embedding request.")
}

// Complete reads S3 credentials from the standard AWS variables.
func (o *Options) Complete() error {
	if o.S3.AccessKey == "" {
		o.S3.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if o.S3.SecretKey == "" {
		o.S3.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	return nil
}

// Validate validates the ingest options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Source {
	case SourceLocal:
		if o.Dir == "" {
			errs = append(errs, fmt.Errorf("ingest.dir is required for the local source"))
		}
	case SourceS3:
		if o.S3.Endpoint == "" || o.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("ingest.s3 endpoint and bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported ingest source %q", o.Source))
	}
	if o.Workers <= 0 || o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest workers and batch-size must be positive"))
	}
	if o.ChunkSize <= 0 || o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest chunk-overlap must be within [0, chunk-size)"))
	}
	return errs
}
