package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/gophdrop/internal/pathx"
)

// S3Config holds the settings of an S3-compatible backend (AWS, MinIO).
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	KeyPrefix string
}

// objectAPI is the part of *s3.Client used here.
type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// S3Storage stores each finished file as one object keyed by its folder
// and name.
type S3Storage struct {
	client objectAPI
	bucket string
	prefix string
}

func NewS3Storage(ctx context.Context, c S3Config) (*S3Storage, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, bucket: c.Bucket, prefix: strings.Trim(c.KeyPrefix, "/")}, nil
}

func (s *S3Storage) objectKey(folder, name string) string {
	key := strings.TrimPrefix(path.Join(pathx.Clean(folder), name), "/")
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func (s *S3Storage) Store(ctx context.Context, folder, filename string, r io.Reader, overwrite bool) (bool, error) {
	name, err := cleanFilename(filename)
	if err != nil {
		return false, err
	}
	key := s.objectKey(folder, name)

	if !overwrite {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		if err == nil {
			return false, nil
		}
		if !isNotFound(err) {
			return false, fmt.Errorf("head %s: %w", key, err)
		}
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("application/octet-stream"),
	}
	if size, ok := streamSize(r); ok {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return false, fmt.Errorf("put %s: %w", key, err)
	}
	return true, nil
}

// streamSize reports the remaining length of a seekable stream.
func streamSize(r io.Reader) (int64, bool) {
	seeker, ok := r.(io.Seeker)
	if !ok {
		return 0, false
	}
	cur, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false
	}
	if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
		return 0, false
	}
	return end - cur, true
}
