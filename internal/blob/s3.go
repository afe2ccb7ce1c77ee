package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the external object store backend. Endpoint and
// UsePathStyle support S3-compatible stores such as MinIO.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

var _ Store = (*S3Store)(nil)

// S3Store is the external backend: blobs live under
// <prefix>/<docID>/<key> in a single bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	} else {
		opts = append(opts, awsconfig.WithRegion("us-east-1"))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3Store) Kind() Kind {
	return External
}

func (s *S3Store) objectKey(docID, key string) string {
	if s.prefix == "" {
		return docID + "/" + key
	}
	return s.prefix + "/" + docID + "/" + key
}

func (s *S3Store) List(ctx context.Context, docID string) ([]Info, error) {
	prefix := s.objectKey(docID, "")

	var infos []Info
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			infos = append(infos, Info{
				Key:  strings.TrimPrefix(aws.ToString(obj.Key), prefix),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	return infos, nil
}

func (s *S3Store) Read(ctx context.Context, docID, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(docID, key)),
	})
	if isNotFound(err) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("s3: read %s/%s: %w", docID, key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Write(ctx context.Context, docID, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(docID, key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("s3: write %s/%s: %w", docID, key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, docID, key string) error {
	// DeleteObject on an absent key succeeds, matching the idempotent
	// delete contract.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(docID, key)),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s/%s: %w", docID, key, err)
	}
	return nil
}

func (s *S3Store) Stat(ctx context.Context, docID, key string) (Info, bool, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(docID, key)),
	})
	if isNotFound(err) {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, fmt.Errorf("s3: stat %s/%s: %w", docID, key, err)
	}
	return Info{Key: key, Size: aws.ToInt64(out.ContentLength)}, true, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
