package aws

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

const (
	// defaultS3Region is used when the target does not name one.
	defaultS3Region = "us-east-1"

	// maxS3Keys is the maximum amount of keys to be returned by a single S3
	// list objects API response
	maxS3Keys = 200
)

// S3Config selects an S3 compatible endpoint.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// ForcePathStyle is required by most self hosted object stores.
	ForcePathStyle bool
	DisableSSL     bool
}

// S3Store implements boundary.ObjectStore on top of the AWS SDK.
type S3Store struct {
	s3API s3iface.S3API
}

var _ boundary.ObjectStore = (*S3Store)(nil)

// NewS3Store creates a store for cfg. Static credentials are used when given,
// otherwise the SDK's default chain (environment, shared config) applies.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	awsConfig := aws.NewConfig().
		WithRegion(region).
		WithS3ForcePathStyle(cfg.ForcePathStyle).
		WithDisableSSL(cfg.DisableSSL)
	if cfg.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, boundary.Config("create s3 session", err)
	}
	return NewS3StoreFromAPI(s3.New(awsSession)), nil
}

// NewS3StoreFromAPI wraps an existing client.
func NewS3StoreFromAPI(api s3iface.S3API) *S3Store {
	return &S3Store{s3API: api}
}

func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.s3API.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return classify("put s3://"+bucket+"/"+key, err)
}

// ListKeys returns every key under prefix.
func (s *S3Store) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	pageFn := func(out *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range out.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	}
	err := s.s3API.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(maxS3Keys),
	}, pageFn)
	if err != nil {
		return nil, classify("list s3://"+bucket+"/"+prefix, err)
	}
	return keys, nil
}

func (s *S3Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.s3API.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return classify("delete s3://"+bucket+"/"+key, err)
}

func (s *S3Store) HeadBucket(ctx context.Context, bucket string) error {
	_, err := s.s3API.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	return classify("head s3://"+bucket, err)
}

// classify maps SDK failures onto boundary error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return boundary.Inconclusive(op, err)
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return boundary.Classify(op, err)
	}
	if aerr.Code() == request.CanceledErrorCode {
		return boundary.Inconclusive(op, err)
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.StatusCode() >= http.StatusInternalServerError:
			return boundary.Transient(op, err)
		case reqErr.StatusCode() == http.StatusUnauthorized, reqErr.StatusCode() == http.StatusForbidden:
			return boundary.Transport(op, err)
		case reqErr.StatusCode() == http.StatusNotFound:
			return boundary.Logical(op, err)
		}
	}
	switch code := aerr.Code(); {
	case code == s3.ErrCodeNoSuchBucket, code == s3.ErrCodeNoSuchKey, code == "NotFound":
		return boundary.Logical(op, err)
	case strings.Contains(code, "AccessDenied"), code == "InvalidAccessKeyId", code == "SignatureDoesNotMatch":
		return boundary.Transport(op, err)
	}
	if request.IsErrorRetryable(err) || request.IsErrorThrottle(err) {
		return boundary.Transient(op, err)
	}
	return boundary.Classify(op, err)
}
