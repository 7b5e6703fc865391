package s3_test

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

func NewMockS3() *MockS3 {
	return &MockS3{
		buckets: map[string]map[string][]byte{},
	}
}

// MockS3 mimics an S3 blob store for testing.
type MockS3 struct {
	sync.RWMutex
	buckets map[string]map[string][]byte
	// PutErr, when set, is returned by the next put and then cleared.
	PutErr error
	s3iface.S3API
}

func (m *MockS3) NewBucket(name string) {
	m.Lock()
	defer m.Unlock()
	m.buckets[name] = map[string][]byte{}
}

// Object returns the stored body of key.
func (m *MockS3) Object(bucket, key string) ([]byte, bool) {
	m.RLock()
	defer m.RUnlock()
	data, ok := m.buckets[bucket][key]
	return data, ok
}

// Keys lists the keys stored in bucket in sorted order.
func (m *MockS3) Keys(bucket string) []string {
	m.RLock()
	defer m.RUnlock()
	var keys []string
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func noSuchBucket(name string) error {
	return awserr.New(s3.ErrCodeNoSuchBucket, fmt.Sprintf("bucket '%s' does not exist", name), nil)
}

func (m *MockS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.Lock()
	defer m.Unlock()

	if m.PutErr != nil {
		err := m.PutErr
		m.PutErr = nil
		return nil, err
	}

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, noSuchBucket(*in.Bucket)
	}

	bucket[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *MockS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.RLock()
	defer m.RUnlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, noSuchBucket(*in.Bucket)
	}

	data, ok := bucket[*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, fmt.Sprintf("key '%s' does not exist in bucket '%s'", *in.Key, *in.Bucket), nil)
	}

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewBuffer(data)),
	}, nil
}

func (m *MockS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	m.Lock()
	defer m.Unlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, noSuchBucket(*in.Bucket)
	}
	delete(bucket, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *MockS3) HeadBucketWithContext(_ aws.Context, in *s3.HeadBucketInput, _ ...request.Option) (*s3.HeadBucketOutput, error) {
	m.RLock()
	defer m.RUnlock()

	if _, ok := m.buckets[*in.Bucket]; !ok {
		return nil, awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "mock")
	}
	return &s3.HeadBucketOutput{}, nil
}

// ListObjectsV2PagesWithContext returns matching keys in pages of MaxKeys.
func (m *MockS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	m.RLock()
	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		m.RUnlock()
		return noSuchBucket(*in.Bucket)
	}

	var keys []string
	for key := range bucket {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	m.RUnlock()
	sort.Strings(keys)

	pageSize := int(aws.Int64Value(in.MaxKeys))
	if pageSize <= 0 {
		pageSize = 1000
	}
	for start := 0; ; start += pageSize {
		end := start + pageSize
		if end > len(keys) {
			end = len(keys)
		}
		var objects []*s3.Object
		for _, key := range keys[start:end] {
			objects = append(objects, &s3.Object{Key: aws.String(key)})
		}
		out := new(s3.ListObjectsV2Output)
		out.SetContents(objects)
		last := end == len(keys)
		if !fn(out, last) || last {
			return nil
		}
	}
}
