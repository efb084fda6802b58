package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore stores objects in an Alibaba Cloud OSS bucket. Screenshot keys map
// directly to object names; HTTP metadata is set at upload time so the bucket
// can serve objects with the right headers.
type OSSStore struct {
	bucket *oss.Bucket
}

// NewOSSStore dials the OSS endpoint and binds the bucket.
func NewOSSStore(endpoint, keyID, keySecret, bucketName string) (*OSSStore, error) {
	client, err := oss.New(endpoint, keyID, keySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open OSS bucket %s: %w", bucketName, err)
	}
	return &OSSStore{bucket: bucket}, nil
}

// Put uploads the object with its HTTP metadata.
func (s *OSSStore) Put(key string, data []byte, opts PutOptions) error {
	ossOpts := []oss.Option{}
	if opts.ContentType != "" {
		ossOpts = append(ossOpts, oss.ContentType(opts.ContentType))
	}
	if opts.CacheControl != "" {
		ossOpts = append(ossOpts, oss.CacheControl(opts.CacheControl))
	}
	if opts.ContentDisposition != "" {
		ossOpts = append(ossOpts, oss.ContentDisposition(opts.ContentDisposition))
	}
	if err := s.bucket.PutObject(key, bytes.NewReader(data), ossOpts...); err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Get downloads the object and reports its stored content type.
func (s *OSSStore) Get(key string) ([]byte, ObjectInfo, error) {
	body, err := s.bucket.GetObject(key)
	if err != nil {
		if ossErr, ok := err.(oss.ServiceError); ok && ossErr.StatusCode == 404 {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to download object %s: %w", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	info := ObjectInfo{Key: key, Size: int64(len(data))}
	if meta, err := s.bucket.GetObjectDetailedMeta(key); err == nil {
		info.ContentType = meta.Get("Content-Type")
	}
	return data, info, nil
}

// Delete removes the object. OSS treats deleting a missing key as success,
// which matches the best-effort cleanup contract.
func (s *OSSStore) Delete(key string) error {
	if err := s.bucket.DeleteObject(key); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// List pages through the bucket and returns every key under the prefix.
func (s *OSSStore) List(prefix string) ([]string, error) {
	var keys []string
	marker := ""
	for {
		res, err := s.bucket.ListObjects(oss.Prefix(prefix), oss.Marker(marker), oss.MaxKeys(1000))
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		for _, obj := range res.Objects {
			keys = append(keys, obj.Key)
		}
		if !res.IsTruncated {
			return keys, nil
		}
		marker = res.NextMarker
	}
}
