package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultPresignExpiry = 15 * time.Minute

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL is the base URL objects are reachable at. When empty it is
	// derived from the endpoint and bucket.
	PublicURL string
}

// S3 is a storage.Store backed by an S3-compatible bucket through the
// MinIO client.
type S3 struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

var _ storage.Store = (*S3)(nil)

// NewS3 connects to the endpoint and checks that the bucket exists.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 endpoint and bucket are required", storage.ErrInvalidConfig)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("filestore: s3 client: %w", err)
	}

	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("filestore: check bucket %s: %w", cfg.Bucket, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, cfg.Bucket)
	}

	return &S3{client: client, bucket: cfg.Bucket, publicURL: publicBase(cfg)}, nil
}

func publicBase(cfg S3Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
}

func objectKey(path string) (string, error) {
	path = storage.NormalizePath(path)
	if err := storage.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// Backend returns "s3".
func (s *S3) Backend() string { return "s3" }

// Put streams r to path. The size is unknown, so the client uploads in parts.
func (s *S3) Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error {
	key, err := objectKey(path)
	if err != nil {
		return err
	}
	var po minio.PutObjectOptions
	if opts != nil {
		if opts.IfNotExists {
			exists, err := s.Exists(ctx, key)
			if err != nil {
				return err
			}
			if exists {
				return storage.ErrAlreadyExists
			}
		}
		po.ContentType = opts.ContentType
		po.ContentDisposition = opts.ContentDisposition
		po.ContentEncoding = opts.ContentEncoding
		po.CacheControl = opts.CacheControl
		po.UserMetadata = opts.Metadata
		po.StorageClass = opts.StorageClass
	}
	if po.ContentType == "" {
		po.ContentType = storage.DetectContentType(key, nil)
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, -1, po)
	return translateError(err)
}

// PutBytes uploads data to path.
func (s *S3) PutBytes(ctx context.Context, path string, data []byte, opts *storage.PutOptions) error {
	return s.Put(ctx, path, bytes.NewReader(data), opts)
}

// Get opens path for reading. The caller closes the reader.
func (s *S3) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, _, err := s.GetWithInfo(ctx, path)
	return rc, err
}

// GetBytes reads the whole object at path.
func (s *S3) GetBytes(ctx context.Context, path string) ([]byte, error) {
	rc, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// GetWithInfo opens path and returns its metadata.
func (s *S3) GetWithInfo(ctx context.Context, path string) (io.ReadCloser, *storage.ObjectInfo, error) {
	key, err := objectKey(path)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translateError(err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, translateError(err)
	}
	return obj, toObjectInfo(st), nil
}

// Head returns metadata for path.
func (s *S3) Head(ctx context.Context, path string) (*storage.ObjectInfo, error) {
	key, err := objectKey(path)
	if err != nil {
		return nil, err
	}
	st, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	return toObjectInfo(st), nil
}

// Delete removes path. Missing objects are not an error.
func (s *S3) Delete(ctx context.Context, path string) error {
	key, err := objectKey(path)
	if err != nil {
		return err
	}
	return translateError(s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
}

// DeleteMany removes each path, stopping at the first failure.
func (s *S3) DeleteMany(ctx context.Context, paths []string) (int, error) {
	n := 0
	for _, p := range paths {
		if err := s.Delete(ctx, p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Exists reports whether path is present.
func (s *S3) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.Head(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns objects under prefix. ContinuationToken is the last key of
// the previous page.
func (s *S3) List(ctx context.Context, prefix string, opts *storage.ListOptions) (*storage.ListResult, error) {
	var o storage.ListOptions
	if opts != nil {
		o = *opts
	}
	if o.MaxKeys <= 0 {
		o.MaxKeys = 1000
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &storage.ListResult{}
	count := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    o.Delimiter == "",
		StartAfter:   o.ContinuationToken,
		WithMetadata: o.IncludeMetadata,
	}) {
		if obj.Err != nil {
			return nil, translateError(obj.Err)
		}
		if count == o.MaxKeys {
			res.IsTruncated = true
			break
		}
		count++
		res.NextContinuationToken = obj.Key
		if o.Delimiter != "" && strings.HasSuffix(obj.Key, o.Delimiter) {
			res.CommonPrefixes = append(res.CommonPrefixes, obj.Key)
			continue
		}
		res.Objects = append(res.Objects, *toObjectInfo(obj))
	}
	if !res.IsTruncated {
		res.NextContinuationToken = ""
	}
	return res, nil
}

// Copy copies src to dst within the bucket.
func (s *S3) Copy(ctx context.Context, src, dst string) error {
	srcKey, err := objectKey(src)
	if err != nil {
		return err
	}
	dstKey, err := objectKey(dst)
	if err != nil {
		return err
	}
	_, err = s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey})
	return translateError(err)
}

// Move copies src to dst, then deletes src.
func (s *S3) Move(ctx context.Context, src, dst string) error {
	if err := s.Copy(ctx, src, dst); err != nil {
		return err
	}
	return s.Delete(ctx, src)
}

// PresignedURL returns a time-limited download URL for path.
func (s *S3) PresignedURL(ctx context.Context, path string, opts *storage.PresignOptions) (string, error) {
	key, err := objectKey(path)
	if err != nil {
		return "", err
	}
	expires := defaultPresignExpiry
	params := url.Values{}
	if opts != nil {
		if opts.Expires > 0 {
			expires = opts.Expires
		}
		if opts.ContentType != "" {
			params.Set("response-content-type", opts.ContentType)
		}
		if opts.ContentDisposition != "" {
			params.Set("response-content-disposition", opts.ContentDisposition)
		}
		if opts.ResponseCacheControl != "" {
			params.Set("response-cache-control", opts.ResponseCacheControl)
		}
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, params)
	if err != nil {
		return "", translateError(err)
	}
	return u.String(), nil
}

// PresignedUploadURL returns a time-limited PUT URL for path.
func (s *S3) PresignedUploadURL(ctx context.Context, path string, opts *storage.PresignUploadOptions) (*storage.PresignedUpload, error) {
	key, err := objectKey(path)
	if err != nil {
		return nil, err
	}
	expires := defaultPresignExpiry
	headers := map[string]string{}
	if opts != nil {
		if opts.Expires > 0 {
			expires = opts.Expires
		}
		if opts.ContentType != "" {
			headers["Content-Type"] = opts.ContentType
		}
	}
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, expires)
	if err != nil {
		return nil, translateError(err)
	}
	return &storage.PresignedUpload{
		URL:     u.String(),
		Method:  "PUT",
		Headers: headers,
		Expires: time.Now().Add(expires),
	}, nil
}

// URL returns the public URL of path.
func (s *S3) URL(path string) string {
	return joinURL(s.publicURL, storage.NormalizePath(path))
}

func toObjectInfo(o minio.ObjectInfo) *storage.ObjectInfo {
	return &storage.ObjectInfo{
		Path:         o.Key,
		Size:         o.Size,
		ContentType:  o.ContentType,
		LastModified: o.LastModified,
		ETag:         o.ETag,
		Metadata:     o.UserMetadata,
		StorageClass: o.StorageClass,
	}
}

// translateError maps S3 error codes onto the storage package's sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %v", storage.ErrBucketNotFound, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)
	}
	return err
}
