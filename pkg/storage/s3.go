package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	kio "github.com/opst/datapod/pkg/utils/io"
)

// Option keys for "s3" protocol.
const (
	S3Endpoint        = "endpoint"
	S3Region          = "region"
	S3Secure          = "secure"
	S3AccessKeyID     = "access_key_id"
	S3SecretAccessKey = "secret_access_key"
	S3SessionToken    = "session_token"
)

const defaultS3Endpoint = "s3.amazonaws.com"

// ErrInvalidOption is returned when Options have malformed value.
var ErrInvalidOption = errors.New("storage: invalid option")

type s3fs struct {
	client *minio.Client
}

// NewS3 creates Filesystem on a S3 compatible object storage.
//
// Paths are `bucket/key`.
//
// Options:
//
//   - endpoint: host[:port] of the storage. default is s3.amazonaws.com.
//   - region: region name. optional.
//   - secure: use https or not. "true" (default) or "false".
//   - access_key_id, secret_access_key, session_token: static credentials.
//     When access_key_id is not given, credentials are read from
//     environment variables (AWS_ACCESS_KEY_ID, MINIO_ACCESS_KEY, ...)
//     or ~/.aws/credentials.
func NewS3(opts Options) (Filesystem, error) {
	secure := true
	if s := opts.Get(S3Secure, ""); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidOption, S3Secure, s)
		}
		secure = b
	}

	var creds *credentials.Credentials
	if id := opts.Get(S3AccessKeyID, ""); id != "" {
		creds = credentials.NewStaticV4(
			id, opts.Get(S3SecretAccessKey, ""), opts.Get(S3SessionToken, ""),
		)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
		})
	}

	client, err := minio.New(opts.Get(S3Endpoint, defaultS3Endpoint), &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: opts.Get(S3Region, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return s3fs{client: client}, nil
}

func splitBucket(path string) (string, string, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 path should be bucket/key: %q", ErrInvalidLocation, path)
	}
	return bucket, key, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}

func (s s3fs) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := splitBucket(path)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject does not request. Stat does.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNotFound(err) {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		return nil, err
	}
	return obj, nil
}

func (s s3fs) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	bucket, key, err := splitBucket(path)
	if err != nil {
		return nil, err
	}
	return kio.CommitOnClose(func(b []byte) error {
		_, err := s.client.PutObject(
			ctx, bucket, key, bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{},
		)
		return err
	}), nil
}

func (s s3fs) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := splitBucket(path)
	if err != nil {
		return false, err
	}
	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s s3fs) Put(ctx context.Context, localPath string, path string) error {
	bucket, key, err := splitBucket(path)
	if err != nil {
		return err
	}
	_, err = s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{})
	return err
}
