// Package s3 stores image assets in an S3 bucket. The asset ID is the
// object key, so deletion needs no extra bookkeeping.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/easytrans/authcore"
)

// keyPrefix groups all avatar objects under one folder in the bucket.
const keyPrefix = "avatars"

type Store struct {
	client *s3.Client
	bucket string

	// publicBaseURL is the externally reachable root for objects in the
	// bucket, e.g. a CDN or the bucket website endpoint.
	publicBaseURL string
}

func NewStore(client *s3.Client, bucket, publicBaseURL string) *Store {
	return &Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *Store) Upload(ctx context.Context, r io.Reader, name string) (*authcore.ImageAsset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	// A random element in the key keeps successive uploads for the same
	// user from colliding with cached copies of the old object.
	key := path.Join(keyPrefix, fmt.Sprintf("%s-%s%s", sanitizeName(name), uuid.NewString()[:8], path.Ext(name)))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &authcore.ImageAsset{
		URL: s.publicBaseURL + "/" + key,
		ID:  key,
	}, nil
}

func (s *Store) Delete(ctx context.Context, assetID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// sanitizeName reduces a caller-supplied name hint to something safe for an
// object key.
func sanitizeName(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	base = url.PathEscape(base)
	if base == "" || base == "." {
		base = "image"
	}
	return base
}
