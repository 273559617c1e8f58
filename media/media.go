package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"platera/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrNotImage means the uploaded bytes could not be decoded as an image.
// Everything else returned by Upload is a storage-side failure.
var ErrNotImage = errors.New("file must be an image")

const maxWidth = 1280

// BlobAPI is the slice of the S3 client the manager uses.
type BlobAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Manager uploads, replaces and removes image blobs and tracks the
// (url, alias) pair needed to delete them later.
type Manager struct {
	client BlobAPI
	bucket string
	region string
}

func New(ctx context.Context, key, secret, region, bucket string) (*Manager, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load blob store config: %w", err)
	}
	return &Manager{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

func NewWithClient(client BlobAPI, bucket, region string) *Manager {
	return &Manager{client: client, bucket: bucket, region: region}
}

// Upload normalizes the image, stores it under a fresh alias and returns the
// reference. Storage errors propagate; retries are the caller's policy.
func (m *Manager) Upload(ctx context.Context, data []byte, folder, hint string) (models.MediaRef, error) {
	normalized, err := normalize(data)
	if err != nil {
		return models.MediaRef{}, err
	}

	alias := fmt.Sprintf("%s/%s-%d-%s", folder, Slugify(hint), time.Now().Unix(), uuid.NewString()[:8])
	key := alias + ".jpg"

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(normalized),
		ContentType: aws.String("image/jpeg"),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return models.MediaRef{}, fmt.Errorf("media upload failed: %w", err)
	}

	return models.MediaRef{
		URL:   fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key),
		Alias: alias,
	}, nil
}

// Replace uploads the new asset and only then deletes the old one. The old
// alias is never touched before the new upload succeeds, so a transient
// failure cannot leave the owning record without media. A failed delete of
// the old asset is logged and swallowed: the new reference is authoritative
// and a stale orphan is acceptable.
func (m *Manager) Replace(ctx context.Context, oldAlias string, data []byte, folder, hint string) (models.MediaRef, error) {
	ref, err := m.Upload(ctx, data, folder, hint)
	if err != nil {
		return models.MediaRef{}, err
	}
	if oldAlias != "" {
		m.Remove(ctx, oldAlias)
	}
	return ref, nil
}

// Remove deletes a blob by alias, best effort. The owning record deletion has
// already happened or is about to, and must not be blocked by storage issues.
func (m *Manager) Remove(ctx context.Context, alias string) {
	if alias == "" {
		return
	}
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(alias + ".jpg"),
	})
	if err != nil {
		log.Printf("failed to delete blob %s: %v", alias, err)
	}
}

func normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotImage
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Slugify turns a human hint into a lowercase, hyphen-separated alias part.
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	if slug == "" {
		slug = "media"
	}
	return slug
}
