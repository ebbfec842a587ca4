package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/slotcarhq/auctionhouse/internal/domain"
)

const DefaultMaxImageBytes = 8 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Config describes an S3-compatible bucket. Endpoint defaults to
// DigitalOcean Spaces in Region.
type Config struct {
	Key       string `toml:"key"`
	Secret    string `toml:"secret"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	Endpoint  string `toml:"endpoint"`
	PublicURL string `toml:"public_url"`
	Root      string `toml:"root"`
	MaxBytes  int    `toml:"max_bytes"`
}

func (c Config) Enabled() bool {
	return c.Bucket != "" && c.Key != ""
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Spaces stores auction listing images.
type Spaces struct {
	client    objectPutter
	bucket    string
	root      string
	publicURL string
	maxBytes  int
}

func NewSpaces(ctx context.Context, cfg Config) (*Spaces, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", cfg.Region)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load spaces config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = strings.Replace(endpoint, "://", "://"+cfg.Bucket+".", 1)
	}
	return newSpaces(client, cfg.Bucket, cfg.Root, publicURL, cfg.MaxBytes), nil
}

func newSpaces(client objectPutter, bucket, root, publicURL string, maxBytes int) *Spaces {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &Spaces{
		client:    client,
		bucket:    bucket,
		root:      strings.Trim(root, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
	}
}

// UploadImage stores data under a fresh key for the auction and returns its
// public URL. The content type is sniffed, never trusted from the client.
func (s *Spaces) UploadImage(ctx context.Context, auctionID int64, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrInvalidRequest.WithMessage("image is empty")
	}
	if len(data) > s.maxBytes {
		return "", domain.ErrInvalidRequest.WithMessage("image exceeds %d bytes", s.maxBytes)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", domain.ErrInvalidRequest.WithMessage("unsupported image type %s", contentType)
	}

	key := path.Join(s.root, "auctions", fmt.Sprint(auctionID), uuid.NewString()+ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		ACL:          types.ObjectCannedACLPublicRead,
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	slog.Info("Auction image uploaded",
		slog.Int64("auction_id", auctionID),
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return s.publicURL + "/" + key, nil
}
