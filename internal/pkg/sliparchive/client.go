package sliparchive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
)

// thumbnail edge length for the manual review queue
const thumbSize = 512

// Client wraps the S3 client with slip-archive-specific functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new S3 slip archive client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("slip archive is disabled")
	}

	// Create AWS config
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	// Test connection
	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[SlipArchive] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection tests the S3 connection by checking if the bucket exists
func (c *Client) testConnection() error {
	ctx := context.Background()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}

	return nil
}

// Archive stores the raw slip plus a review thumbnail in S3 and returns
// the object key of the original. The thumbnail is best effort: a slip
// that does not decode as an image is archived as-is.
func (c *Client) Archive(profilePublicID, digest string, slip []byte) (string, error) {
	ctx := context.Background()
	objectKey := c.config.ObjectKey(profilePublicID, digest)

	if err := c.putObject(ctx, objectKey, slip); err != nil {
		return "", fmt.Errorf("failed to archive slip: %w", err)
	}

	if thumb, err := renderThumbnail(slip); err != nil {
		log.Warnf("[SlipArchive] Skipping thumbnail for %s: %v", objectKey, err)
	} else if err := c.putObject(ctx, c.config.ThumbKey(profilePublicID, digest), thumb); err != nil {
		log.Warnf("[SlipArchive] Failed to upload thumbnail for %s: %v", objectKey, err)
	}

	log.Infof("[SlipArchive] Successfully archived: s3://%s/%s", c.config.BucketName, objectKey)
	return objectKey, nil
}

func (c *Client) putObject(ctx context.Context, objectKey string, data []byte) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("image/jpeg"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"upload-source": "adsmagic-slip-review",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// renderThumbnail downscales a slip image for the review queue
func renderThumbnail(slip []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(slip), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode slip image: %w", err)
	}

	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
