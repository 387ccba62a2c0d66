package notify

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Config locates the outbox bucket.
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	Prefix       string
}

// S3Outbox writes every message as an .eml object into a bucket. A separate
// relay picks the objects up and hands them to the mail provider.
type S3Outbox struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Outbox(ctx context.Context, c S3Config) (*S3Outbox, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Outbox{client: client, bucket: c.Bucket, prefix: c.Prefix}, nil
}

func (o *S3Outbox) objectKey(m *Message) string {
	d := m.Date
	return path.Join(o.prefix, fmt.Sprintf("%d/%02d/%02d", d.Year(), d.Month(), d.Day()), m.ID+".eml")
}

func (o *S3Outbox) Deliver(ctx context.Context, m *Message) error {
	key := o.objectKey(m)
	_, err := putObject(o.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(m.Bytes()),
		ContentType: aws.String("message/rfc822"),
		Metadata: map[string]string{
			"to":        m.To,
			"queued-at": m.Date.Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
