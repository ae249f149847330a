package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// HistoryArchiver stores a copy of a sync run's follower history points.
type HistoryArchiver interface {
	Archive(ctx context.Context, points []*models.FollowerHistory) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type r2Archiver struct {
	bucket string
	client objectPutter
	now    func() time.Time
}

// NewR2Archiver returns an archiver writing to Cloudflare R2 through its
// S3 compatible API.
func NewR2Archiver(ctx context.Context, r2 config.R2) (HistoryArchiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return newR2Archiver(r2.BucketName, client), nil
}

func newR2Archiver(bucket string, client objectPutter) *r2Archiver {
	return &r2Archiver{bucket: bucket, client: client, now: time.Now}
}

// Archive uploads points as one JSON document and returns its key.
func (a *r2Archiver) Archive(ctx context.Context, points []*models.FollowerHistory) (string, error) {
	body, err := json.Marshal(points)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("follower-history/%s/%s.json", a.now().UTC().Format("2006-01-02"), id)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return key, nil
}
