package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"inmuebles_console/pkg/config"
)

// R2Uploader stores images in a Cloudflare R2 bucket through the S3 API, for
// running the console against self-hosted media instead of Cloudinary.
type R2Uploader struct {
	client  *s3.Client
	bucket  string
	cdnBase string
}

func NewR2Uploader(cfg config.R2Config) (*R2Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.UsePathStyle = true
		o.Region = "auto"
	})

	return &R2Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		cdnBase: strings.TrimSuffix(cfg.CDNBase, "/"),
	}, nil
}

func (u *R2Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), ext))
	uniqueFilename := fmt.Sprintf("%d-%s-%s%s", time.Now().UnixNano(), uuid.New().String(), base, ext)

	objectKey := filepath.Join("properties", "images", uniqueFilename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(objectKey),
		Body:   r,
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("could not upload file to R2: %v", err)
	}

	return fmt.Sprintf("%s/%s", u.cdnBase, objectKey), nil
}
