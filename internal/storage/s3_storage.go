package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"driftmarket/server/internal/config"
	"driftmarket/server/internal/utils"
)

// IAttachmentStorage hands out presigned PUT URLs for message attachments.
// The client uploads directly to S3 and then appends the message carrying
// the returned key.
type IAttachmentStorage interface {
	GenerateUploadURL(ctx context.Context, threadID utils.SixID, filename, contentType string) (string, string, error)
	PublicURL(key string) string
}

// attachmentStorage implements IAttachmentStorage.
type attachmentStorage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewAttachmentStorage creates the S3-backed attachment storage service.
func NewAttachmentStorage(cfg *config.Config) (IAttachmentStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &attachmentStorage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
	}, nil
}

// GenerateUploadURL returns a presigned PUT URL plus the object key the
// upload will land under. Filenames are sanitized into the key.
func (s *attachmentStorage) GenerateUploadURL(ctx context.Context, threadID utils.SixID, filename, contentType string) (string, string, error) {
	objectKey := fmt.Sprintf("attachments/%s/%s_%s", threadID.String(), uuid.NewString(), sanitizeFilename(filename))

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	return presignedReq.URL, objectKey, nil
}

// PublicURL maps an object key to its serving URL.
func (s *attachmentStorage) PublicURL(key string) string {
	if s.cfg.AttachmentBaseURL == "" {
		return key
	}
	return strings.TrimRight(s.cfg.AttachmentBaseURL, "/") + "/" + key
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "upload"
	}
	return name
}
