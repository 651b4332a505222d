package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/monkeyandriver/healthforge/internal/server/config"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// ArchiveService copies completed evaluations into object storage as JSON
// documents. Uploads are best-effort: callers treat a failed upload as a
// warning, never as a pipeline failure.
type ArchiveService struct {
	config *sc.Config
}

func NewArchiveService(config *sc.Config) *ArchiveService {
	return &ArchiveService{config: config}
}

type archivedEvaluation struct {
	TestID     int64     `json:"test_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OwnerID    *string   `json:"owner_id,omitempty"`
	Evaluation string    `json:"evaluation"`
	CreatedAt  time.Time `json:"created_at"`
	ArchivedAt time.Time `json:"archived_at"`
}

func (s *ArchiveService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Store uploads the completed evaluation under evaluations/<uuid>.json.
func (s *ArchiveService) Store(ctx context.Context, test *models.DiagnosticTest) error {
	if test.Evaluation == nil {
		return fmt.Errorf("test %d has no evaluation to archive", test.ID)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	doc := &archivedEvaluation{
		TestID:     test.ID,
		Name:       test.Name,
		Email:      test.Email,
		OwnerID:    test.OwnerID,
		Evaluation: *test.Evaluation,
		CreatedAt:  test.CreatedAt,
		ArchivedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error serializing evaluation: %w", err)
	}

	key := fmt.Sprintf("evaluations/%s.json", uuid.NewString())

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error uploading evaluation: %w", err)
	}

	return nil
}
