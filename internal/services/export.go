package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	appconfig "duo-journal-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const exportURLTTL = 15 * time.Minute

// ObjectUploader is the part of the S3 client used by exports
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectPresigner signs download URLs for exported objects
type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// TimelineSource builds the timeline being exported
type TimelineSource interface {
	Timeline(ctx context.Context, userID int64) (*TimelineView, error)
}

// ExportService uploads timeline snapshots to S3
type ExportService struct {
	timelines TimelineSource
	members   MembershipResolver
	uploader  ObjectUploader
	presigner ObjectPresigner
	bucket    string
	now       func() time.Time
}

// ExportResponse carries the download link of an export
type ExportResponse struct {
	ExportID    string `json:"export_id"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
}

type exportDocument struct {
	ExportedAt time.Time     `json:"exported_at"`
	CoupleID   int64         `json:"couple_id"`
	Timeline   *TimelineView `json:"timeline"`
}

// NewS3Client builds an S3 client from configuration; static credentials and a
// custom endpoint are optional.
func NewS3Client(ctx context.Context, cfg appconfig.AWSConfig) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewExportService creates a new export service. A nil client disables exports.
func NewExportService(timelines TimelineSource, members MembershipResolver, client *s3.Client, bucket string) *ExportService {
	s := &ExportService{
		timelines: timelines,
		members:   members,
		bucket:    bucket,
		now:       time.Now,
	}
	if client != nil {
		s.uploader = client
		s.presigner = s3.NewPresignClient(client)
	}
	return s
}

// Export uploads the user's timeline as JSON and returns a temporary download URL
func (s *ExportService) Export(ctx context.Context, userID int64) (*ExportResponse, error) {
	if s.uploader == nil || s.bucket == "" {
		return nil, ErrExportDisabled
	}

	m, err := s.members.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	view, err := s.timelines.Timeline(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(exportDocument{
		ExportedAt: s.now().UTC(),
		CoupleID:   m.CoupleID,
		Timeline:   view,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	exportID := uuid.NewString()
	key := fmt.Sprintf("exports/%d/%s.json", m.CoupleID, exportID)

	_, err = s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = exportURLTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("couple_id", m.CoupleID).
		Str("key", key).
		Msg("Timeline exported")

	return &ExportResponse{
		ExportID:    exportID,
		DownloadURL: request.URL,
		ExpiresIn:   int(exportURLTTL.Seconds()),
	}, nil
}
