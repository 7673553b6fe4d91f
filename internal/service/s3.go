package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/config"
	"tush00nka/bbbab_conversations/internal/model"
)

const presignTTL = 15 * time.Minute

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var _ AttachmentService = (*S3Service)(nil)

// S3Service хранит вложения бесед в S3-совместимом хранилище
type S3Service struct {
	bucket    string
	uploader  objectUploader
	presigner objectPresigner
	messages  MessageService
	log       logrus.FieldLogger
}

func NewS3Service(cfg *config.Config, messages MessageService, log logrus.FieldLogger) (*S3Service, error) {
	if cfg.S3BucketName == "" {
		return nil, fmt.Errorf("%w: S3_BUCKET_NAME is empty", ErrInvalidInput)
	}

	// Используем BaseEndpoint для кастомного endpoint
	s3Opts := []func(*s3.Options){}

	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true // Обязательно для MinIO
		})
	}

	awsCfg := aws.Config{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		),
	}

	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	log.WithField("endpoint", cfg.S3Endpoint).Info("S3 service initialized")
	return newS3Service(cfg.S3BucketName, manager.NewUploader(s3Client), s3.NewPresignClient(s3Client), messages, log), nil
}

func newS3Service(bucket string, uploader objectUploader, presigner objectPresigner, messages MessageService, log logrus.FieldLogger) *S3Service {
	return &S3Service{
		bucket:    bucket,
		uploader:  uploader,
		presigner: presigner,
		messages:  messages,
		log:       log,
	}
}

// Upload загружает файл и публикует его в беседе как сообщение
func (s *S3Service) Upload(ctx context.Context, upload AttachmentUpload) (*model.FileMetadata, error) {
	filename := path.Base(strings.ReplaceAll(upload.Filename, "\\", "/"))
	if filename == "." || filename == "/" || filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileID := uuid.New().String()
	s3Key := path.Join("chats", strconv.FormatUint(uint64(upload.ConversationID), 10), fileID, filename)

	s.log.WithFields(logrus.Fields{"bucket": s.bucket, "key": s3Key}).Debug("uploading attachment")

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        upload.Body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	message := &model.Message{
		ConversationID: upload.ConversationID,
		SenderID:       upload.UserID,
		Body:           filename,
		AttachmentKey:  s3Key,
		ContentType:    contentType,
	}
	if err := s.messages.Post(ctx, message); err != nil {
		return nil, err
	}

	return &model.FileMetadata{
		ID:             fileID,
		Filename:       filename,
		Size:           upload.Size,
		ContentType:    contentType,
		Key:            s3Key,
		Bucket:         s.bucket,
		SenderID:       upload.UserID,
		ConversationID: upload.ConversationID,
		MessageID:      message.ID,
		CreatedAt:      message.Timestamp,
	}, nil
}

// PresignedURL возвращает временную ссылку на вложение сообщения
func (s *S3Service) PresignedURL(ctx context.Context, message *model.Message) (string, error) {
	if !message.HasAttachment() {
		return "", ErrNotAnAttachment
	}

	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(message.AttachmentKey),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}
