package adapters

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/config"
)

type s3VideoPublisher struct {
	logger   outbound.LoggerPort
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3VideoPublisher(logger outbound.LoggerPort, s3Config *config.S3Config) (outbound.VideoPublisherPort, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(s3Config.Region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &s3VideoPublisher{
		logger:   logger,
		s3Svc:    s3.New(sess),
		s3Config: s3Config,
	}, nil
}

// Publish uploads the assembled video. The local file is left in place, it is
// the run's primary output.
func (s *s3VideoPublisher) Publish(ctx context.Context, req outbound.PublishVideoRequest) (*outbound.PublishVideoResponse, error) {
	itemPath := s.getS3ItemPath(req)

	file, err := os.Open(req.VideoPath)
	if err != nil {
		s.logger.Error(err, "Failed to open video file")
		return nil, err
	}
	defer func(file *os.File) {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Error(closeErr, "Failed to close video file")
		}
	}(file)

	putInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(itemPath),
		Body:        file,
		ContentType: aws.String("video/mp4"),
	}

	if _, err = s.s3Svc.PutObjectWithContext(ctx, putInput); err != nil {
		s.logger.ErrorWithFields(err, "Failed to upload video to S3", map[string]interface{}{
			"bucket": s.s3Config.BucketName,
			"key":    itemPath,
		})
		return nil, err
	}

	s.logger.InfoWithFields("Video published", map[string]interface{}{
		"bucket": s.s3Config.BucketName,
		"key":    itemPath,
	})

	return &outbound.PublishVideoResponse{
		VideoKey:    itemPath,
		StoreRegion: s.s3Config.Region,
	}, nil
}

func (s *s3VideoPublisher) getS3ItemPath(req outbound.PublishVideoRequest) string {
	project := filepath.Base(filepath.Dir(req.VideoPath))
	return path.Join(s.s3Config.KeyPrefix, "videos", project, req.RunID+".mp4")
}
