package config

import (
	"fmt"
	"os"
)

type S3Config struct {
	BucketName string
	Region     string
	KeyPrefix  string
}

// GetS3Config resolves where the assembled video is published. The file
// config wins; PUBLISH_BUCKET and PUBLISH_REGION fill unset fields so the
// bucket can come from deploy-time environment.
func GetS3Config(cfg *Config) (*S3Config, error) {
	bucket := cfg.Publish.Bucket
	if bucket == "" {
		bucket = os.Getenv("PUBLISH_BUCKET")
	}
	if bucket == "" {
		return nil, fmt.Errorf("publish.bucket or PUBLISH_BUCKET must be set")
	}

	region := cfg.Publish.Region
	if region == "" {
		region = os.Getenv("PUBLISH_REGION")
	}
	if region == "" {
		return nil, fmt.Errorf("publish.region or PUBLISH_REGION must be set")
	}

	return &S3Config{
		BucketName: bucket,
		Region:     region,
		KeyPrefix:  cfg.Publish.Prefix,
	}, nil
}
