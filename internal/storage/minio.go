// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/cloudconvert/pkg/types"
)

// MinioStorage is an ObjectStore backed by any S3-compatible service.
type MinioStorage struct {
	config types.StorageConfig
	client *minio.Client
	log    logrus.FieldLogger
}

// NewMinioStorage creates a client for conf.Endpoint. No request is made
// until the first Store.
func NewMinioStorage(conf types.StorageConfig, log logrus.FieldLogger) (*MinioStorage, error) {
	if conf.Endpoint == "" {
		return nil, fmt.Errorf("object storage endpoint is empty")
	}

	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
		Region: conf.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	log.WithFields(logrus.Fields{
		"function": "NewMinioStorage",
		"endpoint": conf.Endpoint,
	}).Debug("Created object storage client.")

	return &MinioStorage{config: conf, client: client, log: log}, nil
}

// Store uploads objectBytes as bucket/objectName, creating the bucket first
// when CreateBucket is set.
func (m *MinioStorage) Store(ctx context.Context, bucket, objectName string, objectBytes []byte, contentType string) error {
	log := m.log.WithFields(logrus.Fields{
		"function":   "MinioStorage.Store",
		"bucket":     bucket,
		"objectName": objectName,
	})

	if m.config.CreateBucket {
		if err := m.ensureBucket(ctx, bucket); err != nil {
			return fmt.Errorf("preparing bucket %s: %w", bucket, err)
		}
	}

	r := bytes.NewReader(objectBytes)
	if _, err := m.client.PutObject(ctx, bucket, objectName, r, r.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("uploading object: %w", err)
	}

	log.WithField("size", len(objectBytes)).Info("Uploaded result to object storage.")
	return nil
}

func (m *MinioStorage) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.config.Region}); err != nil {
		return err
	}
	m.log.WithField("bucket", bucket).Info("Created bucket.")
	return nil
}
