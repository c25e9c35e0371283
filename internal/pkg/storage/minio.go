// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/arcentrix/runstream/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStorage struct {
	client *minio.Client
	cfg    Storage
}

func newMinio(s *Storage) (IStorage, error) {
	client, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.UseTLS,
		Region: s.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	m := &minioStorage{client: client, cfg: *s}
	if s.AutoCreateBucket {
		if err := m.ensureBucket(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *minioStorage) ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()
	exists, err := m.client.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.cfg.Bucket, minio.MakeBucketOptions{Region: m.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.cfg.Bucket, err)
	}
	log.Infow("bucket created", "provider", Minio, "bucket", m.cfg.Bucket)
	return nil
}

func (m *minioStorage) Provider() string {
	return Minio
}

func (m *minioStorage) Upload(ctx context.Context, key string, filePath string, contentType string) (int64, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}

	fullPath := getFullPath(m.cfg.BasePath, key)
	reader := newProgressReader(f, st.Size(), fullPath, Minio, nil)
	info, err := m.client.PutObject(ctx, m.cfg.Bucket, fullPath, reader, st.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("put object %s: %w", fullPath, err)
	}
	reader.LogProgress()
	return info.Size, nil
}

func (m *minioStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	fullPath := getFullPath(m.cfg.BasePath, key)
	u, err := m.client.PresignedGetObject(ctx, m.cfg.Bucket, fullPath, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", fullPath, err)
	}
	return u.String(), nil
}
