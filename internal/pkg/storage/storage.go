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
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/arcentrix/runstream/pkg/env"
	"github.com/arcentrix/runstream/pkg/log"
)

const (
	Minio = "minio"
	S3    = "s3"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// Storage is the storage section of the application config.
type Storage struct {
	Provider         string        `mapstructure:"provider"`
	AccessKey        string        `mapstructure:"accessKey"`
	SecretKey        string        `mapstructure:"secretKey"`
	Endpoint         string        `mapstructure:"endpoint"`
	Bucket           string        `mapstructure:"bucket"`
	Region           string        `mapstructure:"region"`
	UseTLS           bool          `mapstructure:"useTLS"`
	BasePath         string        `mapstructure:"basePath"`
	AutoCreateBucket bool          `mapstructure:"autoCreateBucket"`
	PresignExpiry    time.Duration `mapstructure:"presignExpiry"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

func (s *Storage) SetDefaults() {
	if s.Provider == "" {
		s.Provider = Minio
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	if s.PresignExpiry <= 0 {
		s.PresignExpiry = time.Hour
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	s.AccessKey = env.GetEnvString("RUNSTREAM_STORAGE_ACCESS_KEY", s.AccessKey)
	s.SecretKey = env.GetEnvString("RUNSTREAM_STORAGE_SECRET_KEY", s.SecretKey)
}

// IStorage is an object store that can hand out time-limited download links.
type IStorage interface {
	// Upload stores the local file at key and returns the bytes written.
	Upload(ctx context.Context, key string, filePath string, contentType string) (int64, error)
	// PresignGet returns a GET URL for key valid for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Provider() string
}

// NewStorage builds the provider named in s.
func NewStorage(s *Storage) (IStorage, error) {
	if s.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrNotConfigured)
	}
	switch s.Provider {
	case Minio:
		return newMinio(s)
	case S3:
		return newS3(s)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", s.Provider)
	}
}

// ProgressReader counts bytes read, passing Seek through when the source supports it.
type ProgressReader struct {
	reader     io.Reader
	uploaded   int64
	total      int64
	fullPath   string
	provider   string
	onProgress func(uploaded int64)
}

func newProgressReader(reader io.Reader, total int64, fullPath, provider string, onProgress func(int64)) *ProgressReader {
	return &ProgressReader{
		reader:     reader,
		total:      total,
		fullPath:   fullPath,
		provider:   provider,
		onProgress: onProgress,
	}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.uploaded += int64(n)
		if pr.onProgress != nil {
			pr.onProgress(pr.uploaded)
		}
	}
	return n, err
}

func (pr *ProgressReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := pr.reader.(io.Seeker)
	if !ok {
		return 0, errors.New("progress reader: source is not seekable")
	}
	pos, err := s.Seek(offset, whence)
	if err == nil {
		pr.uploaded = pos
	}
	return pos, err
}

func (pr *ProgressReader) Uploaded() int64 {
	return pr.uploaded
}

// LogProgress logs the upload position at debug level.
func (pr *ProgressReader) LogProgress() {
	progress := 100.0
	if pr.total > 0 {
		progress = float64(pr.uploaded) * 100 / float64(pr.total)
	}
	log.Debugw("upload progress", "provider", pr.provider, "fullPath", pr.fullPath, "progress", progress, "uploaded", pr.uploaded, "total", pr.total)
}

// getFullPath joins BasePath and objectName with forward slashes.
func getFullPath(basePath, objectName string) string {
	objectName = strings.TrimPrefix(objectName, "/")
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return objectName
	}
	return path.Join(basePath, objectName)
}
