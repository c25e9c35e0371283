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

package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/google/uuid"
)

var ErrUploadFailure = errors.New("failed to upload artifacts")

const bundleContentType = "application/zip"

// Published describes an uploaded bundle.
type Published struct {
	Key       string
	SignedURL string
	Size      int64
}

// Publisher uploads bundles and cleans up after a successful upload.
type Publisher struct {
	store    storage.IStorage
	preparer *workspace.Preparer
	expiry   time.Duration
	timeout  time.Duration
	newKey   func(sessionID string) string
}

func NewPublisher(store storage.IStorage, preparer *workspace.Preparer, conf storage.Storage) *Publisher {
	conf.SetDefaults()
	return &Publisher{
		store:    store,
		preparer: preparer,
		expiry:   conf.PresignExpiry,
		timeout:  conf.Timeout,
		newKey:   ObjectKey,
	}
}

// ObjectKey returns artifacts/<sessionID>/<uuid>.zip.
func ObjectKey(sessionID string) string {
	return fmt.Sprintf("artifacts/%s/%s.zip", sessionID, uuid.NewString())
}

// Publish uploads bundlePath under a fresh key and presigns it. On success the
// bundle and the workspace are removed; on failure both are kept for inspection.
func (p *Publisher) Publish(ctx context.Context, sessionID string, bundlePath string, ws *workspace.Workspace) (*Published, error) {
	key := p.newKey(sessionID)

	uploadCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	size, err := p.store.Upload(uploadCtx, key, bundlePath, bundleContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailure, err)
	}
	signed, err := p.store.PresignGet(uploadCtx, key, p.expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: presign: %v", ErrUploadFailure, err)
	}

	if err := os.Remove(bundlePath); err != nil && !os.IsNotExist(err) {
		log.Warnw("failed to remove bundle", "path", bundlePath, "error", err)
	}
	if err := p.preparer.Remove(ws); err != nil {
		log.Warnw("failed to remove workspace", "dir", ws.Dir, "error", err)
	}
	return &Published{Key: key, SignedURL: signed, Size: size}, nil
}
