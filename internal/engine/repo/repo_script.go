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

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcentrix/runstream/internal/engine/model"
	"github.com/arcentrix/runstream/pkg/database"
	"gorm.io/gorm"
)

var ErrScriptNotFound = errors.New("no script for session")

type IScriptRepository interface {
	// Latest returns the newest record of the session, ties broken by the highest id.
	Latest(ctx context.Context, sessionID string) (*model.ScriptRecord, error)
	Create(ctx context.Context, rec *model.ScriptRecord) error
}

type ScriptRepo struct {
	database.IDatabase
}

func NewScriptRepo(db database.IDatabase) IScriptRepository {
	return &ScriptRepo{IDatabase: db}
}

func latestQuery(db *gorm.DB, sessionID string) *gorm.DB {
	return db.Model(&model.ScriptRecord{}).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC")
}

func (r *ScriptRepo) Latest(ctx context.Context, sessionID string) (*model.ScriptRecord, error) {
	var rec model.ScriptRecord
	err := latestQuery(r.Database().WithContext(ctx), sessionID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, sessionID)
		}
		return nil, fmt.Errorf("query latest script for %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (r *ScriptRepo) Create(ctx context.Context, rec *model.ScriptRecord) error {
	return r.Database().WithContext(ctx).Create(rec).Error
}
