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
	"github.com/arcentrix/runstream/pkg/log"
	"gorm.io/gorm"
)

type IResultRepository interface {
	// Upsert overwrites every result column of the session's latest record.
	// A session without records is logged and ignored.
	Upsert(ctx context.Context, sessionID string, res *model.ExecutionResult) error
	// Get returns the result on the latest record; Status is empty when none was written.
	Get(ctx context.Context, sessionID string) (*model.ExecutionResult, error)
}

type ResultRepo struct {
	database.IDatabase
}

func NewResultRepo(db database.IDatabase) IResultRepository {
	return &ResultRepo{IDatabase: db}
}

func (r *ResultRepo) Upsert(ctx context.Context, sessionID string, res *model.ExecutionResult) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.ScriptRecord
		err := latestQuery(tx, sessionID).Select("id").First(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnw("no script record to attach result to", "sessionId", sessionID, "runId", res.RunID)
				return nil
			}
			return fmt.Errorf("locate latest script for %s: %w", sessionID, err)
		}
		err = tx.Model(&model.ScriptRecord{}).
			Where("id = ?", rec.ID).
			Updates(res.ResultColumns()).Error
		if err != nil {
			return fmt.Errorf("write result for %s: %w", sessionID, err)
		}
		return nil
	})
}

func (r *ResultRepo) Get(ctx context.Context, sessionID string) (*model.ExecutionResult, error) {
	var rec model.ScriptRecord
	err := latestQuery(r.Database().WithContext(ctx), sessionID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, sessionID)
		}
		return nil, fmt.Errorf("query result for %s: %w", sessionID, err)
	}
	res, _ := model.ResultFromRecord(&rec)
	return res, nil
}
