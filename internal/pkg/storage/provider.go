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
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/google/wire"
)

// ProviderSet provides the artifact object store.
var ProviderSet = wire.NewSet(ProvideStorage)

// ProvideStorage builds the configured provider. The logger argument orders
// construction after logging is configured.
func ProvideStorage(conf Storage, _ *log.Logger) (IStorage, error) {
	conf.SetDefaults()
	st, err := NewStorage(&conf)
	if err != nil {
		return nil, err
	}
	log.Infow("object storage ready", "provider", st.Provider(), "endpoint", conf.Endpoint, "bucket", conf.Bucket)
	return st, nil
}
