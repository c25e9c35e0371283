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

package kafka

import (
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideProducer)

// ProvideProducer returns a nil producer when kafka is disabled.
func ProvideProducer(cfg Config) (*Producer, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	p, err := NewProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("kafka producer ready", "bootstrapServers", cfg.BootstrapServers, "topic", p.Topic())
	return p, p.Close, nil
}
