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
	"fmt"
	"os"
	"strings"

	"github.com/arcentrix/runstream/pkg/mq"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Config is the kafka section of the application config.
type Config struct {
	Enabled          bool       `mapstructure:"enabled"`
	BootstrapServers string     `mapstructure:"bootstrapServers"`
	Topic            string     `mapstructure:"topic"`
	ClientID         string     `mapstructure:"clientId"`
	Acks             string     `mapstructure:"acks"`
	Retries          int        `mapstructure:"retries"`
	Compression      string     `mapstructure:"compression"`
	LingerMs         int        `mapstructure:"lingerMs"`
	SecurityProtocol string     `mapstructure:"securityProtocol"`
	Sasl             SaslConfig `mapstructure:"sasl"`
	Ssl              SslConfig  `mapstructure:"ssl"`
}

type SaslConfig struct {
	Mechanism string `mapstructure:"mechanism"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

type SslConfig struct {
	CaFile   string `mapstructure:"caFile"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	Password string `mapstructure:"password"`
}

const DefaultTopic = "RUN_LOGS"

func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.ClientID == "" {
		c.ClientID = "runstream"
	}
	if c.Acks == "" {
		c.Acks = "1"
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.LingerMs == 0 {
		c.LingerMs = 20
	}
}

// Validate checks the fields librdkafka would otherwise reject at runtime.
func (c *Config) Validate() error {
	if err := mq.RequireNonEmpty("bootstrapServers", c.BootstrapServers); err != nil {
		return err
	}
	if err := mq.RequireNonEmpty("topic", c.Topic); err != nil {
		return err
	}
	if err := mq.RequireOneOf("acks", c.Acks, "0", "1", "all", "-1"); err != nil {
		return err
	}
	return mq.RequireOneOf("compression", c.Compression, "none", "gzip", "snappy", "lz4", "zstd")
}

// buildConfigMap translates Config into librdkafka keys. Empty values are left out.
func buildConfigMap(cfg Config) (*kafka.ConfigMap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientID, err := buildClientID(cfg.ClientID)
	if err != nil {
		return nil, err
	}

	config := &kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"client.id":         clientID,
		"acks":              cfg.Acks,
		"retries":           cfg.Retries,
		"compression.type":  cfg.Compression,
		"linger.ms":         cfg.LingerMs,
	}
	optional := map[string]string{
		"security.protocol":        cfg.SecurityProtocol,
		"sasl.mechanism":           cfg.Sasl.Mechanism,
		"sasl.username":            cfg.Sasl.Username,
		"sasl.password":            cfg.Sasl.Password,
		"ssl.ca.location":          cfg.Ssl.CaFile,
		"ssl.certificate.location": cfg.Ssl.CertFile,
		"ssl.key.location":         cfg.Ssl.KeyFile,
		"ssl.key.password":         cfg.Ssl.Password,
	}
	for k, v := range optional {
		if v != "" {
			_ = config.SetKey(k, v)
		}
	}
	return config, nil
}

func buildClientID(clientID string) (string, error) {
	if err := mq.RequireNonEmpty("clientId", clientID); err != nil {
		return "", err
	}
	hostname, err := os.Hostname()
	if err != nil || strings.TrimSpace(hostname) == "" {
		hostname = "UNKNOWN"
	}
	return strings.ToUpper(fmt.Sprintf("%s_CLIENT_%s", clientID, hostname)), nil
}
