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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arcentrix/runstream/pkg/log"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

var ErrProducerClosed = errors.New("kafka producer is closed")

// Producer publishes to a single topic without waiting for delivery.
// Delivery failures are logged from a background goroutine.
type Producer struct {
	producer *kafka.Producer
	topic    string

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewProducer connects a producer for cfg.Topic.
func NewProducer(cfg Config) (*Producer, error) {
	cfg.SetDefaults()
	config, err := buildConfigMap(cfg)
	if err != nil {
		return nil, err
	}
	p, err := kafka.NewProducer(config)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	producer := &Producer{
		producer: p,
		topic:    cfg.Topic,
		done:     make(chan struct{}),
	}
	go producer.drainEvents()
	return producer, nil
}

func (p *Producer) drainEvents() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				log.Warnw("kafka delivery failed", "topic", p.topic, "error", ev.TopicPartition.Error)
			}
		case kafka.Error:
			log.Warnw("kafka producer error", "code", ev.Code().String(), "error", ev)
		}
	}
}

// Topic returns the destination topic.
func (p *Producer) Topic() string {
	return p.topic
}

// Send enqueues one message. It returns once librdkafka has accepted it.
func (p *Producer) Send(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("producer is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}
	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(key),
		Value:   value,
		Headers: kafkaHeaders,
	}
	if err := p.producer.Produce(message, nil); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}
	return nil
}

// Close flushes pending messages for up to 15s and closes the producer.
func (p *Producer) Close() {
	if p == nil || p.producer == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if remaining := p.producer.Flush(15 * 1000); remaining > 0 {
		log.Warnw("kafka producer closed with undelivered messages", "topic", p.topic, "remaining", remaining)
	}
	p.producer.Close()
	<-p.done
}
