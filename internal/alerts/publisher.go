// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package alerts publishes high-risk scan results to a Redis list so
// downstream notifiers (mail, chat, SIEM forwarders) can react without
// polling scan records.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Aaditya-03-03/PhisGuard-Ai-sub000/internal/models"
)

// Publisher sends high-risk alert events to Redis.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a Redis publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// Event is the JSON envelope consumers read from the queue.
type Event struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	MessageID  string    `json:"message_id"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	Score      float64   `json:"score"`
	Flags      []string  `json:"flags"`
	ReceivedAt time.Time `json:"received_at"`
	DetectedAt time.Time `json:"detected_at"`
}

// PublishHighRisk pushes one alert event per HIGH-level message in the
// batch. Lower levels are ignored.
func (p *Publisher) PublishHighRisk(ctx context.Context, userID string, batch []models.ScoredMessage) error {
	for _, msg := range batch {
		if msg.Level != models.RiskHigh {
			continue
		}

		event := Event{
			EventID:    uuid.NewString(),
			UserID:     userID,
			MessageID:  msg.ID,
			Subject:    msg.Subject,
			Sender:     msg.Sender,
			Score:      msg.Score,
			Flags:      msg.Flags,
			ReceivedAt: msg.ReceivedAt,
			DetectedAt: time.Now().UTC(),
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal alert event: %w", err)
		}

		if err := p.rdb.LPush(ctx, p.queueName, payload).Err(); err != nil {
			return fmt.Errorf("redis LPUSH: %w", err)
		}

		slog.Info("published high-risk alert",
			"event_id", event.EventID,
			"user", userID,
			"message_id", msg.ID,
			"score", msg.Score,
			"queue", p.queueName,
		)
	}
	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
