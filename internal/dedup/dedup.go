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

// Package dedup provides cross-sweep message deduplication using Redis keys
// with TTL. Overlapping fetch windows (a manual scan racing a scheduled
// sweep, or a window retried after a failed sweep) would otherwise
// re-normalise and re-score the same messages.
//
// Check and mark are separate: Seen is consulted before scoring, Mark is
// called only after a successful merge. A failed sweep therefore leaves its
// window unmarked and the retry processes it in full.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long we remember a seen message ID. The merge is
	// idempotent, so an expired entry costs one redundant scoring pass,
	// nothing more.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces dedup keys in Redis.
	keyPrefix = "phishguard:seen:"
)

// Filter tracks which (user, message) pairs have already been scored and
// merged.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilter creates a dedup filter backed by Redis.
func NewFilter(rdb *redis.Client) *Filter {
	return &Filter{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

func key(userID, messageID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, userID, messageID)
}

// Seen reports whether the message was already processed for this user.
func (f *Filter) Seen(ctx context.Context, userID, messageID string) (bool, error) {
	n, err := f.rdb.Exists(ctx, key(userID, messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup EXISTS: %w", err)
	}
	return n > 0, nil
}

// Mark records the messages as processed for this user, with TTL.
func (f *Filter) Mark(ctx context.Context, userID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	pipe := f.rdb.Pipeline()
	for _, id := range messageIDs {
		pipe.Set(ctx, key(userID, id), 1, f.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}
