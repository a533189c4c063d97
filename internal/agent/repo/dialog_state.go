package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aeg-helpline/server/internal/agent/model"
	errx "github.com/aeg-helpline/server/internal/core/error"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

// RedisDialogStateRepository stores the dialog stack of a conversation as one
// JSON document under help:conversation:<id>:dialog.
type RedisDialogStateRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisDialogStateRepository(rdb redis.Cmdable, ttl time.Duration) *RedisDialogStateRepository {
	return &RedisDialogStateRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func (r *RedisDialogStateRepository) stateKey(conversationID string) string {
	return fmt.Sprintf("help:conversation:%s:dialog", conversationID)
}

func (r *RedisDialogStateRepository) Load(ctx context.Context, conversationID string) (*model.DialogState, error) {
	key := r.stateKey(conversationID)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.DialogState{ConversationID: conversationID}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load dialog state from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.DialogState
	if err := json.Unmarshal(raw, &state); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to unmarshal dialog state")
		return nil, fmt.Errorf("unmarshal dialog state: %w", err)
	}
	state.ConversationID = conversationID
	return &state, nil
}

func (r *RedisDialogStateRepository) Save(ctx context.Context, conversationID string, state *model.DialogState) error {
	if state == nil {
		return fmt.Errorf("dialog state is nil")
	}
	state.ConversationID = conversationID
	state.UpdatedAt = r.now().UTC()
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to marshal dialog state")
		return fmt.Errorf("marshal dialog state: %w", err)
	}

	key := r.stateKey(conversationID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save dialog state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisDialogStateRepository) Delete(ctx context.Context, conversationID string) error {
	key := r.stateKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete dialog state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.DialogStateRepository = (*RedisDialogStateRepository)(nil)
