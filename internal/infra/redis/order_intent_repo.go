package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var _ repository.OrderIntentRepository = (*OrderIntentRepo)(nil)

// OrderIntentRepo keeps who-ordered-what between order creation and verification.
type OrderIntentRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewOrderIntentRepo(client RedisClient, ttl time.Duration) *OrderIntentRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OrderIntentRepo{client: client, ttl: ttl}
}

func (r *OrderIntentRepo) key(orderID string) string {
	return "order_intent:" + orderID
}

func (r *OrderIntentRepo) Save(ctx context.Context, in *model.OrderIntent) error {
	if in == nil || in.OrderID == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(in.OrderID), data, r.ttl)
}

func (r *OrderIntentRepo) Find(ctx context.Context, orderID string) (*model.OrderIntent, error) {
	data, err := r.client.Get(ctx, r.key(orderID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var in model.OrderIntent
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, err
	}
	return &in, nil
}
