package infra

import (
	"context"
	"encoding/json"
	"time"

	"checkout-service/internal/domain"

	"github.com/go-redis/redis/v8"
)

// pendingTTL bounds how long an abandoned checkout keeps its snapshot
// around. A user who never completes payment leaves nothing behind.
const pendingTTL = time.Hour

// RedisPendingStore keeps the PendingPayment snapshot server-side between
// checkout submission and reconciliation, so the webhook path can create the
// order without trusting client-supplied metadata.
type RedisPendingStore struct {
	client *redis.Client
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func pendingKey(merchantTxID string) string {
	return "pending:payment:" + merchantTxID
}

func (s *RedisPendingStore) Put(ctx context.Context, p *domain.PendingPayment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, pendingKey(p.MerchantTxID), data, pendingTTL).Err()
}

// Get returns nil, nil when no snapshot exists.
func (s *RedisPendingStore) Get(ctx context.Context, merchantTxID string) (*domain.PendingPayment, error) {
	data, err := s.client.Get(ctx, pendingKey(merchantTxID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p domain.PendingPayment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, merchantTxID string) error {
	return s.client.Del(ctx, pendingKey(merchantTxID)).Err()
}
