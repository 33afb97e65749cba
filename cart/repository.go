// Package cart persists carts as single JSON documents in Redis, keyed by
// the owning identity. The store offers document-level get/put/delete only;
// there are no cross-document transactions.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rabbitio/storefront/models"
)

var _ Repository = (*repository)(nil)

// guestCartTTL is the inactivity window after which an unmerged guest cart
// document expires. User carts never expire.
const guestCartTTL = 7 * 24 * time.Hour

type Repository interface {
	Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	Put(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, owner models.CartOwner) error
}

type repository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRepository(client *redis.Client, logger *zap.Logger) Repository {
	return &repository{
		client: client,
		logger: logger,
	}
}

func (r *repository) Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	data, err := r.client.Get(ctx, owner.StorageKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrCartNotFound
	}
	if err != nil {
		r.logger.Error("Failed to read cart document", zap.String("key", owner.StorageKey()), zap.Error(err))
		return nil, fmt.Errorf("get cart document: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		r.logger.Error("Failed to decode cart document", zap.String("key", owner.StorageKey()), zap.Error(err))
		return nil, fmt.Errorf("decode cart document: %w", err)
	}

	return &cart, nil
}

// Put writes the whole cart document in one atomic SET. Guest carts carry a
// TTL refreshed on every write; user carts are written without expiry.
func (r *repository) Put(ctx context.Context, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart document: %w", err)
	}

	var ttl time.Duration
	if cart.Owner.IsGuest() {
		ttl = guestCartTTL
	}

	if err := r.client.Set(ctx, cart.Owner.StorageKey(), data, ttl).Err(); err != nil {
		r.logger.Error("Failed to write cart document", zap.String("key", cart.Owner.StorageKey()), zap.Error(err))
		return fmt.Errorf("put cart document: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, owner models.CartOwner) error {
	if err := r.client.Del(ctx, owner.StorageKey()).Err(); err != nil {
		r.logger.Error("Failed to delete cart document", zap.String("key", owner.StorageKey()), zap.Error(err))
		return fmt.Errorf("delete cart document: %w", err)
	}
	return nil
}
