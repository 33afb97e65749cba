package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/rabbitio/storefront/event"
	"github.com/rabbitio/storefront/models"
	"github.com/rabbitio/storefront/models/enum"
)

// Cart mutations are published under storefront.cart.*; product events from
// the catalog admin service arrive under catalog.product.*.
const (
	cartSubjectPrefix   = "storefront."
	productEventSubject = "catalog.product.>"
)

type EventHandler func(context.Context, *models.Event) error

type EventManager struct {
	natsConn *nats.Conn
	handlers map[enum.EventType]EventHandler
	logger   *zap.Logger
}

func NewEventManager(natsConn *nats.Conn, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn: natsConn,
		handlers: make(map[enum.EventType]EventHandler),
		logger:   logger,
	}
}

func (em *EventManager) RegisterHandler(eventType enum.EventType, handler EventHandler) {
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType enum.EventType) (EventHandler, bool) {
	handler, exists := em.handlers[eventType]
	return handler, exists
}

// SubscribeToProductEvents feeds inbound product events into the worker
// pool. A nil connection disables the event stream entirely.
func (em *EventManager) SubscribeToProductEvents(wp *WorkerPool) error {
	if em.natsConn == nil {
		return nil
	}

	_, err := em.natsConn.Subscribe(productEventSubject, func(msg *nats.Msg) {
		var event models.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			em.logger.Error("Failed to unmarshal event", zap.Error(err))
			return
		}

		wp.Submit(context.Background(), &event)
	})

	return err
}

// PublishCartEvent emits a cart lifecycle event for downstream consumers.
// Publish failures are logged, never surfaced: the cart write has already
// succeeded and the event stream is best-effort.
func (em *EventManager) PublishCartEvent(eventType enum.EventType, cart *models.Cart) {
	if em.natsConn == nil {
		return
	}

	payload, err := json.Marshal(models.CartEventPayload{
		OwnerKind:  cart.Owner.Kind,
		OwnerID:    cart.Owner.ID,
		ItemCount:  len(cart.Items),
		TotalPrice: cart.TotalPrice,
	})
	if err != nil {
		em.logger.Error("Failed to marshal cart event payload", zap.Error(err))
		return
	}

	event := models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		em.logger.Error("Failed to marshal cart event", zap.Error(err))
		return
	}

	if err := em.natsConn.Publish(cartSubjectPrefix+string(eventType), data); err != nil {
		em.logger.Error("Failed to publish cart event",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func (s *service) registerEventHandlers() {
	eventHandlers := map[enum.EventType]EventHandler{
		enum.EventTypeProductUpdated: s.handleProductUpdated,
		enum.EventTypeProductDeleted: s.handleProductDeleted,
	}

	for eventType, handler := range eventHandlers {
		s.eventManager.RegisterHandler(eventType, handler)
	}
}

// handleProductUpdated drops the cached product so the next catalog read
// sees fresh data. Cart line items keep their add-time snapshots on purpose.
func (s *service) handleProductUpdated(ctx context.Context, event *models.Event) error {
	var payload models.ProductEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal product event payload: %w", err)
	}

	s.catalog.InvalidateCache(ctx, payload.ProductID)
	s.logger.Info("Product cache invalidated", zap.String("product_id", payload.ProductID))

	return nil
}

func (s *service) handleProductDeleted(ctx context.Context, event *models.Event) error {
	var payload models.ProductEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal product event payload: %w", err)
	}

	s.catalog.InvalidateCache(ctx, payload.ProductID)
	s.logger.Info("Deleted product evicted from cache", zap.String("product_id", payload.ProductID))

	return nil
}

// ProcessEvent deduplicates on the persisted Processed flag: a redelivery is
// skipped only once a handler has completed; a recorded-but-unprocessed event
// (an earlier handler failure) is retried.
func (s *service) ProcessEvent(ctx context.Context, evt *models.Event) error {
	handler, exists := s.eventManager.GetHandler(evt.Type)
	if !exists {
		return fmt.Errorf("no handler registered for event type: %s", evt.Type)
	}

	seen, err := s.event.GetByID(ctx, evt.ID)
	switch {
	case err == nil && seen.Processed:
		s.logger.Info("Event already processed", zap.String("event_id", evt.ID))
		return nil
	case err == nil:
		// recorded on a previous delivery whose handler failed; retry
	case errors.Is(err, event.ErrEventNotFound):
		if err := s.event.Create(ctx, &models.Event{
			ID:        evt.ID,
			Type:      evt.Type,
			Payload:   evt.Payload,
			Processed: false,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}); err != nil {
			s.logger.Error("Failed to create event", zap.Error(err))
			return err
		}
	default:
		return err
	}

	if err := handler(ctx, evt); err != nil {
		s.logger.Error("Failed to handle event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", string(evt.Type)),
			zap.Error(err),
		)
		return err
	}

	if err := s.event.MarkAsProcessed(ctx, evt.ID); err != nil {
		return err
	}

	s.logger.Info("Product event processed", zap.String("event_id", evt.ID))

	return nil
}
