// Package storefront wires the cart consolidation engine, the product
// catalog and user accounts into one service. Carts live as single
// documents in the cart store; every mutation is one read-modify-write
// cycle, and the total price is recomputed before each persist.
package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/rabbitio/storefront/auth"
	"github.com/rabbitio/storefront/cart"
	"github.com/rabbitio/storefront/catalog"
	"github.com/rabbitio/storefront/driver"
	"github.com/rabbitio/storefront/event"
	"github.com/rabbitio/storefront/models"
	"github.com/rabbitio/storefront/models/enum"
	"github.com/rabbitio/storefront/user"
)

const defaultCurrency = stripe.CurrencyUSD

type Service interface {
	ResolveCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	AddItemToCart(ctx context.Context, owner models.CartOwner, productID string, quantity int, size, color string) (*models.Cart, error)
	UpdateCartItemQuantity(ctx context.Context, owner models.CartOwner, key models.LineItemKey, quantity int) (*models.Cart, error)
	RemoveItemFromCart(ctx context.Context, owner models.CartOwner, key models.LineItemKey) (*models.Cart, error)
	MergeGuestCartIntoUser(ctx context.Context, userID, guestID string) (*models.Cart, error)

	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	RegisterUser(ctx context.Context, name, email, password string) (*models.User, string, error)
	LoginUser(ctx context.Context, email, password string) (*models.User, string, error)
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)

	Shutdown()
}

type service struct {
	cart    cart.Repository
	catalog catalog.Repository
	user    user.Repository
	event   event.Repository

	transactionManager *driver.TransactionManager
	eventManager       *EventManager
	workerPool         *WorkerPool
	tokens             *auth.TokenIssuer

	logger *zap.Logger
}

func NewService(
	cart cart.Repository, catalog catalog.Repository, user user.Repository, event event.Repository,
	tm *driver.TransactionManager, natsConn *nats.Conn, tokens *auth.TokenIssuer,
	logger *zap.Logger) Service {
	s := &service{
		cart:               cart,
		catalog:            catalog,
		user:               user,
		event:              event,
		transactionManager: tm,
		tokens:             tokens,
		logger:             logger,
	}
	s.eventManager = NewEventManager(natsConn, logger)
	s.workerPool = NewWorkerPool(10, s, logger)
	s.registerEventHandlers()

	if err := s.eventManager.SubscribeToProductEvents(s.workerPool); err != nil {
		logger.Error("Failed to subscribe to product events", zap.Error(err))
	}

	return s
}

func (s *service) ResolveCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: cart owner is required", models.ErrInvalidInput)
	}
	return s.cart.Get(ctx, owner)
}

// AddItemToCart snapshots the product's name, image and price from the
// catalog and upserts a line item keyed by (product, size, color). A missing
// cart is created; a guest caller without an id gets a synthesized one. The
// catalog read and the cart write are two independent calls: a price change
// between them is an accepted stale-read, not an error.
func (s *service) AddItemToCart(ctx context.Context, owner models.CartOwner, productID string, quantity int, size, color string) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrInvalidInput)
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if owner.IsZero() {
		owner = models.GuestOwner("guest_" + uuid.NewString())
	}

	cartModel, err := s.cart.Get(ctx, owner)
	if errors.Is(err, models.ErrCartNotFound) {
		cartModel = models.NewCart(owner, defaultCurrency)
	} else if err != nil {
		return nil, err
	}

	cartModel.Upsert(models.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.PrimaryImage(),
		Size:      size,
		Color:     color,
		Quantity:  quantity,
		UnitPrice: product.Price,
	})

	if err := s.cart.Put(ctx, cartModel); err != nil {
		return nil, err
	}

	s.eventManager.PublishCartEvent(enum.EventTypeCartUpdated, cartModel)

	return cartModel, nil
}

// UpdateCartItemQuantity sets an absolute quantity on the matching line
// item; zero or less removes it, by policy.
func (s *service) UpdateCartItemQuantity(ctx context.Context, owner models.CartOwner, key models.LineItemKey, quantity int) (*models.Cart, error) {
	cartModel, err := s.cart.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	if !cartModel.SetQuantity(key, quantity) {
		return nil, models.ErrLineItemNotFound
	}

	if err := s.cart.Put(ctx, cartModel); err != nil {
		return nil, err
	}

	s.eventManager.PublishCartEvent(enum.EventTypeCartUpdated, cartModel)

	return cartModel, nil
}

func (s *service) RemoveItemFromCart(ctx context.Context, owner models.CartOwner, key models.LineItemKey) (*models.Cart, error) {
	cartModel, err := s.cart.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	if !cartModel.Remove(key) {
		return nil, models.ErrLineItemNotFound
	}

	if err := s.cart.Put(ctx, cartModel); err != nil {
		return nil, err
	}

	s.eventManager.PublishCartEvent(enum.EventTypeCartUpdated, cartModel)

	return cartModel, nil
}

// MergeGuestCartIntoUser folds a guest cart into the authenticated user's
// cart on login: a key-based multiset union that sums quantities on matching
// (product, size, color) keys. The merged cart is persisted before the guest
// document is deleted, so a failed write leaves the guest cart intact and
// the merge can be retried. userID must come from the verified identity,
// never from the request body.
func (s *service) MergeGuestCartIntoUser(ctx context.Context, userID, guestID string) (*models.Cart, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: merge requires an authenticated user", models.ErrUnauthorized)
	}
	if guestID == "" {
		return nil, fmt.Errorf("%w: guest id is required", models.ErrInvalidInput)
	}

	guestOwner := models.GuestOwner(guestID)
	userOwner := models.UserOwner(userID)

	guestCart, err := s.cart.Get(ctx, guestOwner)
	if err != nil {
		return nil, err
	}

	userCart, err := s.cart.Get(ctx, userOwner)
	if err != nil && !errors.Is(err, models.ErrCartNotFound) {
		return nil, err
	}
	hasUserCart := err == nil

	// Empty guest cart: nothing to fold in. The user's cart is returned
	// untouched and the stale guest document is cleaned up.
	if len(guestCart.Items) == 0 {
		if err := s.cart.Delete(ctx, guestOwner); err != nil {
			s.logger.Warn("Failed to delete empty guest cart", zap.String("guest_id", guestID), zap.Error(err))
		}
		if hasUserCart {
			return userCart, nil
		}
		return models.NewCart(userOwner, defaultCurrency), nil
	}

	var merged *models.Cart
	if hasUserCart {
		userCart.MergeFrom(guestCart)
		merged = userCart
	} else {
		// No user cart yet: the guest cart is re-keyed to the user,
		// transferring line-item ownership wholesale.
		guestCart.Owner = userOwner
		merged = guestCart
	}

	if err := s.cart.Put(ctx, merged); err != nil {
		return nil, err
	}

	// The merge is complete only once the guest document is gone.
	if err := s.cart.Delete(ctx, guestOwner); err != nil {
		return nil, err
	}

	s.logger.Info("Guest cart merged",
		zap.String("user_id", userID),
		zap.String("guest_id", guestID),
		zap.Int("items", len(merged.Items)))
	s.eventManager.PublishCartEvent(enum.EventTypeCartMerged, merged)

	return merged, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.catalog.FindByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]*models.Product, error) {
	return s.catalog.List(ctx, filter)
}

func (s *service) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.catalog.Create(ctx, tx, product)
	})
}

func (s *service) UpdateProduct(ctx context.Context, product *models.Product) error {
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.catalog.Update(ctx, tx, product)
	})
	if err != nil {
		return err
	}

	// only after commit: an earlier invalidation could be re-filled with the
	// pre-update row by a concurrent read
	s.catalog.InvalidateCache(ctx, product.ID)

	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.catalog.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.catalog.InvalidateCache(ctx, id)

	return nil
}

func (s *service) RegisterUser(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if name == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: name, email and password are required", models.ErrInvalidInput)
	}

	if _, err := s.user.GetByEmail(ctx, email); err == nil {
		return nil, "", models.ErrUserExists
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	newUser := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     enum.UserRoleCustomer,
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.user.Create(ctx, tx, newUser)
	}); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(newUser)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered", zap.String("user_id", newUser.ID))

	return newUser, token, nil
}

func (s *service) LoginUser(ctx context.Context, email, password string) (*models.User, string, error) {
	userModel, err := s.user.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, "", models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if !auth.CheckPassword(userModel.Password, password) {
		return nil, "", models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(userModel)
	if err != nil {
		return nil, "", err
	}

	return userModel, token, nil
}

func (s *service) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.user.GetByID(ctx, userID)
}

// Shutdown drains the event worker pool. Call it after the HTTP server has
// stopped accepting requests.
func (s *service) Shutdown() {
	s.workerPool.Shutdown()
}
