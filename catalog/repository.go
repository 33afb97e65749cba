// Package catalog is the product catalog: Postgres-backed CRUD plus the
// FindByID snapshot lookup the cart engine consumes. Product reads are
// cached in Redis; the service invalidates after a write commits and on
// product events, so a concurrent read cannot re-cache a pre-commit row.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rabbitio/storefront/driver"
	"github.com/rabbitio/storefront/models"
)

var _ Repository = (*repository)(nil)

const cacheTTL = 30 * time.Minute

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, product *models.Product) error
	Update(ctx context.Context, tx pgx.Tx, product *models.Product) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	InvalidateCache(ctx context.Context, id string)
}

type repository struct {
	conn   driver.PostgresPool
	cache  *redis.Client
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, cache *redis.Client, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		cache:  cache,
		logger: logger,
	}
}

const productColumns = `id, name, description, price, discount_price, count_in_stock, sku,
	category, brand, sizes, colors, collection, material, gender, images, rating,
	is_published, created_at, updated_at`

func (r *repository) Create(ctx context.Context, tx pgx.Tx, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := tx.Exec(ctx, `
		INSERT INTO products (id, name, description, price, discount_price, count_in_stock, sku,
			category, brand, sizes, colors, collection, material, gender, images, rating,
			is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		product.ID, product.Name, product.Description, product.Price, product.DiscountPrice,
		product.CountInStock, product.SKU, product.Category, product.Brand, product.Sizes,
		product.Colors, product.Collection, product.Material, product.Gender, product.Images,
		product.Rating, product.IsPublished, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, tx pgx.Tx, product *models.Product) error {
	product.UpdatedAt = time.Now()

	tag, err := tx.Exec(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, discount_price = $5,
			count_in_stock = $6, sku = $7, category = $8, brand = $9, sizes = $10, colors = $11,
			collection = $12, material = $13, gender = $14, images = $15, rating = $16,
			is_published = $17, updated_at = $18
		WHERE id = $1`,
		product.ID, product.Name, product.Description, product.Price, product.DiscountPrice,
		product.CountInStock, product.SKU, product.Category, product.Brand, product.Sizes,
		product.Colors, product.Collection, product.Material, product.Gender, product.Images,
		product.Rating, product.IsPublished, product.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}

	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := productCacheKey(id)

	if data, err := r.cache.Get(ctx, cacheKey).Bytes(); err == nil {
		var product models.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		r.logger.Warn("Failed to decode cached product", zap.String("product_id", id))
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("Failed to get product from cache", zap.Error(err))
	}

	row := r.conn.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("get product: %w", err)
	}

	if data, err := json.Marshal(product); err == nil {
		if err := r.cache.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
			r.logger.Warn("Failed to cache product", zap.Error(err))
		}
	}

	return product, nil
}

func (r *repository) List(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	tail, args := filter.toSQL()

	rows, err := r.conn.Query(ctx, `SELECT `+productColumns+` FROM products`+tail, args...)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (r *repository) InvalidateCache(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, productCacheKey(id)).Err(); err != nil {
		r.logger.Warn("Failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}
}

func productCacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.CountInStock,
		&p.SKU, &p.Category, &p.Brand, &p.Sizes, &p.Colors, &p.Collection, &p.Material,
		&p.Gender, &p.Images, &p.Rating, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
