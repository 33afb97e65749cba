package models

import "time"

// Product is a catalog entry. The cart engine only ever reads the snapshot
// fields (Name, Price, Images) through FindByID; it never owns product data.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	DiscountPrice float64   `json:"discount_price,omitempty"`
	CountInStock  int       `json:"count_in_stock"`
	SKU           string    `json:"sku"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	Collection    string    `json:"collection"`
	Material      string    `json:"material"`
	Gender        string    `json:"gender"`
	Images        []string  `json:"images"`
	Rating        float64   `json:"rating"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PrimaryImage is the image copied into cart line items at add time.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
