package domain

import "github.com/shopspring/decimal"

// ProductSummary is one catalog entry as listed by the backend. The
// storefront only reads the catalog; it never writes product data.
type ProductSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	InStock  bool            `json:"inStock"`
}

// ProductPage is a page of catalog results.
type ProductPage struct {
	Items []ProductSummary `json:"items"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Total int              `json:"total"`
}
