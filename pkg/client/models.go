package client

import "time"

// Product is a single catalog item.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Category is a catalog category.
type Category struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Data            []Product `json:"data"`
	Total           int       `json:"total"`
	Page            int       `json:"page"`
	Limit           int       `json:"limit"`
	HasNextPage     bool      `json:"hasNextPage"`
	HasPreviousPage bool      `json:"hasPreviousPage"`
}

// categoriesResponse is the wire shape of the category listing.
type categoriesResponse struct {
	Data []Category `json:"data"`
}
