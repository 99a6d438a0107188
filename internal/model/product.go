package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a farm product in the catalogue.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProducerID  uuid.UUID `json:"producerId" db:"producer_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Category    string    `json:"category" db:"category"`
	Stock       int       `json:"stock" db:"stock"`
	Unit        string    `json:"unit" db:"unit"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductInput carries the writable fields of a product. It is used both by
// the create/update endpoints and by catalog import records.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	Unit        string  `json:"unit"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category   string
	ProducerID *uuid.UUID
	Limit      int
	Offset     int
}

// ImportRequest asks for a catalog file to be imported for the caller.
type ImportRequest struct {
	File string `json:"file"`
}

// ImportResult reports how many products a catalog import created.
type ImportResult struct {
	File     string `json:"file"`
	Imported int    `json:"imported"`
}
