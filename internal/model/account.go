package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the kind of account.
type Role string

const (
	RoleConsumer   Role = "consumer"
	RoleProducer   Role = "producer"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

// ParseRole converts a string into a known Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleConsumer, RoleProducer, RoleRestaurant, RoleAdmin:
		return r, true
	}
	return "", false
}

// Account is a single identity shared by every role. Email and national ID
// are unique across all roles.
type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Role         Role      `json:"role" db:"role"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	NationalID   string    `json:"nationalId" db:"national_id"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// ProducerProfile holds producer-specific fields.
type ProducerProfile struct {
	AccountID   uuid.UUID  `json:"accountId" db:"account_id"`
	FarmName    string     `json:"farmName" db:"farm_name"`
	City        string     `json:"city,omitempty" db:"city"`
	Latitude    *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64   `json:"longitude,omitempty" db:"longitude"`
	Certified   bool       `json:"certified" db:"certified"`
	CertifiedAt *time.Time `json:"certifiedAt,omitempty" db:"certified_at"`
}

// RestaurantProfile holds restaurant-specific fields.
type RestaurantProfile struct {
	AccountID         uuid.UUID `json:"accountId" db:"account_id"`
	EstablishmentName string    `json:"establishmentName" db:"establishment_name"`
	City              string    `json:"city,omitempty" db:"city"`
	Latitude          *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64  `json:"longitude,omitempty" db:"longitude"`
}

// Producer is the public view of a producer account.
type Producer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	ProducerProfile
}

// NearbyProducer is a producer annotated with its distance to a point.
type NearbyProducer struct {
	Producer
	DistanceKm float64 `json:"distanceKm"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Role              string   `json:"role"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	NationalID        string   `json:"nationalId"`
	Password          string   `json:"password"`
	FarmName          string   `json:"farmName,omitempty"`
	EstablishmentName string   `json:"establishmentName,omitempty"`
	City              string   `json:"city,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
}

// LoginRequest is the payload for obtaining a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries a signed access token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	AccountID uuid.UUID `json:"accountId"`
	Role      Role      `json:"role"`
}

// AccountResponse is an account together with its role profile.
type AccountResponse struct {
	Account
	Producer   *ProducerProfile   `json:"producer,omitempty"`
	Restaurant *RestaurantProfile `json:"restaurant,omitempty"`
}

// Principal is the verified identity behind a request.
type Principal struct {
	AccountID uuid.UUID
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}
