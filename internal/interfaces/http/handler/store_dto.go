package handler

import (
	"time"

	"github.com/google/uuid"
	adminapp "github.com/wazhop/backend/internal/application/admin"
)

// CreateStoreRequest builds a store for a seller who has not signed up
type CreateStoreRequest struct {
	StoreName   string `json:"store_name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"max=500"`
	Category    string `json:"category" binding:"omitempty,oneof=fashion electronics food beauty home services other"`
	Location    string `json:"location" binding:"max=100"`
	WhatsApp    string `json:"whatsapp" binding:"omitempty,whatsapp"`
}

// ActivateStoreRequest carries the credentials of the seller taking over
// a store
type ActivateStoreRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Phone    string `json:"phone" binding:"required,whatsapp"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// TemporaryStoreResponse is an admin-built store with its hand-over links
type TemporaryStoreResponse struct {
	Shop          ShopResponse `json:"shop"`
	OwnerEmail    string       `json:"owner_email"`
	PreviewURL    string       `json:"preview_url"`
	ActivationURL string       `json:"activation_url"`
	ExpiresAt     *time.Time   `json:"expires_at"`
}

func toTemporaryStoreResponse(s *adminapp.TemporaryStore) TemporaryStoreResponse {
	return TemporaryStoreResponse{
		Shop:          toShopResponse(s.Shop),
		OwnerEmail:    s.OwnerEmail,
		PreviewURL:    s.PreviewURL,
		ActivationURL: s.ActivationURL,
		ExpiresAt:     s.Shop.ActivationExpires,
	}
}

// ActivatedShop names the store a seller now owns
type ActivatedShop struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ActivatedStoreResponse signs the seller in and names their store
type ActivatedStoreResponse struct {
	AuthResponse
	Shop ActivatedShop `json:"shop"`
}

func toActivatedStoreResponse(a *adminapp.ActivatedStore) ActivatedStoreResponse {
	return ActivatedStoreResponse{
		AuthResponse: toAuthResponse(a.Auth, true),
		Shop:         ActivatedShop{ID: a.Shop.ID, Name: a.Shop.ShopName, Slug: a.Shop.Slug},
	}
}
