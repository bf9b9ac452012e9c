package models

import "time"

// OutfitRecord links a person image, a garment image and the generated result
// to a user. (UserID, PersonImagePath, GarmentImagePath) identifies a record.
type OutfitRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PersonImagePath  string    `json:"man_image_path"`
	GarmentImagePath string    `json:"cloth_image_path"`
	ResultImagePath  string    `json:"result_image_path"`
	CreatedAt        time.Time `json:"created_at"`
}

// OutfitPage is one page of a user's ledger, newest first.
type OutfitPage struct {
	Outfits     []OutfitRecord `json:"outfits"`
	Total       int64          `json:"total"`
	CurrentPage int            `json:"current_page"`
	TotalPages  int            `json:"total_pages"`
}
