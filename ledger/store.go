// Package ledger persists Outfit Records. Each (user, person image, garment
// image) triple owns at most one row; the first writer wins.
package ledger

import (
	"context"
	"errors"
	"math"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// ErrInvalidRecord is returned when a record is missing part of its identity key.
var ErrInvalidRecord = errors.New("outfit record requires user_id, man_image_path, cloth_image_path and result_image_path")

// Store is the Outfit Ledger contract.
type Store interface {
	// Insert writes rec unless its triple already exists. created reports
	// whether a new row was written; a conflict is not an error.
	Insert(ctx context.Context, rec models.OutfitRecord) (created bool, err error)
	// ListByUser returns userID's records, newest first. limit <= 0 returns all.
	ListByUser(ctx context.Context, userID string, page, limit int) (*models.OutfitPage, error)
	Close() error
}

func validate(rec models.OutfitRecord) error {
	if rec.UserID == "" || rec.PersonImagePath == "" || rec.GarmentImagePath == "" || rec.ResultImagePath == "" {
		return ErrInvalidRecord
	}
	return nil
}

// normalizePage clamps page to 1 when unset and reports the row offset.
// page saturates so that offset+limit stays within int.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return 1, 0
	}
	if maxPage := (math.MaxInt-limit)/limit + 1; page > maxPage {
		page = maxPage
	}
	return page, (page - 1) * limit
}

func newPage(outfits []models.OutfitRecord, total int64, page, limit int) *models.OutfitPage {
	if outfits == nil {
		outfits = []models.OutfitRecord{}
	}
	totalPages := 1
	if limit > 0 {
		totalPages = int(total / int64(limit))
		if total%int64(limit) != 0 {
			totalPages++
		}
	}
	if total == 0 {
		totalPages = 0
	}
	return &models.OutfitPage{
		Outfits:     outfits,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
}
