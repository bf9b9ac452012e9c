package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// GarmentImportResponse is returned by ImportGarmentHandler.
type GarmentImportResponse struct {
	Garment models.Garment        `json:"garment"`
	Asset   models.AssetReference `json:"asset"`
}

// ImportGarmentHandler scrapes a product page for its garment image and
// stores a copy as the caller's upload.
func (h *Handler) ImportGarmentHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.NewRequestLog("Garment Import API")
	defer logger.Flush()

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondAppError(w, logger, err)
		return
	}

	// Support both Query Params and JSON Body
	productURL := r.URL.Query().Get("url")
	if productURL == "" {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err == nil {
			productURL = req.URL
		}
	}
	if productURL == "" {
		utils.RespondError(w, logger, "Please provide a 'url' query parameter or JSON body", http.StatusBadRequest)
		return
	}
	logger.Addf("user_id=%s url=%s", userID, productURL)

	garment, err := h.deps.Scrape(r.Context(), productURL)
	if err != nil {
		utils.RespondError(w, logger, fmt.Sprintf("Scraping failed: %v", err), http.StatusBadGateway)
		return
	}

	data, contentType, err := h.deps.Fetcher.Fetch(r.Context(), garment.ImageURL)
	if err != nil {
		utils.RespondError(w, logger, fmt.Sprintf("Failed to download garment image: %v", err), http.StatusBadGateway)
		return
	}

	assets, err := h.deps.Uploader.Upload(r.Context(), userID, []models.UploadPayload{{
		Filename:    imageFilename(garment.ImageURL),
		ContentType: contentType,
		Data:        data,
	}})
	if err != nil {
		utils.RespondAppError(w, logger, err)
		return
	}

	logger.Add("Garment imported: " + assets[0].StoragePath)
	utils.RespondJSON(w, http.StatusOK, GarmentImportResponse{Garment: *garment, Asset: assets[0]})
}

// imageFilename keeps the URL's last path segment so its extension survives.
func imageFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}
