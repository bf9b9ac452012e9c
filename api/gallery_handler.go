package api

import (
	"net/http"
	"strconv"

	"github.com/raushankrgupta/fitly-tryon/utils"
)

// maxOutfitsPageSize caps an explicit limit query parameter.
const maxOutfitsPageSize = 100

// OutfitsHandler lists the caller's ledger, newest first. Without a limit
// every record is returned.
func (h *Handler) OutfitsHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.NewRequestLog("Outfits API")
	defer logger.Flush()

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondAppError(w, logger, err)
		return
	}

	page := 1
	limit := 0
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, maxOutfitsPageSize)
	}
	logger.Addf("user_id=%s page=%d limit=%d", userID, page, limit)

	result, err := h.deps.Ledger.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		logger.Addf("ledger read failed: %v", err)
		utils.RespondError(w, logger, "Failed to fetch data", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
