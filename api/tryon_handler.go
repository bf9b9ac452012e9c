package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/raushankrgupta/fitly-tryon/utils"
)

// maxTryOnBody bounds the JSON body; it only carries two URLs.
const maxTryOnBody = 1 << 20

// VirtualTryOnHandler handles the virtual try-on request
func (h *Handler) VirtualTryOnHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.NewRequestLog("Virtual Try-On API")
	defer logger.Flush()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTryOnBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, logger, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		utils.RespondError(w, logger, "Failed to read request body", http.StatusBadRequest)
		return
	}

	resp, err := h.deps.TryOn.Invoke(r.Context(), r.Header.Get("Authorization"), body, logger)
	if err != nil {
		utils.RespondAppError(w, logger, err)
		return
	}

	logger.Add("Try-on successful")
	utils.RespondJSON(w, http.StatusOK, resp)
}
