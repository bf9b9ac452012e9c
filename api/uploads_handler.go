package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// maxUploadFiles bounds one batch; the UI sends a pair or a single profile photo.
const maxUploadFiles = 4

// UploadsHandler stores the multipart "images" files for the caller.
func (h *Handler) UploadsHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.NewRequestLog("Uploads API")
	defer logger.Flush()

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondAppError(w, logger, err)
		return
	}
	logger.Add("user_id=" + userID)

	r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxImageBytes*maxUploadFiles+(1<<20))
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, logger, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondError(w, logger, "At least one file is required in field 'images'", http.StatusBadRequest)
		return
	}
	if len(files) > maxUploadFiles {
		utils.RespondError(w, logger, fmt.Sprintf("At most %d images per upload", maxUploadFiles), http.StatusBadRequest)
		return
	}

	payloads := make([]models.UploadPayload, 0, len(files))
	for i, fh := range files {
		data, err := readFormFile(fh, h.deps.MaxImageBytes)
		if err != nil {
			utils.RespondError(w, logger, fmt.Sprintf("Image %d: %v", i+1, err), http.StatusBadRequest)
			return
		}
		payloads = append(payloads, models.UploadPayload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	assets, err := h.deps.Uploader.Upload(r.Context(), userID, payloads)
	if err != nil {
		utils.RespondAppError(w, logger, err)
		return
	}

	logger.Addf("Uploaded %d images", len(assets))
	utils.RespondJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func readFormFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	return data, nil
}
