package apiserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/chattypes"
	"trailbook/internal/config"
)

const defaultMaxMemory = 32 << 20

// UploadHandler receives multipart uploads and places them in the object
// store. The returned file key is what clients reference in message sends
// and media additions.
type UploadHandler struct {
	objectStore chattypes.ObjectStore
	cfg         config.StorageConfig
	logger      *logrus.Logger
}

func NewUploadHandler(objectStore chattypes.ObjectStore, cfg config.StorageConfig, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{objectStore: objectStore, cfg: cfg, logger: logger}
}

// UploadFileHandler handles POST /upload with a multipart "file" field.
func (h *UploadHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, r, apperrors.InvalidArgument(fmt.Sprintf("file too large, limit is %d MB", maxUploadSize>>20)))
			return
		}
		respondError(w, r, apperrors.InvalidArgument("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondError(w, r, apperrors.InvalidArgument("missing 'file' field"))
			return
		}
		respondError(w, r, apperrors.InvalidArgument("could not read uploaded file"))
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		respondError(w, r, apperrors.InvalidArgument(fmt.Sprintf("file too large, limit is %d MB", maxUploadSize>>20)))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	fileInfo, err := h.objectStore.Upload(r.Context(), file, header.Size, header.Filename, mimeType)
	if err != nil {
		h.logger.WithError(err).Error("failed to store uploaded file")
		respondError(w, r, apperrors.Internal(err, "storing file"))
		return
	}

	respondSuccess(w, http.StatusCreated, "file uploaded", fileInfo)
}
