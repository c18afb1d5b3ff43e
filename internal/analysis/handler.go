package analysis

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/redmonkez12/beauty-assistant-api/internal/httputil"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/storage"
)

// multipartOverhead allows for boundaries and part headers on top of the image itself.
const multipartOverhead = 64 << 10

const imageField = "image"

type Handler struct {
	service      *Service
	maxFileSize  int64
	allowedTypes []string
}

func NewHandler(service *Service, maxFileSize int64, allowedTypes []string) *Handler {
	return &Handler{service: service, maxFileSize: maxFileSize, allowedTypes: allowedTypes}
}

// AnalyzeFace handles face analysis requests
// @Summary      Analyze a face
// @Description  Accepts an optional multipart "image" part and returns facial features. Analysis is a placeholder.
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Param        image formData file false "Face photo (jpeg or png)"
// @Success      200 {object} Result
// @Failure      400 {object} httputil.ErrorResponse "Invalid upload or unsupported image type"
// @Failure      413 {object} httputil.ErrorResponse "Image too large"
// @Router       /analysis/face [post]
func (h *Handler) AnalyzeFace(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	img, err := h.readImage(w, r)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
		case errors.Is(err, storage.ErrUnsupportedImage):
			httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeUnsupportedMedia, http.StatusBadRequest)
		default:
			logger.Warn("invalid face upload", "error", err.Error())
			httputil.RespondErrorWithCode(w, r, "invalid upload", httputil.CodeInvalidUpload, http.StatusBadRequest)
		}
		return
	}

	result, err := h.service.Analyze(r.Context(), img)
	if err != nil {
		logger.Error("face analysis failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "failed to analyze image", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if result.ImageKey != "" {
		logger.Info("face image stored", "key", result.ImageKey, "content_type", img.ContentType, "size", img.Size())
	}
	httputil.RespondJSON(w, r, result, http.StatusOK)
}

// readImage returns nil, nil when the request carries no image part.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) (*storage.Image, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return nil, storage.ErrFileTooLarge
			}
			return nil, err
		}

		if part.FormName() != imageField {
			part.Close()
			continue
		}

		img, err := storage.ReadImage(part, h.maxFileSize, h.allowedTypes)
		part.Close()
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, storage.ErrFileTooLarge
		}
		return img, err
	}
}
