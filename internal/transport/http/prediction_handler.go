package http

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "udderwatch/internal/errors"
	"udderwatch/internal/files"
	customMiddleware "udderwatch/internal/middleware"
	"udderwatch/internal/services"
)

// UploadField is the multipart field carrying session files.
const UploadField = "files"

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 32 << 20

// PredictionServiceInterface is what the prediction handler needs from the
// service layer.
type PredictionServiceInterface interface {
	Predict(ctx context.Context, uploads []services.Upload) (*services.PredictionResult, error)
}

// UploadLimits bound one upload request.
type UploadLimits struct {
	MaxFiles int
	MaxBytes int64
}

// PredictionHandler serves prediction runs over uploaded session files.
type PredictionHandler struct {
	service      PredictionServiceInterface
	limits       UploadLimits
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPredictionHandler creates a prediction handler
func NewPredictionHandler(service PredictionServiceInterface, limits UploadLimits, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PredictionHandler {
	return &PredictionHandler{
		service:      service,
		limits:       limits,
		logger:       logger.With(slog.String("component", "prediction_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the prediction routes
func (h *PredictionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.With(customMiddleware.RequireContentType(h.errorHandler, "multipart/form-data")).
		Post("/", h.Predict)
	return r
}

// Predict handles POST /api/v1/predictions
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if h.limits.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[UploadField]
	switch {
	case len(headers) == 0:
		h.errorHandler.HandleError(w, r, apierrors.ErrNoFiles)
		return
	case h.limits.MaxFiles > 0 && len(headers) > h.limits.MaxFiles:
		h.errorHandler.HandleError(w, r, apierrors.ErrTooManyFiles.WithDetails(
			map[string]int{"received": len(headers), "max_files": h.limits.MaxFiles},
		))
		return
	}

	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "prediction requested",
		slog.String("request_id", reqID),
		slog.Int("files", len(uploads)),
	)

	result, err := h.service.Predict(r.Context(), uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// openUploads checks every file name before opening any file. The returned
// func closes whatever was opened.
func openUploads(headers []*multipart.FileHeader) ([]services.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, fh := range headers {
		if name := filepath.Base(fh.Filename); !files.HasExtension(name, files.SessionExtensions...) {
			return nil, closeAll, apierrors.UnsupportedFileError(name)
		}
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, apierrors.InvalidRequestWithError(err)
		}
		opened = append(opened, f)
		uploads = append(uploads, services.Upload{Name: filepath.Base(fh.Filename), Body: f})
	}
	return uploads, closeAll, nil
}
