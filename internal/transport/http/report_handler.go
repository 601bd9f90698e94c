package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"creditfile/internal/dataprocessing"
	apierrors "creditfile/internal/errors"
	"creditfile/internal/infrastructure"
	"creditfile/internal/services"
	"creditfile/internal/validation"
	api "creditfile/pkg/contracts/api/v1"
)

// multipartMemory is the part of an upload kept in memory before spilling
// to a temporary file
const multipartMemory = 4 << 20

// ReportHandler scores uploaded credit reports
type ReportHandler struct {
	service       *services.ReportService
	validate      *validator.Validate
	maxUploadSize int64
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler. Uploads larger than
// maxUploadSize bytes are rejected.
func NewReportHandler(service *services.ReportService, maxUploadSize int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:       service,
		validate:      NewValidator(),
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "report_handler")),
		errorHandler:  errorHandler,
	}
}

// NewValidator returns a validator that reports JSON field names and knows
// the xlsxname tag
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("xlsxname", func(fl validator.FieldLevel) bool {
		return validation.CheckWorkbookName(fl.Field().String()) == nil
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/reports", h.ScoreReport)
	r.Get("/features", h.ListFeatures)
	return r
}

// ScoreReport handles POST /api/v1/reports
func (h *ReportHandler) ScoreReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxUploadSize > 0 {
		if r.ContentLength > h.maxUploadSize {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
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

	file, header, err := r.FormFile(api.FormFile)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(api.FormFile, "A workbook upload is required"))
		return
	}
	defer file.Close()

	req, err := h.uploadRequest(r, header.Filename, header.Size)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	modified := req.ModifiedAt
	if modified.IsZero() {
		modified = time.Now()
	}

	h.logger.DebugContext(ctx, "Report upload received",
		slog.String("filename", req.Filename),
		slog.Int64("size", req.Size))

	res := h.service.ProcessReader(ctx, file, dataprocessing.FileDetails{
		Filename:     req.Filename,
		LastModified: modified,
	})
	if res.Failed() {
		if ctx.Err() != nil {
			h.errorHandler.HandleError(w, r, ctx.Err())
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.UnprocessableReport(req.Filename, res.Err))
		return
	}

	resp := api.ReportResponse{
		Filename:            res.Filename,
		Record:              *res.Record,
		Features:            res.Features,
		MissingFields:       res.Missing,
		SkippedSections:     res.Skipped,
		AmortizationImputed: res.Details.Imputed,
		ProcessedAt:         time.Now().UTC(),
		TraceID:             traceID(r),
	}
	if req.Score {
		resp.CreditScore = res.Score
		resp.ScoreModel = res.Model
	}
	if resp.MissingFields == nil {
		resp.MissingFields = map[string][]string{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// uploadRequest builds and validates the request description of an upload
func (h *ReportHandler) uploadRequest(r *http.Request, filename string, size int64) (api.ReportUploadRequest, error) {
	req := api.ReportUploadRequest{
		Filename: filename,
		Size:     size,
		Score:    true,
	}

	if errors.Is(validation.CheckWorkbookName(filename), validation.ErrNotWorkbook) {
		return req, apierrors.NewWithDetails(apierrors.ErrUnsupportedMedia.StatusCode,
			apierrors.ErrUnsupportedMedia.ErrorCode, apierrors.ErrUnsupportedMedia.Message, filename)
	}

	if raw := r.FormValue(api.FormModifiedAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, apierrors.ErrValidation(api.FormModifiedAt, "Must be an RFC 3339 timestamp")
		}
		req.ModifiedAt = t
	}
	if raw := r.URL.Query().Get("score"); raw != "" {
		score, err := strconv.ParseBool(raw)
		if err != nil {
			return req, apierrors.ErrValidation("score", "Must be true or false")
		}
		req.Score = score
	}

	if err := h.validate.Struct(req); err != nil {
		return req, validationProblem(err)
	}
	return req, nil
}

// validationProblem converts validator errors into a 400 response
func validationProblem(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}
	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return apierrors.NewValidationErrors(fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "gt":
		return "Upload is empty"
	case "xlsxname":
		return "Must name an .xlsx workbook that is not a lock file"
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}

// ListFeatures handles GET /api/v1/features
func (h *ReportHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	names := h.service.FeatureNames()
	render.JSON(w, r, api.FeatureListResponse{
		Features: names,
		Count:    len(names),
	})
}

func traceID(r *http.Request) string {
	if id := infrastructure.GetTraceID(r.Context()); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}
