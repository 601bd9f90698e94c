package middleware

import (
	"mime"
	"net/http"

	apierrors "creditfile/internal/errors"
)

// ContentTypeValidator rejects requests with a body whose media type is not
// one of contentTypes. GET, HEAD and OPTIONS pass through.
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				errorHandler.HandleError(w, r, apierrors.ErrValidation("Content-Type", "Content-Type header is required"))
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
				return
			}
			for _, allowed := range contentTypes {
				if mediaType == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": mediaType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// BodyLimit rejects requests declaring a body larger than maxBytes and caps
// the rest at maxBytes
func BodyLimit(maxBytes int64, errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				errorHandler.HandleError(w, r, apierrors.NewWithDetails(
					http.StatusRequestEntityTooLarge,
					"PAYLOAD_TOO_LARGE",
					"Upload exceeds the maximum allowed size",
					map[string]interface{}{
						"max_size": maxBytes,
						"size":     r.ContentLength,
					},
				))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
