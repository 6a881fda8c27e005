package handlers

import (
	"net/http"

	"github.com/upb/tenant-chat-gateway/services"
	"github.com/upb/tenant-chat-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Validation errors
// keep their message; everything else becomes a generic 500. Authentication
// and authorization failures never reach here, the middleware writes them.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch {
	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, domainMessage(err), details)

	case services.IsExternalError(err):
		logger.Error("inference provider failed", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "Failed to process chat request")

	case services.IsInternalError(err):
		logger.Error("internal service error",
			zap.Error(err),
			zap.Any("details", details))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")

	default:
		logger.Error("unhandled service error",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles errors from request decoding and struct validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var writeErr error
	if utils.IsValidationError(err) {
		writeErr = utils.WriteBadRequest(w, "Validation failed", utils.FieldDetails(err))
	} else {
		writeErr = utils.WriteBadRequest(w, err.Error(), nil)
	}
	if writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}

// domainMessage returns the client-facing message of a domain error without
// the wrapped cause
func domainMessage(err error) string {
	if msg := services.GetErrorMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}
