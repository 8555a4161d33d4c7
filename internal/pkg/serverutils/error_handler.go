package serverutils

import (
	"errors"

	"rravin-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the typed error taxonomy onto HTTP statuses.
// Every failure is scoped to its own request; nothing here panics or rethrows.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if notFound, ok := apperror.AsNotFound(err); ok {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message:   notFound.Error(),
				ErrorType: "not_found",
			})
		}

		if quota, ok := apperror.AsQuotaExceeded(err); ok {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Message:   quota.Error(),
				ErrorType: "quota_exceeded",
				Data: fiber.Map{
					"max_files": quota.MaxFiles,
					"uploaded":  quota.Uploaded,
					"remaining": quota.Remaining(),
				},
			})
		}

		var noAnalysis *apperror.NoAnalysisError
		if errors.As(err, &noAnalysis) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Message:   "No analysis available yet. Run an analysis first.",
				ErrorType: "no_analysis",
			})
		}

		var emptyBatch *apperror.EmptyBatchError
		if errors.As(err, &emptyBatch) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Message:   "No files uploaded. Please upload data files first.",
				ErrorType: "empty_batch",
			})
		}

		var invalidFile *apperror.InvalidFileError
		if errors.As(err, &invalidFile) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Message:   invalidFile.Error(),
				ErrorType: "invalid_file",
			})
		}

		var analysisFailed *apperror.AnalysisFailedError
		if errors.As(err, &analysisFailed) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
				Message:   "Analysis failed. Please try again.",
				ErrorType: "analysis_failed",
			})
		}

		var chatFailed *apperror.ChatFailedError
		if errors.As(err, &chatFailed) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
				Message:   "Chat failed. Please resend your message.",
				ErrorType: "chat_failed",
			})
		}

		var storeUnavailable *apperror.StoreUnavailableError
		if errors.As(err, &storeUnavailable) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Message:   "Storage is temporarily unavailable.",
				ErrorType: "store_unavailable",
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse{
				Message: fiberErr.Message,
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: "Internal server error",
		})
	}
}
