package handler

import (
	"errors"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/usecase"
	"github.com/fadilmartias/comment-assistant/internal/util"
	"github.com/gofiber/fiber/v2"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound), errors.Is(err, usecase.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, usecase.ErrEmptySpreadsheet),
		errors.Is(err, usecase.ErrNameColumnNotFound),
		errors.Is(err, usecase.ErrSpreadsheetParse),
		errors.Is(err, model.ErrInvalidConfig):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrCredentialRequired):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, usecase.ErrRunInProgress):
		return fiber.StatusConflict
	case errors.Is(err, usecase.ErrNoRecords):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// failWith maps a usecase error to its status and Vietnamese message.
// fallback is used when the error has no message of its own.
func failWith(c *fiber.Ctx, err error, fallback string) error {
	message := usecase.UserMessage(err)
	if message == "" && errors.Is(err, model.ErrInvalidConfig) {
		message = "Cấu hình không hợp lệ."
	}
	if message == "" {
		message = fallback
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    statusFor(err),
		Message: message,
	}, err)
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: message,
	}, err)
}
