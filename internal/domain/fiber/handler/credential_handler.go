package handler

import (
	"errors"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/dto"
	"github.com/fadilmartias/comment-assistant/internal/middleware"
	"github.com/fadilmartias/comment-assistant/internal/usecase"
	"github.com/fadilmartias/comment-assistant/internal/util"
	"github.com/gofiber/fiber/v2"
)

type CredentialHandler struct {
	credentials *usecase.CredentialUsecase
	generation  *usecase.GenerationUsecase
	provider    string
}

func NewCredentialHandler(credentials *usecase.CredentialUsecase, generation *usecase.GenerationUsecase, provider string) *CredentialHandler {
	return &CredentialHandler{credentials: credentials, generation: generation, provider: provider}
}

func (h *CredentialHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/credential", h.Status)
	app.Put("/credential", h.Save)
	app.Delete("/credential", h.Clear)
	app.Post("/credential/test", middleware.RateLimiter(3, time.Minute), h.Test)
}

// Status never returns the key itself.
func (h *CredentialHandler) Status(c *fiber.Ctx) error {
	_, source, err := h.credentials.Resolve(c.UserContext())
	if err != nil && !errors.Is(err, usecase.ErrCredentialRequired) {
		return failWith(c, err, "failed to read credential")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get credential status",
		Data: dto.CredentialStatusDTO{
			Configured: err == nil,
			Source:     string(source),
			Provider:   h.provider,
		},
	})
}

func (h *CredentialHandler) Save(c *fiber.Ctx) error {
	var req dto.CredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Dữ liệu không hợp lệ.", err)
	}
	if err := h.credentials.Save(c.UserContext(), req.APIKey); err != nil {
		if errors.Is(err, usecase.ErrCredentialRequired) {
			return badRequest(c, "API Key không được để trống.", err)
		}
		return failWith(c, err, "failed to save credential")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Đã lưu API Key."})
}

func (h *CredentialHandler) Clear(c *fiber.Ctx) error {
	if err := h.credentials.Clear(c.UserContext()); err != nil {
		return failWith(c, err, "failed to clear credential")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Đã xóa API Key."})
}

func (h *CredentialHandler) Test(c *fiber.Ctx) error {
	reply, source, err := h.generation.Verify(c.UserContext())
	if err != nil {
		if errors.Is(err, usecase.ErrCredentialRequired) {
			return failWith(c, err, "")
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadGateway,
			Message: usecase.ConnectionFailedMessage,
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Kết nối AI thành công.",
		Data:    dto.CredentialCheckDTO{Source: string(source), Reply: reply},
	})
}
