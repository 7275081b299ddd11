package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/dto"
	"github.com/fadilmartias/comment-assistant/internal/middleware"
	"github.com/fadilmartias/comment-assistant/internal/usecase"
	"github.com/fadilmartias/comment-assistant/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SessionHandler struct {
	sessions   *usecase.SessionUsecase
	generation *usecase.GenerationUsecase
	maxUpload  int64
	batchSize  int
	log        *zap.Logger
}

func NewSessionHandler(sessions *usecase.SessionUsecase, generation *usecase.GenerationUsecase, maxUpload int64, batchSize int, log *zap.Logger) *SessionHandler {
	if batchSize <= 0 {
		batchSize = usecase.DefaultBatchSize
	}
	return &SessionHandler{
		sessions:   sessions,
		generation: generation,
		maxUpload:  maxUpload,
		batchSize:  batchSize,
		log:        log.Named("http"),
	}
}

func (h *SessionHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/catalog", h.Catalog)

	sessions := app.Group("/sessions")
	sessions.Post("/", h.Create)
	sessions.Get("/:id", h.Show)
	sessions.Put("/:id/config", h.UpdateConfig)
	sessions.Post("/:id/import", h.Import)
	sessions.Get("/:id/records", h.Records)
	sessions.Patch("/:id/records/:recordId", h.EditComment)
	sessions.Post("/:id/generate", middleware.RateLimiter(5, 10*time.Second), h.Generate)
	sessions.Get("/:id/export", h.Export)
}

func (h *SessionHandler) Catalog(c *fiber.Ctx) error {
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get catalog",
		Data:    dto.NewCatalogDTO(h.sessions.Catalog()),
	})
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	s := h.sessions.Create()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create session",
		Data:    dto.NewSessionDTO(s),
	})
}

func (h *SessionHandler) Show(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return failWith(c, err, "failed to get session")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get session",
		Data:    dto.NewSessionDTO(s),
	})
}

func (h *SessionHandler) UpdateConfig(c *fiber.Ctx) error {
	var req dto.ConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Dữ liệu cấu hình không hợp lệ.", err)
	}
	cfg, err := h.sessions.UpdateConfig(c.Params("id"), req.ToUpdate())
	if err != nil {
		return failWith(c, err, "failed to update config")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success update config",
		Data:    cfg,
	})
}

func (h *SessionHandler) Import(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Vui lòng chọn tệp Excel.", err)
	}
	if file.Size > h.maxUpload {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("Tệp quá lớn (tối đa %dMB).", h.maxUpload/(1024*1024)),
		})
	}

	f, err := file.Open()
	if err != nil {
		return failWith(c, fmt.Errorf("%w: %w", usecase.ErrSpreadsheetParse, err), "failed to open upload")
	}
	defer f.Close()

	result, err := h.sessions.Import(c.Params("id"), f, file.Filename)
	if err != nil {
		return failWith(c, err, "failed to import spreadsheet")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: fmt.Sprintf("Đã nhập %d học sinh.", result.Imported),
		Data:    result,
	})
}

func (h *SessionHandler) Records(c *fiber.Ctx) error {
	records, pagination, err := h.sessions.ListRecords(c.Params("id"), c.QueryInt("page", 1), c.QueryInt("page_size", 0))
	if err != nil {
		return failWith(c, err, "failed to list records")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get records",
		Data:       dto.NewRecordDTOs(records),
		Pagination: pagination,
	})
}

func (h *SessionHandler) EditComment(c *fiber.Ctx) error {
	var req dto.EditCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Comment == nil {
		return badRequest(c, "Thiếu nội dung nhận xét.", err)
	}
	rec, err := h.sessions.EditComment(c.Params("id"), c.Params("recordId"), *req.Comment)
	if err != nil {
		return failWith(c, err, "failed to edit comment")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success edit comment",
		Data:    dto.NewRecordDTO(rec),
	})
}

// Generate starts a run in the background and returns immediately. Progress
// is read back through Show and Records.
func (h *SessionHandler) Generate(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return failWith(c, err, "failed to get session")
	}
	run, err := h.generation.Start(c.UserContext(), s)
	if err != nil {
		return failWith(c, err, "failed to start generation")
	}

	// The run outlives the request.
	go run.Execute(context.Background())

	total := s.Len()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Đang tạo nhận xét.",
		Data: dto.GenerateDTO{
			Status:  "processing",
			Records: total,
			Batches: (total + h.batchSize - 1) / h.batchSize,
		},
	})
}

func (h *SessionHandler) Export(c *fiber.Ctx) error {
	file, err := h.sessions.Export(c.Params("id"))
	if err != nil {
		return failWith(c, err, "failed to export")
	}
	h.log.Info("export", zap.String("session_id", c.Params("id")), zap.String("file", file.Name))

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, util.ContentDisposition(file.Name))
	return c.Send(file.Data)
}
