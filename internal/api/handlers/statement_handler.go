package handlers

import (
	"expense-ingest/internal/dto"
	"expense-ingest/internal/service"
	"expense-ingest/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StatementHandler struct {
	ingestion *service.IngestionService
	logger    *zap.Logger
}

func NewStatementHandler(ingestion *service.IngestionService, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

// ListStatements godoc
// @Summary List imported statements
// @Description Returns the owner's import log, newest first
// @Tags statements
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.StatementListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/statements [get]
func (h *StatementHandler) ListStatements(c *fiber.Ctx) error {
	ownerID, err := getOwnerID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	list, err := h.ingestion.ListStatements(c.UserContext(), ownerID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list statements", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list statements",
		})
	}

	resp := dto.StatementListResponse{
		Statements: make([]dto.StatementResponse, 0, len(list)),
		Limit:      limit,
		Offset:     offset,
	}
	for _, s := range list {
		resp.Statements = append(resp.Statements, dto.NewStatementResponse(s))
	}
	return c.JSON(resp)
}

func getOwnerID(c *fiber.Ctx) (int64, error) {
	ownerID, ok := c.Locals(middleware.OwnerIDKey).(int64)
	if !ok || ownerID <= 0 {
		return 0, fiber.ErrUnauthorized
	}
	return ownerID, nil
}
