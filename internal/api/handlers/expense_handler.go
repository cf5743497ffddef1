package handlers

import (
	"context"
	"errors"
	"io"

	"expense-ingest/internal/dto"
	"expense-ingest/internal/service"
	"expense-ingest/internal/statement"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

type ExpenseHandler struct {
	ingestion *service.IngestionService
	feedback  *service.FeedbackService
	logger    *zap.Logger
}

func NewExpenseHandler(ingestion *service.IngestionService, feedback *service.FeedbackService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		ingestion: ingestion,
		feedback:  feedback,
		logger:    logger,
	}
}

// UploadStatement godoc
// @Summary Import a bank statement
// @Description Extracts every debit of a CSV or PDF statement, classifies it and stores it as an expense
// @Tags expenses
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Statement file (.csv or .pdf)"
// @Security Bearer
// @Success 201 {object} dto.UploadResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 415 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/expenses/upload [post]
func (h *ExpenseHandler) UploadStatement(c *fiber.Ctx) error {
	ownerID, err := getOwnerID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	expenses, err := h.ingestion.Ingest(c.UserContext(), ownerID, file.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, statement.ErrUnsupportedFormat):
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported file format",
			})
		case errors.Is(err, statement.ErrUnreadableDocument):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Could not read any text from the document",
			})
		case service.IsPartial(err) && len(expenses) > 0:
			return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
				Expenses: dto.NewExpenseResponses(expenses),
				Count:    len(expenses),
				Partial:  true,
				Error:    "Import stopped before the end of the statement",
			})
		case errors.Is(err, context.Canceled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Server is shutting down",
			})
		}
		h.logger.Error("Statement import failed", zap.String("file", file.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to import statement",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
		Expenses: dto.NewExpenseResponses(expenses),
		Count:    len(expenses),
	})
}

// SubmitFeedback godoc
// @Summary Correct the category of an expense
// @Description Sends the expense description with the chosen category to the classification model
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param request body dto.FeedbackRequest true "Correct category"
// @Security Bearer
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/expenses/{id}/feedback [post]
func (h *ExpenseHandler) SubmitFeedback(c *fiber.Ctx) error {
	ownerID, err := getOwnerID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	expenseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid expense ID",
		})
	}

	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "categoryId must be a valid UUID",
		})
	}
	categoryID := uuid.MustParse(req.CategoryID)

	err = h.feedback.RecordFeedback(c.UserContext(), ownerID, expenseID, categoryID)
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Expense or category not found",
		})
	case errors.Is(err, service.ErrFeedbackDelivery):
		h.logger.Warn("Feedback delivery failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Classification service unavailable",
		})
	}
	h.logger.Error("Failed to record feedback", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to record feedback",
	})
}

// Retrain godoc
// @Summary Retrain the classification model
// @Tags ml
// @Produce json
// @Security Bearer
// @Success 202 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/ml/retrain [post]
func (h *ExpenseHandler) Retrain(c *fiber.Ctx) error {
	if err := h.feedback.RequestRetrain(c.UserContext()); err != nil {
		h.logger.Warn("Retrain request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Classification service unavailable",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "retraining",
	})
}
