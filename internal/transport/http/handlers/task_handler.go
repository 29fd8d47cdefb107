package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/core/services"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"github.com/netfleet/backend/internal/transport/http/dto"
)

type TaskHandler struct {
	runner  ports.TaskRunner
	archive ports.TaskArchiveRepository
	kinds   func() []string
	logger  *logger.Logger
}

func NewTaskHandler(runner ports.TaskRunner, archive ports.TaskArchiveRepository, kinds func() []string, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{runner: runner, archive: archive, kinds: kinds, logger: logger}
}

func (h *TaskHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitTaskRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("task_submit_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("task_submit_validation_failed", "details", errs)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	h.logger.Infow("task_submit_request", "operation", req.OperationKind, "targets", len(req.Targets), "owner", req.Owner)
	task, err := h.runner.Submit(c.Context(), ports.SubmitInput{
		OperationKind: req.OperationKind,
		Targets:       req.Targets,
		Parameters:    domain.JSONB(req.Parameters),
		Owner:         req.Owner,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			h.logger.Warnw("task_submit_rejected", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: err.Error(),
			})
		}
		if errors.Is(err, services.ErrQueueFull) || errors.Is(err, services.ErrShuttingDown) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: err.Error(),
			})
		}
		h.logger.Errorw("task_submit_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(task)
}

func (h *TaskHandler) List(c *fiber.Ctx) error {
	filter := domain.TaskFilter{
		Owner:         c.Query("owner"),
		Status:        domain.TaskStatus(c.Query("status")),
		OperationKind: c.Query("kind"),
	}
	tasks := h.runner.List(filter)
	return c.JSON(tasks)
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	task, err := h.runner.Get(id)
	if err == nil {
		return c.JSON(task)
	}

	// Evicted from the in-memory window; fall back to the archive.
	if record, aerr := h.archive.GetByTaskID(c.Context(), id); aerr == nil {
		return c.JSON(record)
	}
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: "task not found",
	})
}

func (h *TaskHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.runner.Cancel(id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "task not found",
			})
		}
		if errors.Is(err, services.ErrAlreadyTerminal) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "task already finished",
			})
		}
		h.logger.Errorw("task_cancel_failed", "task_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	h.logger.Infow("task_cancel_accepted", "task_id", id)
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *TaskHandler) History(c *fiber.Ctx) error {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	records, err := h.archive.GetAll(c.Context(), limit)
	if err != nil {
		h.logger.Errorw("task_history_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(records)
}

func (h *TaskHandler) Operations(c *fiber.Ctx) error {
	return c.JSON(dto.OperationsResponse{Operations: h.kinds()})
}
