package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/core/services"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"github.com/netfleet/backend/internal/transport/http/dto"
)

type DeviceHandler struct {
	service ports.InventoryService
	logger  *logger.Logger
}

func NewDeviceHandler(service ports.InventoryService, logger *logger.Logger) *DeviceHandler {
	return &DeviceHandler{service: service, logger: logger}
}

func (h *DeviceHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("device_create_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("device_create_validation_failed", "details", errs)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	device, err := h.service.CreateDevice(c.Context(), ports.CreateDeviceInput{
		Name:       req.Name,
		IP:         req.IP,
		SSHPort:    req.SSHPort,
		Platform:   req.Platform,
		Username:   req.Username,
		Password:   req.Password,
		PrivateKey: req.PrivateKey,
	})
	if err != nil {
		if errors.Is(err, services.ErrDeviceAlreadyExists) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "device with this ip already exists",
			})
		}
		if errors.Is(err, services.ErrDeviceInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: err.Error(),
			})
		}
		h.logger.Errorw("device_create_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(device)
}

func (h *DeviceHandler) List(c *fiber.Ctx) error {
	devices, err := h.service.GetDevices(c.Context())
	if err != nil {
		h.logger.Errorw("device_list_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(devices)
}

func (h *DeviceHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid device id",
		})
	}
	device, err := h.service.GetDeviceByID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "device not found",
		})
	}
	return c.JSON(device)
}

func (h *DeviceHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid device id",
		})
	}

	var req dto.UpdateDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	device, err := h.service.UpdateDevice(c.Context(), uint(id), ports.UpdateDeviceInput{
		Name:       req.Name,
		SSHPort:    req.SSHPort,
		Platform:   req.Platform,
		Username:   req.Username,
		Password:   req.Password,
		PrivateKey: req.PrivateKey,
		IsActive:   req.IsActive,
	})
	if err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "device not found",
			})
		}
		h.logger.Errorw("device_update_failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(device)
}

func (h *DeviceHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid device id",
		})
	}
	if err := h.service.DeleteDevice(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "device not found",
			})
		}
		h.logger.Errorw("device_delete_failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
