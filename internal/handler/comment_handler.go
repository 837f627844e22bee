package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/threadbox/backend/internal/dto"
	"github.com/threadbox/backend/internal/middleware"
	"github.com/threadbox/backend/internal/service"
)

type CommentHandler struct {
	service *service.CommentService
}

func NewCommentHandler(service *service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentError maps lifecycle errors to HTTP responses. Precondition failures
// leave the stored comment untouched, so every case here is reportable and
// recoverable.
func commentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyContent):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("VALIDATION_ERROR", err.Error()))
	case errors.Is(err, service.ErrCommentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, service.ErrNotCommentAuthor),
		errors.Is(err, service.ErrEditWindowExpired),
		errors.Is(err, service.ErrRestoreWindowExpired):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse("FORBIDDEN", err.Error()))
	case errors.Is(err, service.ErrCommentNotDeleted),
		errors.Is(err, service.ErrCommentAlreadyDeleted):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_STATE", err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse("INTERNAL_ERROR", err.Error()))
	}
}

// Create - POST /api/comments
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	comment, err := h.service.Create(*userID, req)
	if err != nil {
		return commentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(comment, "Comment created successfully"))
}

// List - GET /api/comments
func (h *CommentHandler) List(c *fiber.Ctx) error {
	viewer := middleware.GetUserID(c)
	includeDeleted := c.QueryBool("include_deleted", false)
	flat := c.QueryBool("flat", false)

	var (
		result interface{}
		err    error
	)
	if flat {
		result, err = h.service.ListFlat(viewer, includeDeleted)
	} else {
		result, err = h.service.List(viewer, includeDeleted)
	}
	if err != nil {
		return commentError(c, err)
	}

	return c.JSON(dto.SuccessResponse(result, "Comments retrieved successfully"))
}

// GetByID - GET /api/comments/:id
func (h *CommentHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid comment ID"))
	}

	comment, err := h.service.GetByID(id)
	if err != nil {
		return commentError(c, err)
	}

	return c.JSON(dto.SuccessResponse(comment, "Comment retrieved successfully"))
}

// Update - PUT /api/comments/:id
func (h *CommentHandler) Update(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid comment ID"))
	}

	var req dto.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	comment, err := h.service.Edit(id, *userID, req.Content)
	if err != nil {
		return commentError(c, err)
	}

	return c.JSON(dto.SuccessResponse(comment, "Comment updated successfully"))
}

// Delete - DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid comment ID"))
	}

	comment, err := h.service.SoftDelete(id, *userID)
	if err != nil {
		return commentError(c, err)
	}

	return c.JSON(dto.SuccessResponse(comment, "Comment deleted successfully"))
}

// Restore - POST /api/comments/:id/restore
func (h *CommentHandler) Restore(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid comment ID"))
	}

	comment, err := h.service.Restore(id, *userID)
	if err != nil {
		return commentError(c, err)
	}

	return c.JSON(dto.SuccessResponse(comment, "Comment restored successfully"))
}
