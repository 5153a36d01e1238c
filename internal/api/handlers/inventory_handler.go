package handlers

import (
	"Larder-Backend/domain"
	"Larder-Backend/internal/api/presenters"
	"Larder-Backend/pkg/inventory"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	InventoryHandler interface {
		AddIngredientStacks(c *fiber.Ctx) error
		AddFoodPortions(c *fiber.Ctx) error
		ConsumeIngredientStack(c *fiber.Ctx) error
		ConsumeFoodPortion(c *fiber.Ctx) error
		DeleteIngredientStack(c *fiber.Ctx) error
		DeleteFoodPortion(c *fiber.Ctx) error
		GetIngredientDetail(c *fiber.Ctx) error
		GetFoodDetail(c *fiber.Ctx) error
		ListIngredients(c *fiber.Ctx) error
		ListFoods(c *fiber.Ctx) error
		FindExpiringSoon(c *fiber.Ctx) error
		FindExpired(c *fiber.Ctx) error
		AttachFoodImage(c *fiber.Ctx) error
		UploadFoodImage(c *fiber.Ctx) error
		SweepExpiredStatus(c *fiber.Ctx) error
	}

	inventoryHandler struct {
		inventoryService inventory.InventoryService
		validator        *validator.Validate
	}
)

func NewInventoryHandler(inventoryService inventory.InventoryService, validator *validator.Validate) InventoryHandler {
	return &inventoryHandler{
		inventoryService: inventoryService,
		validator:        validator,
	}
}

// statusForError keeps NotFound-class failures distinguishable at the HTTP
// layer; everything else the engine rejects is a client error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrStackNotFound), errors.Is(err, domain.ErrPortionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

func (h *inventoryHandler) AddIngredientStacks(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.AddIngredientStacksRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddStacks, err)
	}

	results, err := h.inventoryService.AddIngredientStacks(c.Context(), *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedAddStacks, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"results": results}, fiber.StatusCreated, domain.MessageSuccessAddStacks)
}

func (h *inventoryHandler) AddFoodPortions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.AddFoodPortionsRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddPortions, err)
	}

	results, err := h.inventoryService.AddFoodPortions(c.Context(), *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedAddPortions, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"results": results}, fiber.StatusCreated, domain.MessageSuccessAddPortions)
}

func (h *inventoryHandler) ConsumeIngredientStack(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")
	req := new(domain.ConsumeStackRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConsumeStack, err)
	}

	res, err := h.inventoryService.ConsumeIngredientStack(c.Context(), name, *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedConsumeStack, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConsumeStack)
}

func (h *inventoryHandler) ConsumeFoodPortion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")
	req := new(domain.ConsumeFoodRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConsumePortion, err)
	}

	res, err := h.inventoryService.ConsumeFoodPortion(c.Context(), name, *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedConsumePortion, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConsumePortion)
}

func (h *inventoryHandler) DeleteIngredientStack(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")

	addedAt, err := parseAddedAtQuery(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteStack, err)
	}

	if err := h.inventoryService.DeleteIngredientStack(c.Context(), name, addedAt, userID); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedDeleteStack, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteStack)
}

func (h *inventoryHandler) DeleteFoodPortion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")

	addedAt, err := parseAddedAtQuery(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeletePortion, err)
	}

	if err := h.inventoryService.DeleteFoodPortion(c.Context(), name, addedAt, userID); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedDeletePortion, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeletePortion)
}

func (h *inventoryHandler) GetIngredientDetail(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")

	detail, err := h.inventoryService.GetIngredientDetail(c.Context(), name, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetIngredients, err)
	}

	return presenters.SuccessResponse(c, detail, fiber.StatusOK, domain.MessageSuccessGetIngredients)
}

func (h *inventoryHandler) GetFoodDetail(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")

	addedAt, err := parseAddedAtQuery(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetFoods, err)
	}

	detail, err := h.inventoryService.GetFoodDetail(c.Context(), name, addedAt, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetFoods, err)
	}

	return presenters.SuccessResponse(c, detail, fiber.StatusOK, domain.MessageSuccessGetFoods)
}

func (h *inventoryHandler) ListIngredients(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.inventoryService.ListIngredients(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetIngredients, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetIngredients)
}

func (h *inventoryHandler) ListFoods(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.inventoryService.ListFoods(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetFoods, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetFoods)
}

func (h *inventoryHandler) FindExpiringSoon(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	days, err := strconv.Atoi(c.Query("days", "3"))
	if err != nil || days < 0 {
		days = 3
	}

	res, err := h.inventoryService.FindExpiringSoon(c.Context(), days, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetExpiringSoon, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetExpiringSoon)
}

func (h *inventoryHandler) FindExpired(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.inventoryService.FindExpired(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetExpired, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetExpired)
}

func (h *inventoryHandler) AttachFoodImage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	name := c.Params("name")
	req := new(domain.AttachFoodImageRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAttachImage, err)
	}

	if err := h.inventoryService.AttachFoodImage(c.Context(), name, *req, userID); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedAttachImage, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessAttachImage)
}

func (h *inventoryHandler) UploadFoodImage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.UploadFoodImageRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req.Image = file

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImage, err)
	}

	if err := h.inventoryService.UploadFoodImage(c.Context(), *req, userID); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedUploadImage, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessUploadImage)
}

func (h *inventoryHandler) SweepExpiredStatus(c *fiber.Ctx) error {
	res, err := h.inventoryService.UpdateExpiredStatus(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedSweep, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSweep)
}

func parseAddedAtQuery(c *fiber.Ctx) (time.Time, error) {
	addedAt, err := time.Parse(time.RFC3339Nano, c.Query("added_at"))
	if err != nil {
		return time.Time{}, domain.ErrInvalidAddedAt
	}
	return addedAt, nil
}
