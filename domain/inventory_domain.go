package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessAddStacks        = "ingredient stacks processed"
	MessageSuccessAddPortions      = "food portions processed"
	MessageSuccessConsumeStack     = "ingredient stack consumed"
	MessageSuccessConsumePortion   = "food portion consumed"
	MessageSuccessDeleteStack      = "ingredient stack deleted"
	MessageSuccessDeletePortion    = "food portion deleted"
	MessageSuccessGetIngredients   = "ingredients retrieved successfully"
	MessageSuccessGetFoods         = "foods retrieved successfully"
	MessageSuccessGetExpiringSoon  = "expiring items retrieved successfully"
	MessageSuccessGetExpired       = "expired items retrieved successfully"
	MessageSuccessAttachImage      = "image attached"
	MessageSuccessUploadImage      = "image uploaded successfully"
	MessageSuccessSweep            = "expired status sweep complete"

	MessageFailedAddStacks        = "failed to add ingredient stacks"
	MessageFailedAddPortions      = "failed to add food portions"
	MessageFailedConsumeStack     = "failed to consume ingredient stack"
	MessageFailedConsumePortion   = "failed to consume food portion"
	MessageFailedDeleteStack      = "failed to delete ingredient stack"
	MessageFailedDeletePortion    = "failed to delete food portion"
	MessageFailedGetIngredients   = "failed to retrieve ingredients"
	MessageFailedGetFoods         = "failed to retrieve foods"
	MessageFailedGetExpiringSoon  = "failed to retrieve expiring items"
	MessageFailedGetExpired       = "failed to retrieve expired items"
	MessageFailedAttachImage      = "failed to attach image"
	MessageFailedUploadImage      = "failed to upload image"
	MessageFailedSweep            = "failed to sweep expired status"

	ErrStackNotFound          = errors.New("ingredient stack not found")
	ErrPortionNotFound        = errors.New("food portion not found")
	ErrInvalidQuantity        = errors.New("requested quantity must be positive")
	ErrInsufficientQuantity   = errors.New("requested quantity exceeds available quantity")
	ErrDuplicateKey           = errors.New("record with the same name and added_at already exists")
	ErrInconsistentUnits      = errors.New("stacks for this ingredient carry incompatible units")
	ErrMalformedInput         = errors.New("missing or invalid required fields")
	ErrInvalidExpiration      = errors.New("invalid expiration date")
	ErrInvalidAddedAt         = errors.New("invalid added_at timestamp")
	ErrConcurrentModification = errors.New("record changed concurrently")
	ErrInternalInconsistency  = errors.New("internal inventory inconsistency")
)

// Timestamps travel as RFC3339 strings on the wire; plain dates as 2006-01-02.
const (
	DateLayout = "2006-01-02"
)

type (
	AddIngredientStackRequest struct {
		Name        string  `json:"name" validate:"required"`
		Quantity    float64 `json:"quantity" validate:"required,gt=0"`
		Unit        string  `json:"unit" validate:"required"`
		StorageType string  `json:"storage_type"`
		// Either an absolute expiration_date or an (expiration_time, time_unit)
		// pair resolved at ingestion.
		ExpirationDate string `json:"expiration_date,omitempty"`
		ExpirationTime int    `json:"expiration_time,omitempty"`
		TimeUnit       string `json:"time_unit,omitempty" validate:"omitempty,oneof=days weeks months"`
		Tips           string `json:"tips,omitempty"`
		ImagePath      string `json:"image_path,omitempty"`
		Enrichment     string `json:"enrichment,omitempty"`
		AddedAt        string `json:"added_at,omitempty"`
	}

	AddIngredientStacksRequest struct {
		Items []AddIngredientStackRequest `json:"items" validate:"required,min=1,dive"`
	}

	AddFoodPortionRequest struct {
		Name            string   `json:"name" validate:"required"`
		ServingQuantity float64  `json:"serving_quantity" validate:"required,gt=0"`
		Category        string   `json:"category"`
		MainIngredients []string `json:"main_ingredients"`
		Calories        *float64 `json:"calories,omitempty"`
		Description     string   `json:"description,omitempty"`
		StorageType     string   `json:"storage_type"`
		ExpirationDate  string   `json:"expiration_date,omitempty"`
		ExpirationTime  int      `json:"expiration_time,omitempty"`
		TimeUnit        string   `json:"time_unit,omitempty" validate:"omitempty,oneof=days weeks months"`
		Tips            string   `json:"tips,omitempty"`
		ImagePath       string   `json:"image_path,omitempty"`
		Enrichment      string   `json:"enrichment,omitempty"`
		AddedAt         string   `json:"added_at,omitempty"`
	}

	AddFoodPortionsRequest struct {
		Items []AddFoodPortionRequest `json:"items" validate:"required,min=1,dive"`
	}

	// BatchItemResult reports one ingestion record independently; a malformed
	// sibling never blocks the rest of the batch.
	BatchItemResult struct {
		Name    string    `json:"name"`
		AddedAt time.Time `json:"added_at,omitempty"`
		Created bool      `json:"created"`
		Error   string    `json:"error,omitempty"`
	}

	ConsumeStackRequest struct {
		AddedAt string `json:"added_at" validate:"required"`
		// Nil means full consumption of the stack.
		Quantity *float64 `json:"quantity,omitempty"`
	}

	ConsumeStackResponse struct {
		Action            string    `json:"action"` // "full" or "partial"
		ConsumedQuantity  float64   `json:"consumed_quantity"`
		RemainingQuantity *float64  `json:"remaining_quantity,omitempty"`
		StackRemoved      bool      `json:"stack_removed"`
		ConsumedAt        time.Time `json:"consumed_at"`
		AddedAt           time.Time `json:"original_added_at"`
	}

	ConsumeFoodRequest struct {
		AddedAt  string   `json:"added_at" validate:"required"`
		Portions *float64 `json:"portions,omitempty"`
	}

	ConsumeFoodResponse struct {
		Action            string    `json:"action"`
		ConsumedPortions  float64   `json:"consumed_portions"`
		RemainingPortions *float64  `json:"remaining_portions,omitempty"`
		FoodRemoved       bool      `json:"food_removed"`
		ConsumedAt        time.Time `json:"consumed_at"`
		AddedAt           time.Time `json:"original_added_at"`

		// Snapshot of what was consumed, so callers can display it without a
		// second lookup.
		Category        string   `json:"category"`
		MainIngredients []string `json:"main_ingredients"`
		Calories        *float64 `json:"calories,omitempty"`
		Description     string   `json:"description"`
	}

	IngredientStackResponse struct {
		Name           string    `json:"name"`
		AddedAt        time.Time `json:"added_at"`
		Quantity       float64   `json:"quantity"`
		Unit           string    `json:"unit"`
		StorageType    string    `json:"storage_type"`
		ExpirationDate time.Time `json:"expiration_date"`
		DaysToExpire   int       `json:"days_to_expire"`
		IsExpired      bool      `json:"is_expired"`
		Tips           string    `json:"tips,omitempty"`
		ImagePath      *string   `json:"image_path,omitempty"`
		Enrichment     string    `json:"enrichment,omitempty"`
	}

	IngredientDetailResponse struct {
		Name          string                    `json:"name"`
		TotalQuantity float64                   `json:"total_quantity"`
		Unit          string                    `json:"unit"`
		StackCount    int                       `json:"stack_count"`
		Stacks        []IngredientStackResponse `json:"stacks"`
	}

	FoodPortionResponse struct {
		Name               string    `json:"name"`
		AddedAt            time.Time `json:"added_at"`
		ServingQuantity    float64   `json:"serving_quantity"`
		Category           string    `json:"category"`
		MainIngredients    []string  `json:"main_ingredients"`
		Calories           *float64  `json:"calories,omitempty"`
		CaloriesPerServing *float64  `json:"calories_per_serving,omitempty"`
		Description        string    `json:"description"`
		StorageType        string    `json:"storage_type"`
		ExpirationDate     time.Time `json:"expiration_date"`
		DaysToExpire       int       `json:"days_to_expire"`
		IsExpired          bool      `json:"is_expired"`
		Tips               string    `json:"tips,omitempty"`
		ImagePath          *string   `json:"image_path,omitempty"`
		Enrichment         string    `json:"enrichment,omitempty"`
	}

	InventorySummary struct {
		TotalItems          int     `json:"total_items"`
		TotalQuantity       float64 `json:"total_quantity"`
		ExpiredCount        int     `json:"expired_count"`
		ExpiringSoonCount   int     `json:"expiring_soon_count"`
		AverageDaysToExpire float64 `json:"average_days_to_expire"`
	}

	ListIngredientsResponse struct {
		Items   []IngredientStackResponse `json:"items"`
		Summary InventorySummary          `json:"summary"`
	}

	ListFoodsResponse struct {
		Items   []FoodPortionResponse `json:"items"`
		Summary InventorySummary      `json:"summary"`
	}

	ExpiringSoonResponse struct {
		DaysAhead   int                       `json:"days_ahead"`
		Ingredients []IngredientStackResponse `json:"ingredients"`
		Foods       []FoodPortionResponse     `json:"foods"`
	}

	ExpiredResponse struct {
		Ingredients []IngredientStackResponse `json:"ingredients"`
		Foods       []FoodPortionResponse     `json:"foods"`
	}

	AttachFoodImageRequest struct {
		AddedAt   string `json:"added_at" validate:"required"`
		ImagePath string `json:"image_path" validate:"required"`
	}

	UploadFoodImageRequest struct {
		Name    string                `json:"name" form:"name" validate:"required"`
		AddedAt string                `json:"added_at" form:"added_at" validate:"required"`
		Image   *multipart.FileHeader `json:"image" form:"image" validate:"required"`
	}

	SweepResponse struct {
		UpdatedCount int64     `json:"updated_count"`
		SweptAt      time.Time `json:"swept_at"`
	}
)
