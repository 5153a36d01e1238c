package inventory

import (
	"Larder-Backend/domain"
	"Larder-Backend/entities"
	"Larder-Backend/internal/utils/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// consumeRetries bounds the optimistic-concurrency loop. The loser of a race
// re-reads and re-plans, so two concurrent partial consumptions can never
// overdraw a stack.
const consumeRetries = 3

type (
	InventoryService interface {
		AddIngredientStacks(ctx context.Context, req domain.AddIngredientStacksRequest, userID string) ([]domain.BatchItemResult, error)
		AddFoodPortions(ctx context.Context, req domain.AddFoodPortionsRequest, userID string) ([]domain.BatchItemResult, error)

		ConsumeIngredientStack(ctx context.Context, name string, req domain.ConsumeStackRequest, userID string) (domain.ConsumeStackResponse, error)
		ConsumeFoodPortion(ctx context.Context, name string, req domain.ConsumeFoodRequest, userID string) (domain.ConsumeFoodResponse, error)

		DeleteIngredientStack(ctx context.Context, name string, addedAt time.Time, userID string) error
		DeleteFoodPortion(ctx context.Context, name string, addedAt time.Time, userID string) error

		GetIngredientDetail(ctx context.Context, name string, userID string) (domain.IngredientDetailResponse, error)
		GetFoodDetail(ctx context.Context, name string, addedAt time.Time, userID string) (domain.FoodPortionResponse, error)
		ListIngredients(ctx context.Context, userID string) (domain.ListIngredientsResponse, error)
		ListFoods(ctx context.Context, userID string) (domain.ListFoodsResponse, error)
		FindExpiringSoon(ctx context.Context, daysAhead int, userID string) (domain.ExpiringSoonResponse, error)
		FindExpired(ctx context.Context, userID string) (domain.ExpiredResponse, error)

		AttachFoodImage(ctx context.Context, name string, req domain.AttachFoodImageRequest, userID string) error
		UploadFoodImage(ctx context.Context, req domain.UploadFoodImageRequest, userID string) error

		UpdateExpiredStatus(ctx context.Context) (domain.SweepResponse, error)
	}

	inventoryService struct {
		inventoryRepository InventoryRepository
		s3                  storage.AwsS3
	}
)

func NewInventoryService(inventoryRepository InventoryRepository, s3 storage.AwsS3) InventoryService {
	return &inventoryService{
		inventoryRepository: inventoryRepository,
		s3:                  s3,
	}
}

func (s *inventoryService) AddIngredientStacks(ctx context.Context, req domain.AddIngredientStacksRequest, userID string) ([]domain.BatchItemResult, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	now := time.Now().UTC()
	results := make([]domain.BatchItemResult, 0, len(req.Items))

	for _, item := range req.Items {
		stack, err := buildIngredientStack(item, userUUID, now)
		if err != nil {
			results = append(results, domain.BatchItemResult{Name: item.Name, Error: err.Error()})
			continue
		}

		if err := s.inventoryRepository.CreateStack(ctx, stack); err != nil {
			results = append(results, domain.BatchItemResult{Name: item.Name, AddedAt: stack.AddedAt, Error: err.Error()})
			continue
		}

		results = append(results, domain.BatchItemResult{Name: item.Name, AddedAt: stack.AddedAt, Created: true})
	}

	return results, nil
}

func (s *inventoryService) AddFoodPortions(ctx context.Context, req domain.AddFoodPortionsRequest, userID string) ([]domain.BatchItemResult, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	now := time.Now().UTC()
	results := make([]domain.BatchItemResult, 0, len(req.Items))

	for _, item := range req.Items {
		portion, err := buildFoodPortion(item, userUUID, now)
		if err != nil {
			results = append(results, domain.BatchItemResult{Name: item.Name, Error: err.Error()})
			continue
		}

		if err := s.inventoryRepository.CreatePortion(ctx, portion); err != nil {
			results = append(results, domain.BatchItemResult{Name: item.Name, AddedAt: portion.AddedAt, Error: err.Error()})
			continue
		}

		results = append(results, domain.BatchItemResult{Name: item.Name, AddedAt: portion.AddedAt, Created: true})
	}

	return results, nil
}

func (s *inventoryService) ConsumeIngredientStack(ctx context.Context, name string, req domain.ConsumeStackRequest, userID string) (domain.ConsumeStackResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ConsumeStackResponse{}, domain.ErrParseUUID
	}

	addedAt, err := parseAddedAt(req.AddedAt)
	if err != nil {
		return domain.ConsumeStackResponse{}, domain.ErrInvalidAddedAt
	}

	for attempt := 0; attempt < consumeRetries; attempt++ {
		stack, err := s.inventoryRepository.GetStack(ctx, userUUID, name, addedAt)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ConsumeStackResponse{}, domain.ErrStackNotFound
			}
			return domain.ConsumeStackResponse{}, err
		}

		plan, err := planConsumption(stack.Quantity, req.Quantity)
		if err != nil {
			return domain.ConsumeStackResponse{}, err
		}

		removed, err := s.inventoryRepository.UpdateStackQuantity(ctx, userUUID, name, addedAt, plan.Remaining, stack.Quantity)
		if err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				continue
			}
			return domain.ConsumeStackResponse{}, err
		}

		res := domain.ConsumeStackResponse{
			Action:           plan.Action,
			ConsumedQuantity: plan.Consumed,
			StackRemoved:     removed,
			ConsumedAt:       time.Now().UTC(),
			AddedAt:          stack.AddedAt,
		}
		if !removed {
			remaining := plan.Remaining
			res.RemainingQuantity = &remaining
		}
		return res, nil
	}

	return domain.ConsumeStackResponse{}, domain.ErrConcurrentModification
}

func (s *inventoryService) ConsumeFoodPortion(ctx context.Context, name string, req domain.ConsumeFoodRequest, userID string) (domain.ConsumeFoodResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ConsumeFoodResponse{}, domain.ErrParseUUID
	}

	addedAt, err := parseAddedAt(req.AddedAt)
	if err != nil {
		return domain.ConsumeFoodResponse{}, domain.ErrInvalidAddedAt
	}

	for attempt := 0; attempt < consumeRetries; attempt++ {
		portion, err := s.inventoryRepository.GetPortion(ctx, userUUID, name, addedAt)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ConsumeFoodResponse{}, domain.ErrPortionNotFound
			}
			return domain.ConsumeFoodResponse{}, err
		}

		plan, err := planConsumption(portion.ServingQuantity, req.Portions)
		if err != nil {
			return domain.ConsumeFoodResponse{}, err
		}

		removed, err := s.inventoryRepository.UpdatePortionQuantity(ctx, userUUID, name, addedAt, plan.Remaining, portion.ServingQuantity)
		if err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				continue
			}
			return domain.ConsumeFoodResponse{}, err
		}

		res := domain.ConsumeFoodResponse{
			Action:           plan.Action,
			ConsumedPortions: plan.Consumed,
			FoodRemoved:      removed,
			ConsumedAt:       time.Now().UTC(),
			AddedAt:          portion.AddedAt,
			Category:         portion.Category,
			MainIngredients:  decodeMainIngredients(portion.MainIngredients),
			Calories:         portion.Calories,
			Description:      portion.Description,
		}
		if !removed {
			remaining := plan.Remaining
			res.RemainingPortions = &remaining
		}
		return res, nil
	}

	return domain.ConsumeFoodResponse{}, domain.ErrConcurrentModification
}

func (s *inventoryService) DeleteIngredientStack(ctx context.Context, name string, addedAt time.Time, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	stack, err := s.inventoryRepository.GetStack(ctx, userUUID, name, addedAt)
	if err == nil && stack.ImagePath != nil {
		s.deleteStoredImage(*stack.ImagePath)
	}

	return s.inventoryRepository.DeleteStack(ctx, userUUID, name, addedAt)
}

func (s *inventoryService) DeleteFoodPortion(ctx context.Context, name string, addedAt time.Time, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	portion, err := s.inventoryRepository.GetPortion(ctx, userUUID, name, addedAt)
	if err == nil && portion.ImagePath != nil {
		s.deleteStoredImage(*portion.ImagePath)
	}

	return s.inventoryRepository.DeletePortion(ctx, userUUID, name, addedAt)
}

func (s *inventoryService) GetIngredientDetail(ctx context.Context, name string, userID string) (domain.IngredientDetailResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.IngredientDetailResponse{}, domain.ErrParseUUID
	}

	stacks, err := s.inventoryRepository.ListStacksByName(ctx, userUUID, name)
	if err != nil {
		return domain.IngredientDetailResponse{}, err
	}
	if len(stacks) == 0 {
		return domain.IngredientDetailResponse{}, domain.ErrStackNotFound
	}

	now := time.Now().UTC()
	unit := stacks[0].Unit
	total := 0.0
	items := make([]domain.IngredientStackResponse, 0, len(stacks))

	for _, stack := range stacks {
		// Strict string comparison; unit conversion is a product question this
		// engine deliberately refuses to guess at.
		if stack.Unit != unit {
			return domain.IngredientDetailResponse{}, domain.ErrInconsistentUnits
		}
		total += stack.Quantity
		items = append(items, toStackResponse(stack, now))
	}

	return domain.IngredientDetailResponse{
		Name:          name,
		TotalQuantity: total,
		Unit:          unit,
		StackCount:    len(stacks),
		Stacks:        items,
	}, nil
}

func (s *inventoryService) GetFoodDetail(ctx context.Context, name string, addedAt time.Time, userID string) (domain.FoodPortionResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.FoodPortionResponse{}, domain.ErrParseUUID
	}

	portion, err := s.inventoryRepository.GetPortion(ctx, userUUID, name, addedAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.FoodPortionResponse{}, domain.ErrPortionNotFound
		}
		return domain.FoodPortionResponse{}, err
	}

	// A stored zero-serving portion violates the exhaustion invariant.
	if portion.ServingQuantity == 0 {
		return domain.FoodPortionResponse{}, domain.ErrInternalInconsistency
	}

	return toPortionResponse(portion, time.Now().UTC()), nil
}

func (s *inventoryService) ListIngredients(ctx context.Context, userID string) (domain.ListIngredientsResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ListIngredientsResponse{}, domain.ErrParseUUID
	}

	stacks, err := s.inventoryRepository.ListStacksByUser(ctx, userUUID)
	if err != nil {
		return domain.ListIngredientsResponse{}, err
	}

	// Summary computed in the same pass over the same slice, so it always
	// matches the listed items exactly.
	now := time.Now().UTC()
	items := make([]domain.IngredientStackResponse, 0, len(stacks))
	summary := domain.InventorySummary{TotalItems: len(stacks)}
	daysSum := 0

	for _, stack := range stacks {
		item := toStackResponse(stack, now)
		items = append(items, item)
		summary.TotalQuantity += stack.Quantity
		daysSum += item.DaysToExpire
		if item.IsExpired {
			summary.ExpiredCount++
		} else if item.DaysToExpire <= expiringSoonDefaultDays {
			summary.ExpiringSoonCount++
		}
	}
	if len(stacks) > 0 {
		summary.AverageDaysToExpire = float64(daysSum) / float64(len(stacks))
	}

	return domain.ListIngredientsResponse{Items: items, Summary: summary}, nil
}

func (s *inventoryService) ListFoods(ctx context.Context, userID string) (domain.ListFoodsResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ListFoodsResponse{}, domain.ErrParseUUID
	}

	portions, err := s.inventoryRepository.ListPortionsByUser(ctx, userUUID)
	if err != nil {
		return domain.ListFoodsResponse{}, err
	}

	now := time.Now().UTC()
	items := make([]domain.FoodPortionResponse, 0, len(portions))
	summary := domain.InventorySummary{TotalItems: len(portions)}
	daysSum := 0

	for _, portion := range portions {
		item := toPortionResponse(portion, now)
		items = append(items, item)
		summary.TotalQuantity += portion.ServingQuantity
		daysSum += item.DaysToExpire
		if item.IsExpired {
			summary.ExpiredCount++
		} else if item.DaysToExpire <= expiringSoonDefaultDays {
			summary.ExpiringSoonCount++
		}
	}
	if len(portions) > 0 {
		summary.AverageDaysToExpire = float64(daysSum) / float64(len(portions))
	}

	return domain.ListFoodsResponse{Items: items, Summary: summary}, nil
}

func (s *inventoryService) FindExpiringSoon(ctx context.Context, daysAhead int, userID string) (domain.ExpiringSoonResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ExpiringSoonResponse{}, domain.ErrParseUUID
	}

	now := time.Now().UTC()
	from, to := expiringSoonWindow(now, daysAhead)

	stacks, err := s.inventoryRepository.ListStacksExpiringBetween(ctx, userUUID, from, to)
	if err != nil {
		return domain.ExpiringSoonResponse{}, err
	}
	portions, err := s.inventoryRepository.ListPortionsExpiringBetween(ctx, userUUID, from, to)
	if err != nil {
		return domain.ExpiringSoonResponse{}, err
	}

	res := domain.ExpiringSoonResponse{
		DaysAhead:   daysAhead,
		Ingredients: make([]domain.IngredientStackResponse, 0, len(stacks)),
		Foods:       make([]domain.FoodPortionResponse, 0, len(portions)),
	}
	for _, stack := range stacks {
		res.Ingredients = append(res.Ingredients, toStackResponse(stack, now))
	}
	for _, portion := range portions {
		res.Foods = append(res.Foods, toPortionResponse(portion, now))
	}
	return res, nil
}

func (s *inventoryService) FindExpired(ctx context.Context, userID string) (domain.ExpiredResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ExpiredResponse{}, domain.ErrParseUUID
	}

	now := time.Now().UTC()

	stacks, err := s.inventoryRepository.ListStacksExpiredBefore(ctx, userUUID, now)
	if err != nil {
		return domain.ExpiredResponse{}, err
	}
	portions, err := s.inventoryRepository.ListPortionsExpiredBefore(ctx, userUUID, now)
	if err != nil {
		return domain.ExpiredResponse{}, err
	}

	res := domain.ExpiredResponse{
		Ingredients: make([]domain.IngredientStackResponse, 0, len(stacks)),
		Foods:       make([]domain.FoodPortionResponse, 0, len(portions)),
	}
	for _, stack := range stacks {
		res.Ingredients = append(res.Ingredients, toStackResponse(stack, now))
	}
	for _, portion := range portions {
		res.Foods = append(res.Foods, toPortionResponse(portion, now))
	}
	return res, nil
}

// AttachFoodImage is the write-back boundary for the out-of-process image
// pipeline. A portion consumed in the meantime makes this a silent no-op.
func (s *inventoryService) AttachFoodImage(ctx context.Context, name string, req domain.AttachFoodImageRequest, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	addedAt, err := parseAddedAt(req.AddedAt)
	if err != nil {
		return domain.ErrInvalidAddedAt
	}

	return s.inventoryRepository.AttachPortionImage(ctx, userUUID, name, addedAt, req.ImagePath)
}

func (s *inventoryService) UploadFoodImage(ctx context.Context, req domain.UploadFoodImageRequest, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	addedAt, err := parseAddedAt(req.AddedAt)
	if err != nil {
		return domain.ErrInvalidAddedAt
	}

	portion, err := s.inventoryRepository.GetPortion(ctx, userUUID, req.Name, addedAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPortionNotFound
		}
		return err
	}

	fileName := fmt.Sprintf("food-portion-%s", portion.ID.String())
	var objectKey string
	var uploadErr error

	if portion.ImagePath != nil {
		existingKey := s.s3.GetObjectKeyFromLink(*portion.ImagePath)
		if existingKey != "" {
			objectKey, uploadErr = s.s3.UpdateFile(existingKey, req.Image, storage.AllowImage...)
		} else {
			objectKey, uploadErr = s.s3.UploadFile(fileName, req.Image, "food-portions", storage.AllowImage...)
		}
	} else {
		objectKey, uploadErr = s.s3.UploadFile(fileName, req.Image, "food-portions", storage.AllowImage...)
	}
	if uploadErr != nil {
		return uploadErr
	}

	link := s.s3.GetPublicLinkKey(objectKey)
	return s.inventoryRepository.AttachPortionImage(ctx, userUUID, req.Name, addedAt, link)
}

func (s *inventoryService) UpdateExpiredStatus(ctx context.Context) (domain.SweepResponse, error) {
	now := time.Now().UTC()
	changed, err := s.inventoryRepository.UpdateExpiredStatus(ctx, now)
	if err != nil {
		return domain.SweepResponse{}, err
	}
	return domain.SweepResponse{UpdatedCount: changed, SweptAt: now}, nil
}

func (s *inventoryService) deleteStoredImage(link string) {
	if s.s3 == nil {
		return
	}
	if objectKey := s.s3.GetObjectKeyFromLink(link); objectKey != "" {
		_ = s.s3.DeleteFile(objectKey)
	}
}

// expiringSoonDefaultDays is the window used by list summaries; the dedicated
// expiring-soon query takes the window from the caller.
const expiringSoonDefaultDays = 3

func buildIngredientStack(req domain.AddIngredientStackRequest, userID uuid.UUID, now time.Time) (*entities.IngredientStack, error) {
	if req.Name == "" || req.Unit == "" || req.Quantity <= 0 {
		return nil, domain.ErrMalformedInput
	}

	expiration, err := resolveExpiration(req.ExpirationDate, req.ExpirationTime, req.TimeUnit, now)
	if err != nil {
		return nil, err
	}

	addedAt := now
	if req.AddedAt != "" {
		addedAt, err = parseAddedAt(req.AddedAt)
		if err != nil {
			return nil, domain.ErrInvalidAddedAt
		}
	}

	stack := &entities.IngredientStack{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           req.Name,
		AddedAt:        addedAt,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		StorageType:    req.StorageType,
		ExpirationDate: expiration,
		Tips:           req.Tips,
		Enrichment:     req.Enrichment,
		IsExpired:      expiration.Before(now),
	}
	if req.ImagePath != "" {
		imagePath := req.ImagePath
		stack.ImagePath = &imagePath
	}
	return stack, nil
}

func buildFoodPortion(req domain.AddFoodPortionRequest, userID uuid.UUID, now time.Time) (*entities.FoodPortion, error) {
	if req.Name == "" || req.ServingQuantity <= 0 {
		return nil, domain.ErrMalformedInput
	}

	expiration, err := resolveExpiration(req.ExpirationDate, req.ExpirationTime, req.TimeUnit, now)
	if err != nil {
		return nil, err
	}

	addedAt := now
	if req.AddedAt != "" {
		addedAt, err = parseAddedAt(req.AddedAt)
		if err != nil {
			return nil, domain.ErrInvalidAddedAt
		}
	}

	portion := &entities.FoodPortion{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            req.Name,
		AddedAt:         addedAt,
		ServingQuantity: req.ServingQuantity,
		Category:        req.Category,
		MainIngredients: encodeMainIngredients(req.MainIngredients),
		Calories:        req.Calories,
		Description:     req.Description,
		StorageType:     req.StorageType,
		ExpirationDate:  expiration,
		Tips:            req.Tips,
		Enrichment:      req.Enrichment,
		IsExpired:       expiration.Before(now),
	}
	if req.ImagePath != "" {
		imagePath := req.ImagePath
		portion.ImagePath = &imagePath
	}
	return portion, nil
}

// resolveExpiration turns either an absolute date or an (expiration_time,
// time_unit) pair into an absolute timestamp. Exactly one form is required.
func resolveExpiration(dateStr string, amount int, timeUnit string, now time.Time) (time.Time, error) {
	if dateStr != "" {
		expiration, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return time.Time{}, domain.ErrInvalidExpiration
		}
		return expiration, nil
	}

	if amount <= 0 {
		return time.Time{}, domain.ErrInvalidExpiration
	}
	switch timeUnit {
	case "days":
		return now.AddDate(0, 0, amount), nil
	case "weeks":
		return now.AddDate(0, 0, amount*7), nil
	case "months":
		return now.AddDate(0, amount, 0), nil
	default:
		return time.Time{}, domain.ErrInvalidExpiration
	}
}

func parseAddedAt(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func toStackResponse(stack *entities.IngredientStack, now time.Time) domain.IngredientStackResponse {
	status := EvaluateExpiration(stack.ExpirationDate, now)
	return domain.IngredientStackResponse{
		Name:           stack.Name,
		AddedAt:        stack.AddedAt,
		Quantity:       stack.Quantity,
		Unit:           stack.Unit,
		StorageType:    stack.StorageType,
		ExpirationDate: stack.ExpirationDate,
		DaysToExpire:   status.DaysToExpire,
		IsExpired:      status.IsExpired,
		Tips:           stack.Tips,
		ImagePath:      stack.ImagePath,
		Enrichment:     stack.Enrichment,
	}
}

func toPortionResponse(portion *entities.FoodPortion, now time.Time) domain.FoodPortionResponse {
	status := EvaluateExpiration(portion.ExpirationDate, now)
	res := domain.FoodPortionResponse{
		Name:            portion.Name,
		AddedAt:         portion.AddedAt,
		ServingQuantity: portion.ServingQuantity,
		Category:        portion.Category,
		MainIngredients: decodeMainIngredients(portion.MainIngredients),
		Calories:        portion.Calories,
		Description:     portion.Description,
		StorageType:     portion.StorageType,
		ExpirationDate:  portion.ExpirationDate,
		DaysToExpire:    status.DaysToExpire,
		IsExpired:       status.IsExpired,
		Tips:            portion.Tips,
		ImagePath:       portion.ImagePath,
		Enrichment:      portion.Enrichment,
	}
	if portion.Calories != nil && portion.ServingQuantity > 0 {
		perServing := *portion.Calories / portion.ServingQuantity
		res.CaloriesPerServing = &perServing
	}
	return res
}

func encodeMainIngredients(ingredients []string) string {
	if len(ingredients) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(ingredients)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func decodeMainIngredients(encoded string) []string {
	if encoded == "" {
		return []string{}
	}
	var ingredients []string
	if err := json.Unmarshal([]byte(encoded), &ingredients); err != nil {
		return []string{}
	}
	return ingredients
}
