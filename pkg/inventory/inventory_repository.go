package inventory

import (
	"Larder-Backend/domain"
	"Larder-Backend/entities"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// InventoryRepository is the ledger store: the single owner of ingredient
	// stacks and food portions. Same-key mutations are serialized through
	// conditional writes (quantity acts as the optimistic-concurrency token);
	// callers that lose the race get ErrConcurrentModification and must
	// re-read.
	InventoryRepository interface {
		CreateStack(ctx context.Context, stack *entities.IngredientStack) error
		GetStack(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) (*entities.IngredientStack, error)
		ListStacksByUser(ctx context.Context, userID uuid.UUID) ([]*entities.IngredientStack, error)
		ListStacksByName(ctx context.Context, userID uuid.UUID, name string) ([]*entities.IngredientStack, error)
		UpdateStackQuantity(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time, newQuantity, priorQuantity float64) (bool, error)
		DeleteStack(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) error

		CreatePortion(ctx context.Context, portion *entities.FoodPortion) error
		GetPortion(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) (*entities.FoodPortion, error)
		ListPortionsByUser(ctx context.Context, userID uuid.UUID) ([]*entities.FoodPortion, error)
		UpdatePortionQuantity(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time, newQuantity, priorQuantity float64) (bool, error)
		DeletePortion(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) error
		AttachPortionImage(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time, imagePath string) error

		ListStacksExpiringBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.IngredientStack, error)
		ListPortionsExpiringBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.FoodPortion, error)
		ListStacksExpiredBefore(ctx context.Context, userID uuid.UUID, t time.Time) ([]*entities.IngredientStack, error)
		ListPortionsExpiredBefore(ctx context.Context, userID uuid.UUID, t time.Time) ([]*entities.FoodPortion, error)
		UpdateExpiredStatus(ctx context.Context, now time.Time) (int64, error)
	}

	inventoryRepository struct {
		db *gorm.DB
	}
)

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateStack(ctx context.Context, stack *entities.IngredientStack) error {
	if err := r.db.WithContext(ctx).Create(stack).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *inventoryRepository) GetStack(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) (*entities.IngredientStack, error) {
	var stack entities.IngredientStack
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND added_at = ?", userID, name, addedAt).
		First(&stack).Error; err != nil {
		return nil, err
	}
	return &stack, nil
}

func (r *inventoryRepository) ListStacksByUser(ctx context.Context, userID uuid.UUID) ([]*entities.IngredientStack, error) {
	var stacks []*entities.IngredientStack
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expiration_date asc").
		Find(&stacks).Error; err != nil {
		return nil, err
	}
	return stacks, nil
}

func (r *inventoryRepository) ListStacksByName(ctx context.Context, userID uuid.UUID, name string) ([]*entities.IngredientStack, error) {
	var stacks []*entities.IngredientStack
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		Order("added_at asc").
		Find(&stacks).Error; err != nil {
		return nil, err
	}
	return stacks, nil
}

// UpdateStackQuantity applies the consumption engine's decision as a single
// conditional write keyed on the quantity the caller read. newQuantity <= 0
// is the exhaustion path and deletes the row instead of storing a zero.
func (r *inventoryRepository) UpdateStackQuantity(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time, newQuantity, priorQuantity float64) (bool, error) {
	cond := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND added_at = ? AND quantity = ?", userID, name, addedAt, priorQuantity)

	if newQuantity <= 0 {
		res := cond.Delete(&entities.IngredientStack{})
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 0 {
			return false, domain.ErrConcurrentModification
		}
		return true, nil
	}

	res := cond.Model(&entities.IngredientStack{}).Update("quantity", newQuantity)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, domain.ErrConcurrentModification
	}
	return false, nil
}

// DeleteStack is an explicit user action, not a consistency-critical path, so
// removing an already-absent row is not an error.
func (r *inventoryRepository) DeleteStack(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND added_at = ?", userID, name, addedAt).
		Delete(&entities.IngredientStack{}).Error
}

func (r *inventoryRepository) CreatePortion(ctx context.Context, portion *entities.FoodPortion) error {
	if err := r.db.WithContext(ctx).Create(portion).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *inventoryRepository) GetPortion(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) (*entities.FoodPortion, error) {
	var portion entities.FoodPortion
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND added_at = ?", userID, name, addedAt).
		First(&portion).Error; err != nil {
		return nil, err
	}
	return &portion, nil
}

func (r *inventoryRepository) ListPortionsByUser(ctx context.Context, userID uuid.UUID) ([]*entities.FoodPortion, error) {
	var portions []*entities.FoodPortion
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expiration_date asc").
		Find(&portions).Error; err != nil {
		return nil, err
	}
	return portions, nil
}

func (r *inventoryRepository) UpdatePortionQuantity(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time, newQuantity, priorQuantity float64) (bool, error) {
	cond := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND added_at = ? AND serving_quantity = ?", userID, name, addedAt, priorQuantity)

	if newQuantity <= 0 {
		res := cond.Delete(&entities.FoodPortion{})
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 0 {
			return false, domain.ErrConcurrentModification
		}
		return true, nil
	}

	res := cond.Model(&entities.FoodPortion{}).Update("serving_quantity", newQuantity)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, domain.ErrConcurrentModification
	}
	return false, nil
}

func (r *inventoryRepository) DeletePortion(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND added_at = ?", userID, name, addedAt).
		Delete(&entities.FoodPortion{}).Error
}

// AttachPortionImage is written by the asynchronous image pipeline. The
// portion may have been fully consumed in the meantime; that race is expected
// and the write silently becomes a no-op.
func (r *inventoryRepository) AttachPortionImage(ctx context.Context, userID uuid.UUID, name string, addedAt time.Time, imagePath string) error {
	return r.db.WithContext(ctx).Model(&entities.FoodPortion{}).
		Where("user_id = ? AND name = ? AND added_at = ?", userID, name, addedAt).
		Update("image_path", imagePath).Error
}

func (r *inventoryRepository) ListStacksExpiringBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.IngredientStack, error) {
	var stacks []*entities.IngredientStack
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND expiration_date >= ? AND expiration_date < ?", userID, from, to).
		Order("expiration_date asc").
		Find(&stacks).Error; err != nil {
		return nil, err
	}
	return stacks, nil
}

func (r *inventoryRepository) ListPortionsExpiringBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.FoodPortion, error) {
	var portions []*entities.FoodPortion
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND expiration_date >= ? AND expiration_date < ?", userID, from, to).
		Order("expiration_date asc").
		Find(&portions).Error; err != nil {
		return nil, err
	}
	return portions, nil
}

func (r *inventoryRepository) ListStacksExpiredBefore(ctx context.Context, userID uuid.UUID, t time.Time) ([]*entities.IngredientStack, error) {
	var stacks []*entities.IngredientStack
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND expiration_date < ?", userID, t).
		Order("expiration_date asc").
		Find(&stacks).Error; err != nil {
		return nil, err
	}
	return stacks, nil
}

func (r *inventoryRepository) ListPortionsExpiredBefore(ctx context.Context, userID uuid.UUID, t time.Time) ([]*entities.FoodPortion, error) {
	var portions []*entities.FoodPortion
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND expiration_date < ?", userID, t).
		Order("expiration_date asc").
		Find(&portions).Error; err != nil {
		return nil, err
	}
	return portions, nil
}

// UpdateExpiredStatus refreshes the advisory is_expired column everywhere it
// disagrees with expiration_date. Read paths never trust the column; it only
// exists so the database can index and filter on it.
func (r *inventoryRepository) UpdateExpiredStatus(ctx context.Context, now time.Time) (int64, error) {
	var changed int64

	res := r.db.WithContext(ctx).Model(&entities.IngredientStack{}).
		Where("is_expired <> (expiration_date < ?)", now).
		Update("is_expired", gorm.Expr("(expiration_date < ?)", now))
	if res.Error != nil {
		return 0, res.Error
	}
	changed += res.RowsAffected

	res = r.db.WithContext(ctx).Model(&entities.FoodPortion{}).
		Where("is_expired <> (expiration_date < ?)", now).
		Update("is_expired", gorm.Expr("(expiration_date < ?)", now))
	if res.Error != nil {
		return 0, res.Error
	}
	changed += res.RowsAffected

	return changed, nil
}
