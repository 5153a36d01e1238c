package inventory

import (
	"Larder-Backend/domain"
	"Larder-Backend/entities"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeInventoryRepository is the in-memory ledger substitute used to exercise
// the consumption engine and query service without a database. It mirrors the
// real repository's contract: gorm.ErrRecordNotFound on missing keys,
// domain.ErrDuplicateKey on identity collisions, and the quantity-as-token
// optimistic check on updates.
type fakeInventoryRepository struct {
	mu       sync.Mutex
	stacks   map[recordKey]*entities.IngredientStack
	portions map[recordKey]*entities.FoodPortion
}

type recordKey struct {
	userID  uuid.UUID
	name    string
	addedAt int64
}

func newFakeRepository() *fakeInventoryRepository {
	return &fakeInventoryRepository{
		stacks:   make(map[recordKey]*entities.IngredientStack),
		portions: make(map[recordKey]*entities.FoodPortion),
	}
}

func keyOf(userID uuid.UUID, name string, addedAt time.Time) recordKey {
	return recordKey{userID: userID, name: name, addedAt: addedAt.UnixNano()}
}

func (f *fakeInventoryRepository) CreateStack(_ context.Context, stack *entities.IngredientStack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(stack.UserID, stack.Name, stack.AddedAt)
	if _, ok := f.stacks[k]; ok {
		return domain.ErrDuplicateKey
	}
	cp := *stack
	f.stacks[k] = &cp
	return nil
}

func (f *fakeInventoryRepository) GetStack(_ context.Context, userID uuid.UUID, name string, addedAt time.Time) (*entities.IngredientStack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stack, ok := f.stacks[keyOf(userID, name, addedAt)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stack
	return &cp, nil
}

func (f *fakeInventoryRepository) ListStacksByUser(_ context.Context, userID uuid.UUID) ([]*entities.IngredientStack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.IngredientStack
	for _, stack := range f.stacks {
		if stack.UserID == userID {
			cp := *stack
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(out[j].ExpirationDate) })
	return out, nil
}

func (f *fakeInventoryRepository) ListStacksByName(_ context.Context, userID uuid.UUID, name string) ([]*entities.IngredientStack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.IngredientStack
	for _, stack := range f.stacks {
		if stack.UserID == userID && stack.Name == name {
			cp := *stack
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (f *fakeInventoryRepository) UpdateStackQuantity(_ context.Context, userID uuid.UUID, name string, addedAt time.Time, newQuantity, priorQuantity float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(userID, name, addedAt)
	stack, ok := f.stacks[k]
	if !ok || stack.Quantity != priorQuantity {
		return false, domain.ErrConcurrentModification
	}
	if newQuantity <= 0 {
		delete(f.stacks, k)
		return true, nil
	}
	stack.Quantity = newQuantity
	return false, nil
}

func (f *fakeInventoryRepository) DeleteStack(_ context.Context, userID uuid.UUID, name string, addedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stacks, keyOf(userID, name, addedAt))
	return nil
}

func (f *fakeInventoryRepository) CreatePortion(_ context.Context, portion *entities.FoodPortion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(portion.UserID, portion.Name, portion.AddedAt)
	if _, ok := f.portions[k]; ok {
		return domain.ErrDuplicateKey
	}
	cp := *portion
	f.portions[k] = &cp
	return nil
}

func (f *fakeInventoryRepository) GetPortion(_ context.Context, userID uuid.UUID, name string, addedAt time.Time) (*entities.FoodPortion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	portion, ok := f.portions[keyOf(userID, name, addedAt)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *portion
	return &cp, nil
}

func (f *fakeInventoryRepository) ListPortionsByUser(_ context.Context, userID uuid.UUID) ([]*entities.FoodPortion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.FoodPortion
	for _, portion := range f.portions {
		if portion.UserID == userID {
			cp := *portion
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(out[j].ExpirationDate) })
	return out, nil
}

func (f *fakeInventoryRepository) UpdatePortionQuantity(_ context.Context, userID uuid.UUID, name string, addedAt time.Time, newQuantity, priorQuantity float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(userID, name, addedAt)
	portion, ok := f.portions[k]
	if !ok || portion.ServingQuantity != priorQuantity {
		return false, domain.ErrConcurrentModification
	}
	if newQuantity <= 0 {
		delete(f.portions, k)
		return true, nil
	}
	portion.ServingQuantity = newQuantity
	return false, nil
}

func (f *fakeInventoryRepository) DeletePortion(_ context.Context, userID uuid.UUID, name string, addedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.portions, keyOf(userID, name, addedAt))
	return nil
}

func (f *fakeInventoryRepository) AttachPortionImage(_ context.Context, userID uuid.UUID, name string, addedAt time.Time, imagePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if portion, ok := f.portions[keyOf(userID, name, addedAt)]; ok {
		portion.ImagePath = &imagePath
	}
	return nil
}

func (f *fakeInventoryRepository) ListStacksExpiringBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.IngredientStack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.IngredientStack
	for _, stack := range f.stacks {
		if stack.UserID == userID && !stack.ExpirationDate.Before(from) && stack.ExpirationDate.Before(to) {
			cp := *stack
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepository) ListPortionsExpiringBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.FoodPortion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.FoodPortion
	for _, portion := range f.portions {
		if portion.UserID == userID && !portion.ExpirationDate.Before(from) && portion.ExpirationDate.Before(to) {
			cp := *portion
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepository) ListStacksExpiredBefore(_ context.Context, userID uuid.UUID, t time.Time) ([]*entities.IngredientStack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.IngredientStack
	for _, stack := range f.stacks {
		if stack.UserID == userID && stack.ExpirationDate.Before(t) {
			cp := *stack
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepository) ListPortionsExpiredBefore(_ context.Context, userID uuid.UUID, t time.Time) ([]*entities.FoodPortion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.FoodPortion
	for _, portion := range f.portions {
		if portion.UserID == userID && portion.ExpirationDate.Before(t) {
			cp := *portion
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepository) UpdateExpiredStatus(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var changed int64
	for _, stack := range f.stacks {
		if expired := stack.ExpirationDate.Before(now); stack.IsExpired != expired {
			stack.IsExpired = expired
			changed++
		}
	}
	for _, portion := range f.portions {
		if expired := portion.ExpirationDate.Before(now); portion.IsExpired != expired {
			portion.IsExpired = expired
			changed++
		}
	}
	return changed, nil
}

func newTestService(t *testing.T) (InventoryService, *fakeInventoryRepository, string) {
	t.Helper()
	repo := newFakeRepository()
	svc := NewInventoryService(repo, nil)
	return svc, repo, uuid.New().String()
}

func addStack(t *testing.T, svc InventoryService, userID, name string, quantity float64, unit string, expiresInDays int) string {
	t.Helper()
	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	results, err := svc.AddIngredientStacks(context.Background(), domain.AddIngredientStacksRequest{
		Items: []domain.AddIngredientStackRequest{{
			Name:           name,
			Quantity:       quantity,
			Unit:           unit,
			StorageType:    "fridge",
			ExpirationTime: expiresInDays,
			TimeUnit:       "days",
			AddedAt:        addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Created, results[0].Error)
	return addedAt
}

func TestFullConsumptionRemovesStack(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := addStack(t, svc, userID, "Tomate", 3, "unit", 5)

	res, err := svc.ConsumeIngredientStack(ctx, "Tomate", domain.ConsumeStackRequest{AddedAt: addedAt}, userID)
	require.NoError(t, err)
	assert.Equal(t, ActionFull, res.Action)
	assert.Equal(t, 3.0, res.ConsumedQuantity)
	assert.True(t, res.StackRemoved)
	assert.Nil(t, res.RemainingQuantity)
	assert.False(t, res.ConsumedAt.IsZero())

	_, err = svc.GetIngredientDetail(ctx, "Tomate", userID)
	assert.ErrorIs(t, err, domain.ErrStackNotFound)
}

func TestPartialConsumptionThenExhaustion(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := addStack(t, svc, userID, "Tomate", 3, "unit", 5)

	res, err := svc.ConsumeIngredientStack(ctx, "Tomate", domain.ConsumeStackRequest{AddedAt: addedAt, Quantity: floatPtr(1.5)}, userID)
	require.NoError(t, err)
	assert.Equal(t, ActionPartial, res.Action)
	require.NotNil(t, res.RemainingQuantity)
	assert.InDelta(t, 1.5, *res.RemainingQuantity, 1e-9)
	assert.False(t, res.StackRemoved)

	// Second identical call exhausts the stack through the partial path.
	res, err = svc.ConsumeIngredientStack(ctx, "Tomate", domain.ConsumeStackRequest{AddedAt: addedAt, Quantity: floatPtr(1.5)}, userID)
	require.NoError(t, err)
	assert.Equal(t, ActionFull, res.Action)
	assert.True(t, res.StackRemoved)
	assert.Nil(t, res.RemainingQuantity)
}

func TestConsumeInsufficientQuantity(t *testing.T) {
	svc, _, userID := newTestService(t)

	addedAt := addStack(t, svc, userID, "Tomate", 3, "unit", 5)

	_, err := svc.ConsumeIngredientStack(context.Background(), "Tomate", domain.ConsumeStackRequest{AddedAt: addedAt, Quantity: floatPtr(999)}, userID)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
}

func TestConsumeInvalidQuantity(t *testing.T) {
	svc, _, userID := newTestService(t)

	addedAt := addStack(t, svc, userID, "Tomate", 3, "unit", 5)

	_, err := svc.ConsumeIngredientStack(context.Background(), "Tomate", domain.ConsumeStackRequest{AddedAt: addedAt, Quantity: floatPtr(-1)}, userID)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConsumeMissingStack(t *testing.T) {
	svc, _, userID := newTestService(t)

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := svc.ConsumeIngredientStack(context.Background(), "Nothing", domain.ConsumeStackRequest{AddedAt: addedAt}, userID)
	assert.ErrorIs(t, err, domain.ErrStackNotFound)
}

func TestPartialConsumptionReplayIsNotIdempotent(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := addStack(t, svc, userID, "Arroz", 10, "g", 30)

	// Replaying an identical partial consumption consumes again; the engine
	// documents non-idempotence rather than deduplicating.
	for i := 0; i < 2; i++ {
		res, err := svc.ConsumeIngredientStack(ctx, "Arroz", domain.ConsumeStackRequest{AddedAt: addedAt, Quantity: floatPtr(2)}, userID)
		require.NoError(t, err)
		assert.Equal(t, ActionPartial, res.Action)
	}

	detail, err := svc.GetIngredientDetail(ctx, "Arroz", userID)
	require.NoError(t, err)
	assert.InDelta(t, 6, detail.TotalQuantity, 1e-9)
}

func TestRoundTripInsertThenDetail(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	results, err := svc.AddIngredientStacks(ctx, domain.AddIngredientStacksRequest{
		Items: []domain.AddIngredientStackRequest{{
			Name:           "Queso",
			Quantity:       250,
			Unit:           "g",
			StorageType:    "fridge",
			ExpirationDate: time.Now().UTC().AddDate(0, 0, 10).Format(domain.DateLayout),
			Tips:           "keep wrapped",
			Enrichment:     `{"co2_kg":0.9}`,
			AddedAt:        addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, results[0].Created)

	detail, err := svc.GetIngredientDetail(ctx, "Queso", userID)
	require.NoError(t, err)
	require.Equal(t, 1, detail.StackCount)
	stack := detail.Stacks[0]
	assert.Equal(t, "Queso", stack.Name)
	assert.Equal(t, 250.0, stack.Quantity)
	assert.Equal(t, "g", stack.Unit)
	assert.Equal(t, "fridge", stack.StorageType)
	assert.Equal(t, "keep wrapped", stack.Tips)
	assert.Equal(t, `{"co2_kg":0.9}`, stack.Enrichment)
}

func TestAggregationMatchesIndividualStacks(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	quantities := []float64{1.2, 3.4, 0.4}
	for i, q := range quantities {
		addedAt := time.Now().UTC().Add(time.Duration(i) * time.Second).Format(time.RFC3339Nano)
		results, err := svc.AddIngredientStacks(ctx, domain.AddIngredientStacksRequest{
			Items: []domain.AddIngredientStackRequest{{
				Name:           "Cebolla",
				Quantity:       q,
				Unit:           "kg",
				ExpirationTime: 7,
				TimeUnit:       "days",
				AddedAt:        addedAt,
			}},
		}, userID)
		require.NoError(t, err)
		require.True(t, results[0].Created)
	}

	detail, err := svc.GetIngredientDetail(ctx, "Cebolla", userID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.StackCount)

	sum := 0.0
	for _, stack := range detail.Stacks {
		sum += stack.Quantity
	}
	assert.InDelta(t, sum, detail.TotalQuantity, 1e-9)
	assert.InDelta(t, 5.0, detail.TotalQuantity, 1e-9)
}

func TestInconsistentUnitsDetected(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addStack(t, svc, userID, "Harina", 500, "g", 60)
	addedAt := time.Now().UTC().Add(time.Second).Format(time.RFC3339Nano)
	results, err := svc.AddIngredientStacks(ctx, domain.AddIngredientStacksRequest{
		Items: []domain.AddIngredientStackRequest{{
			Name:           "Harina",
			Quantity:       1,
			Unit:           "kg",
			ExpirationTime: 60,
			TimeUnit:       "days",
			AddedAt:        addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, results[0].Created)

	_, err = svc.GetIngredientDetail(ctx, "Harina", userID)
	assert.ErrorIs(t, err, domain.ErrInconsistentUnits)
}

func TestBatchIngestionPerRecordIndependence(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	first, err := svc.AddIngredientStacks(ctx, domain.AddIngredientStacksRequest{
		Items: []domain.AddIngredientStackRequest{{
			Name: "Leche", Quantity: 1, Unit: "l", ExpirationTime: 4, TimeUnit: "days", AddedAt: addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, first[0].Created)

	// Batch with an identity collision, a malformed record, and a valid one:
	// only the siblings' own faults fail them.
	results, err := svc.AddIngredientStacks(ctx, domain.AddIngredientStacksRequest{
		Items: []domain.AddIngredientStackRequest{
			{Name: "Leche", Quantity: 1, Unit: "l", ExpirationTime: 4, TimeUnit: "days", AddedAt: addedAt},
			{Name: "Sin Unidad", Quantity: 2, ExpirationTime: 4, TimeUnit: "days"},
			{Name: "Pan", Quantity: 1, Unit: "unit", ExpirationTime: 2, TimeUnit: "days"},
		},
	}, userID)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].Created)
	assert.Equal(t, domain.ErrDuplicateKey.Error(), results[0].Error)
	assert.False(t, results[1].Created)
	assert.Equal(t, domain.ErrMalformedInput.Error(), results[1].Error)
	assert.True(t, results[2].Created)
}

func TestFindExpiringSoonWindow(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	insert := func(name string, expiration time.Time) {
		results, err := svc.AddIngredientStacks(ctx, domain.AddIngredientStacksRequest{
			Items: []domain.AddIngredientStackRequest{{
				Name:           name,
				Quantity:       1,
				Unit:           "unit",
				ExpirationDate: expiration.Format(domain.DateLayout),
				AddedAt:        now.Format(time.RFC3339Nano),
			}},
		}, userID)
		require.NoError(t, err)
		require.True(t, results[0].Created)
	}

	insert("OneDay", now.AddDate(0, 0, 2))   // midnight in ~1.x days
	insert("FourDays", now.AddDate(0, 0, 5)) // beyond the 3-day window
	insert("Expired", now.AddDate(0, 0, -1)) // belongs to findExpired

	soon, err := svc.FindExpiringSoon(ctx, 3, userID)
	require.NoError(t, err)
	require.Len(t, soon.Ingredients, 1)
	assert.Equal(t, "OneDay", soon.Ingredients[0].Name)
	assert.Equal(t, 3, soon.DaysAhead)

	expired, err := svc.FindExpired(ctx, userID)
	require.NoError(t, err)
	require.Len(t, expired.Ingredients, 1)
	assert.Equal(t, "Expired", expired.Ingredients[0].Name)
	assert.True(t, expired.Ingredients[0].IsExpired)
	assert.Negative(t, expired.Ingredients[0].DaysToExpire)
}

func TestFoodPortionNullCalories(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	results, err := svc.AddFoodPortions(ctx, domain.AddFoodPortionsRequest{
		Items: []domain.AddFoodPortionRequest{{
			Name:            "Guiso",
			ServingQuantity: 4,
			Category:        "stew",
			MainIngredients: []string{"lentejas", "zanahoria"},
			ExpirationTime:  3,
			TimeUnit:        "days",
			AddedAt:         addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, results[0].Created)

	parsed, err := time.Parse(time.RFC3339Nano, addedAt)
	require.NoError(t, err)

	detail, err := svc.GetFoodDetail(ctx, "Guiso", parsed, userID)
	require.NoError(t, err)
	assert.Nil(t, detail.Calories)
	assert.Nil(t, detail.CaloriesPerServing)
	assert.Equal(t, []string{"lentejas", "zanahoria"}, detail.MainIngredients)
}

func TestFoodPortionCaloriesPerServing(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	results, err := svc.AddFoodPortions(ctx, domain.AddFoodPortionsRequest{
		Items: []domain.AddFoodPortionRequest{{
			Name:            "Lasagna",
			ServingQuantity: 4,
			Calories:        floatPtr(1200),
			ExpirationTime:  3,
			TimeUnit:        "days",
			AddedAt:         addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, results[0].Created)

	parsed, err := time.Parse(time.RFC3339Nano, addedAt)
	require.NoError(t, err)

	detail, err := svc.GetFoodDetail(ctx, "Lasagna", parsed, userID)
	require.NoError(t, err)
	require.NotNil(t, detail.CaloriesPerServing)
	assert.InDelta(t, 300, *detail.CaloriesPerServing, 1e-9)
}

func TestConsumeFoodEchoesSnapshot(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	results, err := svc.AddFoodPortions(ctx, domain.AddFoodPortionsRequest{
		Items: []domain.AddFoodPortionRequest{{
			Name:            "Paella",
			ServingQuantity: 6,
			Category:        "rice",
			MainIngredients: []string{"arroz", "marisco"},
			Calories:        floatPtr(1800),
			Description:     "sunday paella",
			ExpirationTime:  2,
			TimeUnit:        "days",
			AddedAt:         addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, results[0].Created)

	res, err := svc.ConsumeFoodPortion(ctx, "Paella", domain.ConsumeFoodRequest{AddedAt: addedAt, Portions: floatPtr(2)}, userID)
	require.NoError(t, err)
	assert.Equal(t, ActionPartial, res.Action)
	require.NotNil(t, res.RemainingPortions)
	assert.InDelta(t, 4, *res.RemainingPortions, 1e-9)
	assert.Equal(t, "rice", res.Category)
	assert.Equal(t, []string{"arroz", "marisco"}, res.MainIngredients)
	require.NotNil(t, res.Calories)
	assert.Equal(t, 1800.0, *res.Calories)
	assert.Equal(t, "sunday paella", res.Description)
}

func TestAttachImageAfterFullConsumptionIsNoop(t *testing.T) {
	svc, repo, userID := newTestService(t)
	ctx := context.Background()

	addedAt := time.Now().UTC().Format(time.RFC3339Nano)
	results, err := svc.AddFoodPortions(ctx, domain.AddFoodPortionsRequest{
		Items: []domain.AddFoodPortionRequest{{
			Name:            "Sopa",
			ServingQuantity: 2,
			ExpirationTime:  2,
			TimeUnit:        "days",
			AddedAt:         addedAt,
		}},
	}, userID)
	require.NoError(t, err)
	require.True(t, results[0].Created)

	_, err = svc.ConsumeFoodPortion(ctx, "Sopa", domain.ConsumeFoodRequest{AddedAt: addedAt}, userID)
	require.NoError(t, err)

	// The image pipeline may report long after the portion is gone; the
	// write-back must not fail.
	err = svc.AttachFoodImage(ctx, "Sopa", domain.AttachFoodImageRequest{AddedAt: addedAt, ImagePath: "/images/sopa.png"}, userID)
	assert.NoError(t, err)
	assert.Empty(t, repo.portions)
}

func TestListIngredientsSummaryMatchesItems(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addStack(t, svc, userID, "Uno", 1, "unit", 1)
	addStack(t, svc, userID, "Dos", 2, "unit", 10)

	res, err := svc.ListIngredients(ctx, userID)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Summary.TotalItems)
	assert.InDelta(t, 3, res.Summary.TotalQuantity, 1e-9)
	assert.Equal(t, 1, res.Summary.ExpiringSoonCount)
	assert.Equal(t, 0, res.Summary.ExpiredCount)
}

func TestUsersAreIsolated(t *testing.T) {
	svc, _, userID := newTestService(t)
	otherUser := uuid.New().String()
	ctx := context.Background()

	addedAt := addStack(t, svc, userID, "Tomate", 3, "unit", 5)

	_, err := svc.ConsumeIngredientStack(ctx, "Tomate", domain.ConsumeStackRequest{AddedAt: addedAt}, otherUser)
	assert.ErrorIs(t, err, domain.ErrStackNotFound)

	res, err := svc.ListIngredients(ctx, otherUser)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestSweepReportsChangedRecords(t *testing.T) {
	svc, repo, userID := newTestService(t)
	ctx := context.Background()

	addStack(t, svc, userID, "Fresco", 1, "unit", 10)

	// Force a stale advisory flag; the sweep must flip it back and count it.
	for _, stack := range repo.stacks {
		stack.IsExpired = true
	}

	res, err := svc.UpdateExpiredStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.UpdatedCount)

	res, err = svc.UpdateExpiredStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.UpdatedCount)
}

func TestConcurrentPartialConsumptionNeverOverdraws(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAt := addStack(t, svc, userID, "Pollo", 1.0, "kg", 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConsumeIngredientStack(ctx, "Pollo", domain.ConsumeStackRequest{AddedAt: addedAt, Quantity: floatPtr(0.7)}, userID)
		}(i)
	}
	wg.Wait()

	// At most one 0.7 consumption can win against a 1.0 stack; the loser must
	// observe the winner's effect and fail with insufficient quantity.
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
		}
	}
	assert.Equal(t, 1, winners)

	detail, err := svc.GetIngredientDetail(ctx, "Pollo", userID)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, detail.TotalQuantity, 1e-9)
}

func TestDeleteStackIsIdempotent(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	addedAtStr := addStack(t, svc, userID, "Tomate", 3, "unit", 5)
	addedAt, err := time.Parse(time.RFC3339Nano, addedAtStr)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteIngredientStack(ctx, "Tomate", addedAt, userID))
	assert.NoError(t, svc.DeleteIngredientStack(ctx, "Tomate", addedAt, userID))
}
