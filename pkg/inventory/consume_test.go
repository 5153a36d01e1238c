package inventory

import (
	"Larder-Backend/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestPlanConsumption(t *testing.T) {
	tests := []struct {
		name      string
		current   float64
		requested *float64
		wantErr   error
		want      consumePlan
	}{
		{
			name:      "nil request is full consumption",
			current:   3,
			requested: nil,
			want:      consumePlan{Action: ActionFull, Consumed: 3, Removed: true},
		},
		{
			name:      "partial leaves remainder",
			current:   3,
			requested: floatPtr(1.5),
			want:      consumePlan{Action: ActionPartial, Consumed: 1.5, Remaining: 1.5},
		},
		{
			name:      "exact request exhausts the stack",
			current:   1.5,
			requested: floatPtr(1.5),
			want:      consumePlan{Action: ActionFull, Consumed: 1.5, Removed: true},
		},
		{
			name:      "remainder within epsilon is promoted to full",
			current:   1.5,
			requested: floatPtr(1.5 - 5e-13),
			want:      consumePlan{Action: ActionFull, Consumed: 1.5 - 5e-13, Removed: true},
		},
		{
			name:      "zero request is invalid",
			current:   3,
			requested: floatPtr(0),
			wantErr:   domain.ErrInvalidQuantity,
		},
		{
			name:      "negative request is invalid",
			current:   3,
			requested: floatPtr(-2),
			wantErr:   domain.ErrInvalidQuantity,
		},
		{
			name:      "over-consumption is insufficient, not invalid",
			current:   3,
			requested: floatPtr(999),
			wantErr:   domain.ErrInsufficientQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planConsumption(tt.current, tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

func TestPlanConsumptionRepeatedPartialDrift(t *testing.T) {
	// Ten partial consumptions of 0.1 from 1.0 accumulate binary drift; the
	// epsilon check must still recognize the last one as exhaustion.
	current := 1.0
	for i := 0; i < 10; i++ {
		plan, err := planConsumption(current, floatPtr(0.1))
		require.NoError(t, err)
		if i < 9 {
			require.Equal(t, ActionPartial, plan.Action)
			current = plan.Remaining
		} else {
			assert.Equal(t, ActionFull, plan.Action)
			assert.True(t, plan.Removed)
		}
	}
}
