package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/nutrition"
)

func fixedClock(s string) func() time.Time {
	return func() time.Time {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			panic(err)
		}
		return t
	}
}

func TestAnalyzeText_RecordsTodayUTC(t *testing.T) {
	store := &memMeals{}
	est := &fakeEstimator{
		text: func(_ context.Context, text string) (nutrition.Estimate, error) {
			assert.Equal(t, "rice and chicken", text)
			return nutrition.Estimate{
				Description:  "Rice with chicken",
				CaloriesKcal: 650,
				ProteinG:     40,
				Confidence:   0.7,
				Notes:        "typical portion",
				Warnings:     []string{},
			}, nil
		},
	}
	svc := NewAnalyzeService(est, store)
	// 23:30 at UTC-5 is already the next day in UTC.
	svc.now = fixedClock("2024-05-01T23:30:00-05:00")

	got, err := svc.AnalyzeText(context.Background(), alice, "rice and chicken")
	require.NoError(t, err)
	assert.Equal(t, "Rice with chicken", got.Description)
	assert.InDelta(t, 650, got.CaloriesKcal, 0.001)
	assert.Equal(t, []string{}, got.Warnings)

	require.Len(t, store.meals, 1)
	meal := store.meals[0]
	assert.Equal(t, "2024-05-02", meal.MealDate)
	assert.Equal(t, model.InputTypeText, meal.InputType)
	assert.Equal(t, "rice and chicken", meal.InputText)
	assert.Equal(t, "alice", meal.UserID)
	assert.Equal(t, "alice@example.com", meal.Email)
}

func TestAnalyzeImage_RecordsImageMeal(t *testing.T) {
	store := &memMeals{}
	est := &fakeEstimator{
		image: func(_ context.Context, data []byte, contentType string) (nutrition.Estimate, error) {
			assert.Equal(t, []byte("jpeg-bytes"), data)
			assert.Equal(t, "image/jpeg", contentType)
			return nutrition.Estimate{
				Description: "Unknown",
				Confidence:  0.1,
				Warnings:    []string{nutrition.WarningConfidenceLow, nutrition.WarningNutritionUnknown},
			}, nil
		},
	}
	svc := NewAnalyzeService(est, store)
	svc.now = fixedClock("2024-05-01T12:00:00Z")

	got, err := svc.AnalyzeImage(context.Background(), alice, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, []string{"confidence_low", "nutrition_unknown"}, got.Warnings)

	require.Len(t, store.meals, 1)
	assert.Equal(t, model.InputTypeImage, store.meals[0].InputType)
	assert.Empty(t, store.meals[0].InputText)
	assert.Equal(t, "2024-05-01", store.meals[0].MealDate)
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"empty input", nutrition.ErrEmptyInput, ErrTextRequired},
		{"no api key", nutrition.ErrNoAPIKey, ErrNotConfigured},
		{"upstream", fmt.Errorf("%w: status 500", nutrition.ErrUpstream), ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memMeals{}
			est := &fakeEstimator{
				text: func(context.Context, string) (nutrition.Estimate, error) {
					return nutrition.Estimate{}, tt.err
				},
			}
			svc := NewAnalyzeService(est, store)

			_, err := svc.AnalyzeText(context.Background(), alice, "x")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.meals, "failed estimates must not be recorded")
		})
	}
}

func TestAnalyzeImage_EmptyInput(t *testing.T) {
	est := &fakeEstimator{
		image: func(context.Context, []byte, string) (nutrition.Estimate, error) {
			return nutrition.Estimate{}, nutrition.ErrEmptyInput
		},
	}
	svc := NewAnalyzeService(est, &memMeals{})

	_, err := svc.AnalyzeImage(context.Background(), alice, nil, "")
	assert.ErrorIs(t, err, ErrImageRequired)
}

func TestAnalyze_UnknownErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	est := &fakeEstimator{
		text: func(context.Context, string) (nutrition.Estimate, error) {
			return nutrition.Estimate{}, boom
		},
	}
	svc := NewAnalyzeService(est, &memMeals{})

	_, err := svc.AnalyzeText(context.Background(), alice, "x")
	assert.ErrorIs(t, err, boom)
}
