package service

import (
	"context"
	"errors"
	"math"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/repository"
)

// MealQuery selects meals by exact date, or by an inclusive date range
// when Date is empty.
type MealQuery struct {
	Date  string
	Start string
	End   string
}

// MealService handles meal log business logic.
type MealService struct {
	repo MealStore
}

// NewMealService creates a new MealService.
func NewMealService(repo MealStore) *MealService {
	return &MealService{repo: repo}
}

// Create stores a meal log for the caller.
func (s *MealService) Create(ctx context.Context, p Principal, req model.MealCreateRequest) (model.MealResponse, error) {
	if !repository.ValidMealDate(req.MealDate) {
		return model.MealResponse{}, ErrInvalidMealDate
	}

	inputType := req.InputType
	if inputType == "" {
		inputType = model.InputTypeText
	}
	if inputType != model.InputTypeText && inputType != model.InputTypeImage {
		return model.MealResponse{}, ErrInvalidInputType
	}
	if !validNutrition(req.CaloriesKcal, req.ProteinG, req.Confidence) {
		return model.MealResponse{}, ErrInvalidNutrition
	}

	meal := &model.MealLog{
		UserID:       p.UserID,
		Email:        p.Email,
		MealDate:     req.MealDate,
		InputType:    inputType,
		InputText:    req.InputText,
		Description:  req.Description,
		CaloriesKcal: req.CaloriesKcal,
		ProteinG:     req.ProteinG,
		Confidence:   req.Confidence,
		Notes:        req.Notes,
		Warnings:     req.Warnings,
	}

	if err := s.repo.Create(ctx, meal); err != nil {
		if errors.Is(err, repository.ErrInvalidMealDate) {
			return model.MealResponse{}, ErrInvalidMealDate
		}
		return model.MealResponse{}, err
	}

	return mealToResponse(*meal), nil
}

// List returns the caller's meals matching q.
func (s *MealService) List(ctx context.Context, p Principal, q MealQuery) ([]model.MealResponse, error) {
	var (
		meals []model.MealLog
		err   error
	)

	switch {
	case q.Date != "":
		if !repository.ValidMealDate(q.Date) {
			return nil, ErrInvalidDateQuery
		}
		meals, err = s.repo.ListByDate(ctx, p.UserID, q.Date)
	case q.Start != "" && q.End != "":
		if !repository.ValidMealDate(q.Start) || !repository.ValidMealDate(q.End) {
			return nil, ErrInvalidDateQuery
		}
		// YYYY-MM-DD strings order the same as the dates they name.
		if q.Start > q.End {
			return nil, ErrInvalidDateRange
		}
		meals, err = s.repo.ListByRange(ctx, p.UserID, q.Start, q.End)
	default:
		return nil, ErrDateQueryRequired
	}
	if err != nil {
		return nil, err
	}

	return mealsToResponse(meals), nil
}

// Delete removes one of the caller's meals.
func (s *MealService) Delete(ctx context.Context, p Principal, id int64) error {
	ok, err := s.repo.Delete(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMealNotFound
	}
	return nil
}

func validNutrition(calories, protein, confidence float64) bool {
	for _, v := range []float64{calories, protein, confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return confidence <= 1
}

func mealToResponse(m model.MealLog) model.MealResponse {
	warnings := m.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return model.MealResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		Email:        m.Email,
		MealDate:     m.MealDate,
		InputType:    m.InputType,
		InputText:    m.InputText,
		Description:  m.Description,
		CaloriesKcal: m.CaloriesKcal,
		ProteinG:     m.ProteinG,
		Confidence:   m.Confidence,
		Notes:        m.Notes,
		Warnings:     warnings,
		CreatedAt:    m.CreatedAt,
	}
}

// mealsToResponse never returns nil so empty lists encode as [].
func mealsToResponse(meals []model.MealLog) []model.MealResponse {
	result := make([]model.MealResponse, 0, len(meals))
	for _, m := range meals {
		result = append(result, mealToResponse(m))
	}
	return result
}
