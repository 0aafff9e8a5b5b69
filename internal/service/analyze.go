package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/nutrition"
)

// AnalyzeService estimates meals and records each estimate as a meal log
// dated today in UTC.
type AnalyzeService struct {
	estimator Estimator
	meals     MealStore
	now       func() time.Time
}

// NewAnalyzeService creates a new AnalyzeService.
func NewAnalyzeService(estimator Estimator, meals MealStore) *AnalyzeService {
	return &AnalyzeService{
		estimator: estimator,
		meals:     meals,
		now:       time.Now,
	}
}

// AnalyzeText estimates a meal described in words.
func (s *AnalyzeService) AnalyzeText(ctx context.Context, p Principal, text string) (model.AnalyzeResponse, error) {
	est, err := s.estimator.EstimateText(ctx, text)
	if err != nil {
		if errors.Is(err, nutrition.ErrEmptyInput) {
			return model.AnalyzeResponse{}, ErrTextRequired
		}
		return model.AnalyzeResponse{}, s.upstreamError(err)
	}

	return s.record(ctx, p, model.InputTypeText, text, est)
}

// AnalyzeImage estimates the meal shown in an uploaded image.
func (s *AnalyzeService) AnalyzeImage(ctx context.Context, p Principal, data []byte, contentType string) (model.AnalyzeResponse, error) {
	est, err := s.estimator.EstimateImage(ctx, data, contentType)
	if err != nil {
		if errors.Is(err, nutrition.ErrEmptyInput) {
			return model.AnalyzeResponse{}, ErrImageRequired
		}
		return model.AnalyzeResponse{}, s.upstreamError(err)
	}

	return s.record(ctx, p, model.InputTypeImage, "", est)
}

func (s *AnalyzeService) record(ctx context.Context, p Principal, inputType, inputText string, est nutrition.Estimate) (model.AnalyzeResponse, error) {
	meal := &model.MealLog{
		UserID:       p.UserID,
		Email:        p.Email,
		MealDate:     s.now().UTC().Format(time.DateOnly),
		InputType:    inputType,
		InputText:    inputText,
		Description:  est.Description,
		CaloriesKcal: est.CaloriesKcal,
		ProteinG:     est.ProteinG,
		Confidence:   est.Confidence,
		Notes:        est.Notes,
		Warnings:     est.Warnings,
	}
	if err := s.meals.Create(ctx, meal); err != nil {
		return model.AnalyzeResponse{}, fmt.Errorf("recording estimate: %w", err)
	}

	return estimateToResponse(est), nil
}

func (s *AnalyzeService) upstreamError(err error) error {
	switch {
	case errors.Is(err, nutrition.ErrNoAPIKey):
		slog.Error("nutrition estimator is not configured", "error", err)
		return ErrNotConfigured
	case errors.Is(err, nutrition.ErrUpstream):
		slog.Warn("nutrition estimation failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	default:
		return err
	}
}

func estimateToResponse(est nutrition.Estimate) model.AnalyzeResponse {
	warnings := est.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return model.AnalyzeResponse{
		Description:  est.Description,
		CaloriesKcal: est.CaloriesKcal,
		ProteinG:     est.ProteinG,
		Confidence:   est.Confidence,
		Notes:        est.Notes,
		Warnings:     warnings,
	}
}
