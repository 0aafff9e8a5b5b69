package service

import (
	"context"
	"errors"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/nutrition"
	"github.com/mealscan/mealscan-go/internal/oauth"
)

// Errors returned to the HTTP layer. Handlers map them to status codes.
var (
	ErrDevLoginDisabled  = errors.New("dev login is disabled")
	ErrNotConfigured     = errors.New("integration is not configured")
	ErrMissingCode       = errors.New("authorization code is required")
	ErrBadUpstream       = errors.New("identity provider returned an unusable response")
	ErrUpstream          = errors.New("nutrition estimation failed")
	ErrTextRequired      = errors.New("text is required")
	ErrImageRequired     = errors.New("image is required")
	ErrInvalidMealDate   = errors.New("meal_date must match YYYY-MM-DD")
	ErrInvalidInputType  = errors.New("input_type must be text or image")
	ErrInvalidNutrition  = errors.New("calories_kcal and protein_g must be non-negative and confidence between 0 and 1")
	ErrDateQueryRequired = errors.New("provide either date or start and end")
	ErrInvalidDateQuery  = errors.New("date, start and end must match YYYY-MM-DD")
	ErrInvalidDateRange  = errors.New("start must not be after end")
	ErrMealNotFound      = errors.New("not found")
)

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByProvider(ctx context.Context, provider, providerUserID string) (*model.User, error)
}

// MealStore persists meal logs. Every operation is scoped to one user.
type MealStore interface {
	Create(ctx context.Context, meal *model.MealLog) error
	ListByDate(ctx context.Context, userID, date string) ([]model.MealLog, error)
	ListByRange(ctx context.Context, userID, start, end string) ([]model.MealLog, error)
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// IdentityProvider runs an OAuth authorization-code flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (oauth.Profile, error)
}

// Estimator produces nutrition estimates.
type Estimator interface {
	EstimateText(ctx context.Context, text string) (nutrition.Estimate, error)
	EstimateImage(ctx context.Context, data []byte, contentType string) (nutrition.Estimate, error)
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}
