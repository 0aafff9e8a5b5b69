package service

import (
	"context"
	"sort"
	"sync"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/nutrition"
	"github.com/mealscan/mealscan-go/internal/oauth"
	"github.com/mealscan/mealscan-go/internal/repository"
)

type memUsers struct {
	mu        sync.Mutex
	byID      map[string]model.User
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]model.User)}
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byID[user.ID]; ok {
		return repository.ErrDuplicateUser
	}
	for _, u := range m.byID {
		if u.Provider == user.Provider && u.ProviderUserID == user.ProviderUserID {
			return repository.ErrDuplicateUser
		}
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByProvider(_ context.Context, provider, providerUserID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if u.Provider == provider && u.ProviderUserID == providerUserID {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type memMeals struct {
	mu     sync.Mutex
	nextID int64
	meals  []model.MealLog
}

func (m *memMeals) Create(_ context.Context, meal *model.MealLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !repository.ValidMealDate(meal.MealDate) {
		return repository.ErrInvalidMealDate
	}
	m.nextID++
	meal.ID = m.nextID
	m.meals = append(m.meals, *meal)
	return nil
}

func (m *memMeals) ListByDate(_ context.Context, userID, date string) ([]model.MealLog, error) {
	return m.filter(func(x model.MealLog) bool { return x.UserID == userID && x.MealDate == date }), nil
}

func (m *memMeals) ListByRange(_ context.Context, userID, start, end string) ([]model.MealLog, error) {
	out := m.filter(func(x model.MealLog) bool {
		return x.UserID == userID && x.MealDate >= start && x.MealDate <= end
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].MealDate < out[j].MealDate })
	return out, nil
}

func (m *memMeals) Delete(_ context.Context, userID string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, x := range m.meals {
		if x.ID == id && x.UserID == userID {
			m.meals = append(m.meals[:i], m.meals[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memMeals) filter(keep func(model.MealLog) bool) []model.MealLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.MealLog
	for i := len(m.meals) - 1; i >= 0; i-- {
		if keep(m.meals[i]) {
			out = append(out, m.meals[i])
		}
	}
	return out
}

type fakeProvider struct {
	authCodeURL func(state string) string
	exchange    func(ctx context.Context, code string) (oauth.Profile, error)
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return f.authCodeURL(state)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (oauth.Profile, error) {
	return f.exchange(ctx, code)
}

type fakeEstimator struct {
	text  func(ctx context.Context, text string) (nutrition.Estimate, error)
	image func(ctx context.Context, data []byte, contentType string) (nutrition.Estimate, error)
}

func (f *fakeEstimator) EstimateText(ctx context.Context, text string) (nutrition.Estimate, error) {
	return f.text(ctx, text)
}

func (f *fakeEstimator) EstimateImage(ctx context.Context, data []byte, contentType string) (nutrition.Estimate, error) {
	return f.image(ctx, data, contentType)
}
