package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/mealscan/mealscan-go/internal/model"
)

var ErrInvalidMealDate = errors.New("meal_date must match YYYY-MM-DD")

var mealDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidMealDate reports whether s has the YYYY-MM-DD shape used for storage
// and range comparison.
func ValidMealDate(s string) bool {
	return mealDatePattern.MatchString(s)
}

// MealRepository handles meal log persistence operations.
type MealRepository struct {
	db *DB
}

// NewMealRepository creates a new MealRepository.
func NewMealRepository(db *DB) *MealRepository {
	return &MealRepository{db: db}
}

const mealColumns = `id, user_id, email, meal_date, input_type, input_text, description,
	calories_kcal, protein_g, confidence, notes, warnings, created_at`

// Create validates and inserts meal, filling in its ID and CreatedAt.
func (r *MealRepository) Create(ctx context.Context, meal *model.MealLog) error {
	if !ValidMealDate(meal.MealDate) {
		return ErrInvalidMealDate
	}

	warnings, err := encodeWarnings(meal.Warnings)
	if err != nil {
		return err
	}
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = now()
	}

	query := `INSERT INTO meal_logs (user_id, email, meal_date, input_type, input_text, description,
		calories_kcal, protein_g, confidence, notes, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		meal.UserID, meal.Email, meal.MealDate, meal.InputType, meal.InputText, meal.Description,
		meal.CaloriesKcal, meal.ProteinG, meal.Confidence, meal.Notes, warnings, meal.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	meal.ID = id
	if meal.Warnings == nil {
		meal.Warnings = []string{}
	}
	return nil
}

// ListByDate returns the user's meals for one date, newest first.
func (r *MealRepository) ListByDate(ctx context.Context, userID, date string) ([]model.MealLog, error) {
	query := `SELECT ` + mealColumns + ` FROM meal_logs
		WHERE user_id = ? AND meal_date = ?
		ORDER BY created_at DESC, id DESC`

	return r.query(ctx, query, userID, date)
}

// ListByRange returns the user's meals with start <= meal_date <= end,
// ordered by date ascending and newest first within a date.
func (r *MealRepository) ListByRange(ctx context.Context, userID, start, end string) ([]model.MealLog, error) {
	query := `SELECT ` + mealColumns + ` FROM meal_logs
		WHERE user_id = ? AND meal_date >= ? AND meal_date <= ?
		ORDER BY meal_date ASC, created_at DESC, id DESC`

	return r.query(ctx, query, userID, start, end)
}

// Delete removes the meal only when it belongs to userID. It reports
// whether a row was removed.
func (r *MealRepository) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meal_logs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *MealRepository) query(ctx context.Context, query string, args ...any) ([]model.MealLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []model.MealLog{}
	for rows.Next() {
		var (
			m        model.MealLog
			warnings sql.NullString
		)
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Email, &m.MealDate, &m.InputType, &m.InputText, &m.Description,
			&m.CaloriesKcal, &m.ProteinG, &m.Confidence, &m.Notes, &warnings, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		m.Warnings = decodeWarnings(warnings.String)
		meals = append(meals, m)
	}

	return meals, rows.Err()
}

func encodeWarnings(warnings []string) (string, error) {
	if len(warnings) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(warnings)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeWarnings never fails; unreadable text yields an empty list.
func decodeWarnings(s string) []string {
	var warnings []string
	if s == "" || json.Unmarshal([]byte(s), &warnings) != nil || warnings == nil {
		return []string{}
	}
	return warnings
}
