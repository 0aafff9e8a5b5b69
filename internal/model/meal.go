package model

import "time"

const (
	InputTypeText  = "text"
	InputTypeImage = "image"
)

// MealLog represents a persisted nutrition estimate.
type MealLog struct {
	ID           int64
	UserID       string
	Email        string
	MealDate     string
	InputType    string
	InputText    string
	Description  string
	CaloriesKcal float64
	ProteinG     float64
	Confidence   float64
	Notes        string
	Warnings     []string
	CreatedAt    time.Time
}

// MealCreateRequest represents a direct meal log insert.
type MealCreateRequest struct {
	MealDate     string   `json:"meal_date"`
	InputType    string   `json:"input_type"`
	InputText    string   `json:"input_text"`
	Description  string   `json:"description"`
	CaloriesKcal float64  `json:"calories_kcal"`
	ProteinG     float64  `json:"protein_g"`
	Confidence   float64  `json:"confidence"`
	Notes        string   `json:"notes"`
	Warnings     []string `json:"warnings"`
}

// MealResponse is the API shape of a MealLog.
type MealResponse struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	MealDate     string    `json:"meal_date"`
	InputType    string    `json:"input_type"`
	InputText    string    `json:"input_text"`
	Description  string    `json:"description"`
	CaloriesKcal float64   `json:"calories_kcal"`
	ProteinG     float64   `json:"protein_g"`
	Confidence   float64   `json:"confidence"`
	Notes        string    `json:"notes"`
	Warnings     []string  `json:"warnings"`
	CreatedAt    time.Time `json:"created_at"`
}

// MealDeleteResponse acknowledges a delete.
type MealDeleteResponse struct {
	OK bool `json:"ok"`
}

// AnalyzeTextRequest represents a text analysis request.
type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

// AnalyzeResponse is the estimate returned by the analyze endpoints.
type AnalyzeResponse struct {
	Description  string   `json:"description"`
	CaloriesKcal float64  `json:"calories_kcal"`
	ProteinG     float64  `json:"protein_g"`
	Confidence   float64  `json:"confidence"`
	Notes        string   `json:"notes"`
	Warnings     []string `json:"warnings"`
}
