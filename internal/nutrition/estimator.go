package nutrition

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var ErrEmptyInput = errors.New("nothing to analyze")

// SystemPrompt is sent with every estimation request.
const SystemPrompt = `You are a nutrition assistant. Estimate the nutrition of the meal the user describes or shows.
Reply with one JSON object only, without prose or code fences, containing exactly these keys:
{"description": "short summary of the meal", "calories_kcal": number, "protein_g": number, "confidence": number between 0.0 and 1.0, "notes": "assumptions and uncertainty"}`

const (
	imagePrompt = "Estimate the nutrition of the food in this image."
	temperature = 0.2
	maxTokens   = 500
)

// Estimator asks an inference API for a nutrition estimate.
type Estimator struct {
	client      Client
	textModel   string
	visionModel string
}

// NewEstimator creates an Estimator. visionModel falls back to textModel.
func NewEstimator(client Client, textModel, visionModel string) *Estimator {
	if visionModel == "" {
		visionModel = textModel
	}
	return &Estimator{client: client, textModel: textModel, visionModel: visionModel}
}

// EstimateText estimates a meal described in words.
func (e *Estimator) EstimateText(ctx context.Context, text string) (Estimate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Estimate{}, ErrEmptyInput
	}

	return e.estimate(ctx, ChatRequest{
		Model: e.textModel,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: "Meal: " + text},
		},
	})
}

// EstimateImage estimates the meal shown in an image. contentType may be
// empty, in which case it is sniffed from data.
func (e *Estimator) EstimateImage(ctx context.Context, data []byte, contentType string) (Estimate, error) {
	if len(data) == 0 {
		return Estimate{}, ErrEmptyInput
	}

	return e.estimate(ctx, ChatRequest{
		Model: e.visionModel,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: []ContentPart{
				{Type: "text", Text: imagePrompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: DataURL(data, contentType)}},
			}},
		},
	})
}

func (e *Estimator) estimate(ctx context.Context, req ChatRequest) (Estimate, error) {
	req.Temperature = temperature
	req.MaxTokens = maxTokens

	reply, err := e.client.Complete(ctx, req)
	if err != nil {
		return Estimate{}, err
	}

	est := ParseReply(reply)
	if est.Description == fallbackDescription {
		slog.Warn("inference reply had no json object", "model", req.Model, "reply_len", len(reply))
	}
	return est, nil
}

// DataURL encodes data as an inline base64 image reference.
func DataURL(data []byte, contentType string) string {
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		ct = "image/jpeg"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
}
