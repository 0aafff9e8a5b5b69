package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/mealscan/mealscan-go/internal/service"
)

const (
	toolEstimateNutrition = "estimate_nutrition"
	toolListMeals         = "list_meals"
)

type estimateNutritionParams struct {
	Text string `json:"text"`
}

type listMealsParams struct {
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type toolFunc func(ctx context.Context, p service.Principal, req *protocol.CallToolRequest) (any, error)

// MCPHandler exposes the analyze and meal services as MCP tools over a
// single call endpoint.
type MCPHandler struct {
	tools map[string]toolFunc
}

// NewMCPHandler creates a new MCPHandler.
func NewMCPHandler(analyze *service.AnalyzeService, meals *service.MealService) *MCPHandler {
	return &MCPHandler{
		tools: map[string]toolFunc{
			toolEstimateNutrition: func(ctx context.Context, p service.Principal, req *protocol.CallToolRequest) (any, error) {
				var params estimateNutritionParams
				if err := extractParams(req, &params); err != nil {
					return nil, err
				}
				return analyze.AnalyzeText(ctx, p, params.Text)
			},
			toolListMeals: func(ctx context.Context, p service.Principal, req *protocol.CallToolRequest) (any, error) {
				var params listMealsParams
				if err := extractParams(req, &params); err != nil {
					return nil, err
				}
				return meals.List(ctx, p, service.MealQuery{
					Date:  params.Date,
					Start: params.StartDate,
					End:   params.EndDate,
				})
			},
		},
	}
}

// HandleCall handles POST /mcp/tools/call requests.
func (h *MCPHandler) HandleCall(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req protocol.CallToolRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tool, ok := h.tools[req.Name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse(fmt.Sprintf("unknown tool: %s", req.Name)))
		return
	}

	data, err := tool(r.Context(), p, &req)
	if err != nil {
		if isParamsError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		writeServiceError(w, r, err)
		return
	}

	result, err := textResult(data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type paramsError struct{ err error }

func (e paramsError) Error() string { return "invalid parameters: " + e.err.Error() }
func (e paramsError) Unwrap() error { return e.err }

func isParamsError(err error) bool {
	_, ok := err.(paramsError)
	return ok
}

// extractParams round-trips the argument map through JSON into target.
func extractParams(req *protocol.CallToolRequest, target any) error {
	raw, err := json.Marshal(req.Arguments)
	if err != nil {
		return paramsError{err}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return paramsError{err}
	}
	return nil
}

func textResult(data any) (*protocol.CallToolResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(raw),
			},
		},
	}, nil
}
