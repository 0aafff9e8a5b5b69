package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/service"
)

// MealHandler handles HTTP requests for meal logs.
type MealHandler struct {
	service *service.MealService
}

// NewMealHandler creates a new MealHandler.
func NewMealHandler(svc *service.MealService) *MealHandler {
	return &MealHandler{service: svc}
}

// HandleCreate handles POST /meals requests.
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.MealCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /meals?date= and GET /meals?start=&end= requests.
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	meals, err := h.service.List(r.Context(), p, service.MealQuery{
		Date:  q.Get("date"),
		Start: q.Get("start"),
		End:   q.Get("end"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meals)
}

// HandleDelete handles DELETE /meals/{id} requests.
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeServiceError(w, r, service.ErrMealNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), p, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MealDeleteResponse{OK: true})
}
