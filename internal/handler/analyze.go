package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/service"
)

const maxImageBytes = 10 << 20 // 10MB

// imageFields are the multipart field names accepted for an upload, in order.
var imageFields = []string{"image", "file"}

// AnalyzeHandler handles nutrition estimation requests.
type AnalyzeHandler struct {
	service *service.AnalyzeService
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(svc *service.AnalyzeService) *AnalyzeHandler {
	return &AnalyzeHandler{service: svc}
}

// HandleText handles POST /analyze/text requests.
func (h *AnalyzeHandler) HandleText(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.AnalyzeTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.AnalyzeText(r.Context(), p, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleImage handles POST /analyze/image multipart uploads.
func (h *AnalyzeHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	// Multipart framing needs a little room beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+64<<10)
	defer r.Body.Close()

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("image too large"))
			return
		}
		writeServiceError(w, r, service.ErrImageRequired)
		return
	}
	defer r.MultipartForm.RemoveAll()

	data, contentType, err := readImage(r.MultipartForm)
	if err != nil {
		if errors.Is(err, errImageTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("image too large"))
			return
		}
		writeServiceError(w, r, err)
		return
	}

	resp, err := h.service.AnalyzeImage(r.Context(), p, data, contentType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

var errImageTooLarge = errors.New("image too large")

func readImage(form *multipart.Form) ([]byte, string, error) {
	var header *multipart.FileHeader
	for _, field := range imageFields {
		if files := form.File[field]; len(files) > 0 {
			header = files[0]
			break
		}
	}
	if header == nil {
		return nil, "", service.ErrImageRequired
	}
	if header.Size > maxImageBytes {
		return nil, "", errImageTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageBytes {
		return nil, "", errImageTooLarge
	}
	if len(data) == 0 {
		return nil, "", service.ErrImageRequired
	}

	return data, header.Header.Get("Content-Type"), nil
}
