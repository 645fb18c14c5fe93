package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

// MaxCreateBodyBytes caps the create request body.
const MaxCreateBodyBytes = 16 << 10

type HTTPHandler struct {
	service ports.LinkService
	log     *zap.Logger
	baseURL string
}

func NewHTTPHandler(service ports.LinkService, log *zap.Logger, baseURL string) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{service: service, log: log, baseURL: strings.TrimRight(baseURL, "/")}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	TargetURL string `json:"target_url"`
	Code      string `json:"code,omitempty"`
}

// LinkResponse is a link as served over HTTP.
type LinkResponse struct {
	*domain.Link
	ShortURL string `json:"short_url,omitempty"`
}

func (h *HTTPHandler) present(link *domain.Link) LinkResponse {
	resp := LinkResponse{Link: link}
	if h.baseURL != "" {
		resp.ShortURL = h.baseURL + "/" + link.Code
	}
	return resp
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxCreateBodyBytes)

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	link, err := h.service.Create(r.Context(), req.TargetURL, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.present(link))
}

// Redirect to the target URL, counting the hit
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.Resolve(r.Context(), r.PathValue("code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)
}

// Get Link
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Get(r.Context(), r.PathValue("code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.present(link))
}

// List Links
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := make([]LinkResponse, len(links))
	for i := range links {
		data[i] = h.present(&links[i])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"total": len(links),
	})
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := h.service.Delete(r.Context(), code); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "link deleted",
		"code":    code,
	})
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		if !errors.Is(err, domain.ErrExhaustedCodeSpace) {
			msg = "internal server error"
		}
	}
	writeError(w, status, msg)
}

// StatusFor maps a registry error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidTarget), errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrInvalidCounters):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCodeConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
