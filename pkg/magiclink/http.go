package magiclink

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/gateway/middleware"
	"github.com/clinicore/platform/pkg/patient"
	"github.com/gorilla/mux"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/questionnaire-links", h.handleIssue).Methods(http.MethodPost)
	router.HandleFunc("/questionnaire-links/{token}/redeem", h.handleRedeem).Methods(http.MethodPost)
}

type issueRequest struct {
	Identifier string `json:"identifier"`
}

func (h *HTTPHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	if _, ok := middleware.ActorFrom(r.Context()); !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	identifier, err := patient.ParseIdentifier(req.Identifier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	link, err := h.service.Issue(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to issue magic link")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(link)
}

func (h *HTTPHandler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	patientID, err := h.service.Redeem(r.Context(), vars["token"])
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			http.Error(w, "link invalid or expired", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to redeem magic link")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"patient_id": patientID.String()})
}
