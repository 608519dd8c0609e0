package patient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/common/models"
	"github.com/clinicore/platform/pkg/gateway/middleware"
	"github.com/gorilla/mux"
)

type HTTPHandler struct {
	coordinator *Coordinator
	resolver    *Resolver
	reader      *Reader
	validator   *Validator
	maxBody     int64
}

func NewHTTPHandler(coordinator *Coordinator, resolver *Resolver, reader *Reader, validator *Validator, maxBody int64) *HTTPHandler {
	return &HTTPHandler{
		coordinator: coordinator,
		resolver:    resolver,
		reader:      reader,
		validator:   validator,
		maxBody:     maxBody,
	}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/patients", h.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/patients", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/patients/{id}", h.handleGet).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var input models.NewPatientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Log.WithError(err).Warn("invalid patient payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.ValidateNew(input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.coordinator.Create(r.Context(), actor, input)
	if err != nil {
		// Full diagnostic detail stays in the log; the wire gets a generic
		// message so store topology never leaks to callers.
		var upstream *UpstreamWriteError
		var dual *DualWriteError
		switch {
		case errors.As(err, &upstream):
			logger.Log.WithError(err).Error("patient create failed in legacy store")
		case errors.As(err, &dual):
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"legacy_id":   dual.LegacyID,
				"compensated": dual.CompensationSucceeded,
			}).Error("patient create failed in primary store")
		default:
			logger.Log.WithError(err).Error("patient create failed")
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	identifier, err := ParseIdentifier(vars["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	found, err := h.resolver.Resolve(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to resolve patient")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, found)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := models.ListQuery{
		Source:   r.URL.Query().Get("source"),
		Search:   r.URL.Query().Get("search"),
		Sort:     r.URL.Query().Get("sort"),
		Order:    r.URL.Query().Get("order"),
		Page:     intQuery(r, "page"),
		PageSize: intQuery(r, "page_size"),
	}

	page, err := h.reader.List(r.Context(), query)
	if err != nil {
		if IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.WithError(err).Error("failed to list patients")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func intQuery(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
