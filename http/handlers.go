package http

import (
	"encoding/json"
	"net/http"

	"flightdelay/ml"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status string `json:"status"`
}

type predictionResponse struct {
	Predict []int `json:"predict"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type handlers struct {
	provider *ml.Provider
	logger   *zap.Logger
}

// RegisterHandlers adds the health and prediction routes to mux.
func RegisterHandlers(mux *http.ServeMux, provider *ml.Provider, logger *zap.Logger) {
	h := &handlers{provider: provider, logger: logger}
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /predict", h.handlePredict)
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK"})
}

// handlePredict validates the payload, encodes every flight and answers one
// label per flight in request order.
func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	payload, status, details := decodePredictionPayload(r)
	if details != nil {
		writeJSON(w, status, validationResponse{Detail: details})
		return
	}

	predictor, err := h.provider.Predictor()
	if err != nil {
		h.logger.Error("model unavailable",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "model unavailable"})
		return
	}

	features := ml.Encode(payload.records())
	writeJSON(w, http.StatusOK, predictionResponse{Predict: predictor.Predict(features)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
