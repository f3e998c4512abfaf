package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JinFuuMugen/coinshop/internal/catalog"
	"github.com/JinFuuMugen/coinshop/internal/keypad"
	"github.com/JinFuuMugen/coinshop/internal/logger"
	"github.com/JinFuuMugen/coinshop/internal/payment"
	"github.com/JinFuuMugen/coinshop/internal/session"
	"github.com/JinFuuMugen/coinshop/internal/workflow"
)

// statusFor maps flow errors onto response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrAccountRequired),
		errors.Is(err, workflow.ErrNoPackSelected),
		errors.Is(err, workflow.ErrNoPaymentMethod),
		errors.Is(err, payment.ErrChargeInFlight),
		errors.Is(err, payment.ErrAlreadyCharged):
		return http.StatusConflict
	case errors.Is(err, keypad.ErrUnknownKey),
		errors.Is(err, keypad.ErrZeroAmount),
		errors.Is(err, catalog.ErrUnknownPack),
		errors.Is(err, payment.ErrUnknownMethod):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrClosed),
		errors.Is(err, session.ErrNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("cannot encode response: %v", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// act runs one flow operation and answers with the resulting view.
func act(w http.ResponseWriter, r *http.Request, op func(*workflow.Controller) error) {
	flow, ok := flowFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := op(flow); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, flow.View())
}
