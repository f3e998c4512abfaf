package handlers

import (
	"net/http"

	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/JinFuuMugen/coinshop/internal/workflow"
)

func Buy(w http.ResponseWriter, r *http.Request) {
	act(w, r, (*workflow.Controller).Buy)
}

func BackFromReview(w http.ResponseWriter, r *http.Request) {
	act(w, r, (*workflow.Controller).BackFromReview)
}

func GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	flow, ok := flowFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	methods, err := flow.PaymentMethods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, methods)
}

func SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req models.SelectMethodRequest
	if !decode(w, r, &req) {
		return
	}
	act(w, r, func(f *workflow.Controller) error { return f.SelectMethod(r.Context(), req.ID) })
}

func Pay(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(f *workflow.Controller) error { return f.Pay(r.Context()) })
}

func BackFromSuccess(w http.ResponseWriter, r *http.Request) {
	act(w, r, (*workflow.Controller).GoBack)
}
