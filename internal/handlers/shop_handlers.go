package handlers

import (
	"net/http"

	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/JinFuuMugen/coinshop/internal/workflow"
)

func GetCatalog(w http.ResponseWriter, r *http.Request) {
	flow, ok := flowFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, flow.Catalog().Listing())
}

func GetState(w http.ResponseWriter, r *http.Request) {
	act(w, r, func(*workflow.Controller) error { return nil })
}

func SearchAccount(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decode(w, r, &req) {
		return
	}
	act(w, r, func(f *workflow.Controller) error { return f.EditSearch(req.Text) })
}

func SubmitAccount(w http.ResponseWriter, r *http.Request) {
	act(w, r, (*workflow.Controller).SubmitSearch)
}

func SelectPack(w http.ResponseWriter, r *http.Request) {
	var req models.SelectPackRequest
	if !decode(w, r, &req) {
		return
	}
	act(w, r, func(f *workflow.Controller) error { return f.SelectPack(req.Index) })
}

func PressKey(w http.ResponseWriter, r *http.Request) {
	var req models.KeyRequest
	if !decode(w, r, &req) {
		return
	}
	act(w, r, func(f *workflow.Controller) error { return f.PressKey(req.Key) })
}

func CommitCustom(w http.ResponseWriter, r *http.Request) {
	act(w, r, (*workflow.Controller).CommitCustom)
}

func CloseCustom(w http.ResponseWriter, r *http.Request) {
	act(w, r, (*workflow.Controller).CloseCustom)
}
