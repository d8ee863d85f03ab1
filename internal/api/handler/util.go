package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nhasan-dev/wallet-ledger/internal/api/middleware"
	"github.com/nhasan-dev/wallet-ledger/internal/api/problem"
	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError translates a service error into an RFC 7807 response using
// the error's classification.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status, slug := http.StatusInternalServerError, "internal-error"
	detail := "unexpected server error"
	switch domain.KindOf(err) {
	case domain.KindAuthorization:
		status, slug, detail = http.StatusForbidden, "authorization", err.Error()
	case domain.KindNotFound:
		status, slug, detail = http.StatusNotFound, "not-found", err.Error()
	case domain.KindStateConflict:
		status, slug, detail = http.StatusConflict, "state-conflict", err.Error()
	case domain.KindInsufficient:
		status, slug, detail = http.StatusBadRequest, "insufficient-funds", err.Error()
	case domain.KindValidation:
		status, slug, detail = http.StatusBadRequest, "validation", err.Error()
	}
	problem.Write(w, r, status, problem.Type(slug), "", detail)
}

// RespondValidation rejects a malformed payload before any service runs.
func RespondValidation(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(w, r, http.StatusBadRequest, problem.Type("validation"), "", detail)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		RespondValidation(w, r, "invalid request body")
		return false
	}
	return true
}

func requestActor(r *http.Request) (uuid.UUID, bool) {
	id := middleware.UserIDFromContext(r.Context())
	return id, id != uuid.Nil
}

// listParams translates the query-string read contract into repository terms.
func listParams(r *http.Request) repository.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	sortBy := q.Get("sort")
	desc := false
	if strings.HasPrefix(sortBy, "-") {
		sortBy, desc = sortBy[1:], true
	}
	return repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
		SortDesc: desc,
		Search:   q.Get("search"),
	}.Normalize()
}

// page is the standard list response shape.
type page struct {
	Data     any `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func pageOf(data any, total int, params repository.ListParams) page {
	return page{Data: data, Total: total, Page: params.Page, PageSize: params.PageSize}
}
