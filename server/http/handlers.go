package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/vcon-dev/vcon-mcp-sub005/internal/service/records"
	"github.com/vcon-dev/vcon-mcp-sub005/search"
	"github.com/vcon-dev/vcon-mcp-sub005/store"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

func (s *httpServer) handleCreateVcon(w http.ResponseWriter, r *http.Request) {
	var v vcon.Vcon
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	saved, err := s.records.Save(r.Context(), &v)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *httpServer) handleGetVcon(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]

	v, err := s.records.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

func (s *httpServer) handleDeleteVcon(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]

	if err := s.records.Delete(r.Context(), id); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *httpServer) handleFindVcons(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	found, err := s.records.Find(r.Context(), filter)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	if found == nil {
		found = []vcon.Vcon{}
	}

	writeJSON(w, http.StatusOK, found)
}

func (s *httpServer) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	var req search.KeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	results, err := s.query.Keyword(r.Context(), req)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, resultsBody(results))
}

func (s *httpServer) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req search.SemanticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	results, err := s.query.Semantic(r.Context(), req)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, resultsBody(results))
}

func (s *httpServer) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	var req search.HybridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	results, err := s.query.Hybrid(r.Context(), req)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, resultsBody(results))
}

func (s *httpServer) handleDiscoverTags(w http.ResponseWriter, r *http.Request) {
	keyFilter := r.URL.Query().Get("key")

	minCount := 0
	if raw := r.URL.Query().Get("min_count"); len(raw) > 0 {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		minCount = n
	}

	keys, err := s.query.DiscoverTags(r.Context(), keyFilter, minCount)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *httpServer) handleLookupTags(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tags map[string]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	uuids, err := s.query.LookupTags(r.Context(), body.Tags)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	if uuids == nil {
		uuids = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"uuids": uuids})
}

func (s *httpServer) handleRefreshTags(w http.ResponseWriter, r *http.Request) {
	if err := s.query.RefreshTags(r.Context()); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func filterFrom(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()

	filter := store.Filter{
		Subject: q.Get("subject"),
		Party:   q.Get("party"),
	}

	if raw := q.Get("after"); len(raw) > 0 {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.After = &t
	}

	if raw := q.Get("before"); len(raw) > 0 {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Before = &t
	}

	if raw := q.Get("limit"); len(raw) > 0 {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Limit = n
	}

	if raw := q.Get("offset"); len(raw) > 0 {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Offset = n
	}

	return filter, nil
}

func resultsBody(results []search.Result) map[string]any {
	if results == nil {
		results = []search.Result{}
	}
	return map[string]any{"results": results}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidRequest), errors.Is(err, records.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
