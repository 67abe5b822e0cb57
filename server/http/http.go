package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vcon-dev/vcon-mcp-sub005/internal/service/query"
	"github.com/vcon-dev/vcon-mcp-sub005/internal/service/records"
	"github.com/vcon-dev/vcon-mcp-sub005/server"
)

type httpServer struct {
	options server.Options
	records *records.Service
	query   *query.Service
}

func (s *httpServer) Run(ctx context.Context) error {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/vcons", s.handleCreateVcon).Methods(http.MethodPost)
	api.HandleFunc("/vcons", s.handleFindVcons).Methods(http.MethodGet)
	api.HandleFunc("/vcons/{uuid}", s.handleGetVcon).Methods(http.MethodGet)
	api.HandleFunc("/vcons/{uuid}", s.handleDeleteVcon).Methods(http.MethodDelete)

	api.HandleFunc("/search/keyword", s.handleKeywordSearch).Methods(http.MethodPost)
	api.HandleFunc("/search/semantic", s.handleSemanticSearch).Methods(http.MethodPost)
	api.HandleFunc("/search/hybrid", s.handleHybridSearch).Methods(http.MethodPost)

	api.HandleFunc("/tags", s.handleDiscoverTags).Methods(http.MethodGet)
	api.HandleFunc("/tags/lookup", s.handleLookupTags).Methods(http.MethodPost)
	api.HandleFunc("/tags/refresh", s.handleRefreshTags).Methods(http.MethodPost)

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	var handler http.Handler = router
	if ms, ok := MiddlewareFrom(s.options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	srv := &http.Server{
		Addr:              s.options.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.InfoContext(ctx, "http server listening", "address", s.options.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func NewServer(
	recs *records.Service,
	qry *query.Service,
	opts ...server.Option,
) server.Server {
	options := server.NewOptions(opts...)

	return &httpServer{
		options: options,
		records: recs,
		query:   qry,
	}
}
