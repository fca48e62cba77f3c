package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/internal/store"
)

var servePort int

// resolver is the pipeline surface the HTTP handlers need.
type resolver interface {
	Resolve(ctx context.Context, query model.Query) ([]model.Outcome, error)
	Enqueue(ctx context.Context, query model.Query) (string, error)
	Status(ctx context.Context, id string) (*model.Task, error)
	Tasks(ctx context.Context) ([]model.Task, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolution HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		environ, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer environ.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(environ.Resolver),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(r resolver) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/health", handleHealth)
	router.Get("/search", handleSearch(r))
	router.Get("/stream", handleStream(r))
	router.Get("/queue", handleQueue(r))
	router.Get("/tasks", handleTasks(r))
	router.Get("/tasks/{id}", handleTaskStatus(r))

	return router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		zap.L().Info("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// queryFromRequest parses the query and type parameters.
func queryFromRequest(req *http.Request) (model.Query, error) {
	text := req.URL.Query().Get("query")
	if text == "" {
		return model.Query{}, eris.New("query parameter is required")
	}

	kindParam := req.URL.Query().Get("type")
	if kindParam == "" {
		kindParam = string(model.KindProfile)
	}
	kind, err := model.ParseKind(kindParam)
	if err != nil {
		return model.Query{}, err
	}

	return model.NewQuery(text, kind), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Success: false, Message: msg})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "ok"})
}

func handleSearch(r resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		query, err := queryFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		outcomes, err := r.Resolve(req.Context(), query)
		if err != nil {
			zap.L().Error("resolution failed", zap.String("query", query.Text), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "resolution failed")
			return
		}

		writeJSON(w, http.StatusOK, apiResponse{
			Success: true,
			Message: "search completed",
			Count:   len(outcomes),
			Data:    map[string]any{"items": outcomes},
		})
	}
}

// handleStream writes outcomes as newline-delimited JSON, one envelope per
// line, flushing after each so clients see results as they are written.
func handleStream(r resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		query, err := queryFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		outcomes, err := r.Resolve(req.Context(), query)
		if err != nil {
			zap.L().Error("resolution failed", zap.String("query", query.Text), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "resolution failed")
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)

		flusher, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)
		for _, outcome := range outcomes {
			line := apiResponse{Success: outcome.OK(), Data: outcome}
			if !outcome.OK() {
				line.Message = outcome.Err.Message
			}
			if err := enc.Encode(line); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func handleQueue(r resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		query, err := queryFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id, err := r.Enqueue(req.Context(), query)
		if err != nil {
			zap.L().Error("enqueue failed", zap.String("query", query.Text), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}

		writeJSON(w, http.StatusAccepted, apiResponse{
			Success: true,
			Message: "resolution queued",
			Data: map[string]string{
				"task_id": id,
				"status":  string(model.TaskStatusQueued),
			},
		})
	}
}

func handleTasks(r resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		tasks, err := r.Tasks(req.Context())
		if err != nil {
			zap.L().Error("list tasks failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list tasks failed")
			return
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		writeJSON(w, http.StatusOK, apiResponse{
			Success: true,
			Count:   len(tasks),
			Data:    map[string]any{"items": tasks},
		})
	}
}

func handleTaskStatus(r resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		task, err := r.Status(req.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			zap.L().Error("task status failed", zap.String("task_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "task status failed")
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: task})
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
