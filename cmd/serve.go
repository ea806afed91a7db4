package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/store"
	"github.com/sells-group/social-intel/internal/strategy"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e, cfg.Extract.PostLimit),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Close()
		}()

		zap.L().Info("server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// newRouter builds the API routes. Each scrape request runs its cascade on
// its own network client so concurrent requests never share identity state.
func newRouter(e *env, defaultPostLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/scrape", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Platform    string `json:"platform"`
			Handle      string `json:"handle"`
			DisplayName string `json:"display_name"`
			PostLimit   int    `json:"post_limit"`
			Save        bool   `json:"save"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		platform, err := model.ParsePlatform(body.Platform)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if body.Handle == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "handle is required"})
			return
		}
		limit := body.PostLimit
		if limit <= 0 {
			limit = defaultPostLimit
		}

		result := e.Cascade.Run(req.Context(), strategy.Query{
			Platform:  platform,
			Handle:    body.Handle,
			PostLimit: limit,
			Net:       e.newNetClient(),
		})

		job := model.JobRecord{
			ID:          uuid.New().String(),
			Platform:    platform,
			Handle:      body.Handle,
			DisplayName: body.DisplayName,
			Status:      model.StatusFor(result),
			Result:      result,
			CapturedAt:  time.Now().UTC(),
		}
		if body.Save {
			if err := e.Store.SaveResult(req.Context(), job); err != nil {
				zap.L().Error("save result failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save failed"})
				return
			}
		}
		writeJSON(w, http.StatusOK, job)
	})

	r.Get("/v1/jobs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.JobFilter{
			Platform: model.Platform(req.URL.Query().Get("platform")),
			Handle:   req.URL.Query().Get("handle"),
			Status:   model.JobStatus(req.URL.Query().Get("status")),
		}
		jobs, err := e.Store.ListJobs(req.Context(), filter)
		if err != nil {
			zap.L().Error("list jobs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
