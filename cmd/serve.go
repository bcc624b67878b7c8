package main

import (
	"context"
	"encoding/json"
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
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadimport-cli/internal/importer"
	"github.com/sells-group/leadimport-cli/internal/model"
	"github.com/sells-group/leadimport-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead import HTTP API",
	Long:  "Serves endpoints for inspecting lead files, running imports, and reading run history, for use by CRM frontends.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initBackend(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port), zap.String("backend", env.Backend))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *backendEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/reference", handleReference(env))
		r.Post("/import/inspect", handleInspect)
		r.Post("/import", handleImport(env))
		r.Get("/runs", handleRunsList(env))
		r.Get("/runs/{runID}", handleRunsGet(env))
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReference(env *backendEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"sources":  env.Ref.Sources,
			"statuses": env.Ref.Statuses,
		})
	}
}

// importRequest is the payload for both inspect and import. Mapping entries
// override the inferred mapping; empty default values fall back to config.
type importRequest struct {
	FileName string            `json:"file_name"`
	Content  string            `json:"content"`
	Mapping  map[string]string `json:"mapping,omitempty"`
	Defaults importer.Defaults `json:"defaults"`
}

// resolve parses the request content and layers requested overrides onto the
// inferred mapping.
func (req *importRequest) resolve() (*importer.RawTable, importer.FieldMapping, importer.Defaults, error) {
	table, err := importer.Parse(req.Content)
	if err != nil {
		return nil, nil, importer.Defaults{}, err
	}

	mapping := importer.InferMapping(table.Headers)
	for name, column := range req.Mapping {
		field, err := importer.ParseField(name)
		if err != nil {
			return nil, nil, importer.Defaults{}, err
		}
		mapping.Set(field, column)
	}

	defaults := importer.Defaults{
		Source: cfg.Import.DefaultSource,
		Status: cfg.Import.DefaultStatus,
	}
	if req.Defaults.Source != "" {
		defaults.Source = req.Defaults.Source
	}
	if req.Defaults.Status != "" {
		defaults.Status = req.Defaults.Status
	}

	return table, mapping, defaults, nil
}

func handleInspect(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}

	table, mapping, defaults, err := req.resolve()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	rows := importer.Project(table, mapping, defaults)

	const previewLimit = 5
	preview := make([]importer.ProjectedRow, 0, previewLimit)
	for i, row := range rows {
		if i >= previewLimit {
			break
		}
		preview = append(preview, row)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"headers":    table.Headers,
		"mapping":    mapping,
		"valid":      mapping.IsValid(),
		"total_rows": len(rows),
		"preview":    preview,
	})
}

func handleImport(env *backendEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
			return
		}

		table, mapping, defaults, err := req.resolve()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		if !mapping.IsValid() {
			writeError(w, http.StatusUnprocessableEntity, importer.ErrMappingIncomplete)
			return
		}

		rows := importer.Project(table, mapping, defaults)

		fileName := req.FileName
		if fileName == "" {
			fileName = "upload.csv"
		}

		ctx := r.Context()
		run, err := env.Store.CreateImportRun(ctx, fileName, env.Backend, len(rows))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		summary, execErr := importer.Execute(ctx, rows, env.Create, importer.ExecOptions{})

		status := model.RunStatusComplete
		if execErr != nil {
			status = model.RunStatusAborted
		}
		// Client disconnects cancel ctx, so record the run detached.
		recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := env.Store.CompleteImportRun(recordCtx, run.ID, status, summary); err != nil {
			zap.L().Error("failed to record import run", zap.String("run_id", run.ID), zap.Error(err))
		}

		banner := importer.Classify(summary)
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":        run.ID,
			"status":        status,
			"banner":        banner,
			"headline":      importer.Headline(banner),
			"total_rows":    summary.Total(),
			"success_count": summary.SuccessCount,
			"failure_count": summary.FailureCount,
			"errors":        summary.Errors,
		})
	}
}

func handleRunsList(env *backendEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.RunFilter{
			Status:  model.RunStatus(r.URL.Query().Get("status")),
			Backend: r.URL.Query().Get("backend"),
		}

		runs, err := env.Store.ListImportRuns(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	}
}

func handleRunsGet(env *backendEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetImportRun(r.Context(), chi.URLParam(r, "runID"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}
