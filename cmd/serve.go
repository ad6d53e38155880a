package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shoplens/shoplens-cli/internal/backup"
	"github.com/shoplens/shoplens-cli/internal/dataset"
	"github.com/shoplens/shoplens-cli/internal/ingest"
	"github.com/shoplens/shoplens-cli/internal/model"
	"github.com/shoplens/shoplens-cli/internal/profit"
	"github.com/shoplens/shoplens-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Serves the dataset, reports, analytics, settings, and uploads over HTTP for dashboard frontends.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		api := &apiServer{st: st, userKey: cfg.User.Key}
		r := api.routes()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
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

// apiServer holds the handlers' shared state. Uploads serialize on a mutex:
// two concurrent merges against the same dataset would lose rows.
type apiServer struct {
	st       store.Store
	userKey  string
	uploadMu sync.Mutex
}

func (a *apiServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(rateLimit(cfg.Server.RatePerSecond, cfg.Server.RateBurst))

	r.Get("/health", a.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", a.getDataset)
		r.Delete("/dataset", a.deleteDataset)
		r.Post("/upload", a.postUpload)
		r.Get("/report", a.getReport)
		r.Get("/analytics", a.getAnalytics)
		r.Get("/products", a.getProducts)
		r.Get("/settings", a.getSettings)
		r.Put("/settings", a.putSettings)
		r.Get("/uploads", a.getUploads)
		r.Get("/backup", a.getBackup)
		r.Post("/backup", a.postBackup)
	})
	return r
}

func (a *apiServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) getDataset(w http.ResponseWriter, r *http.Request) {
	d, err := a.st.LoadDataset(r.Context(), a.userKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if d == nil {
		d = &model.Dataset{}
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *apiServer) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := a.st.DeleteDataset(r.Context(), a.userKey); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *apiServer) postUpload(w http.ResponseWriter, r *http.Request) {
	a.uploadMu.Lock()
	defer a.uploadMu.Unlock()

	r.Body = http.MaxBytesReader(w, r.Body, cfg.Server.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "upload: read form file"))
		return
	}
	defer file.Close()

	mode := model.UploadMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = model.UploadModeMerge
	}
	if mode != model.UploadModeMerge && mode != model.UploadModeReplace {
		writeError(w, http.StatusBadRequest, eris.Errorf("unknown upload mode: %q", mode))
		return
	}

	result, err := ingest.Ingest(file, ingest.Options{})
	if err != nil {
		var ingErr *ingest.Error
		if errors.As(err, &ingErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      ingErr.Message,
				"kind":       string(ingErr.Kind),
				"diagnostic": ingErr.Diagnostic(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if result.NoRows() {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "no_rows",
			"stats":  result.Stats,
		})
		return
	}

	ctx := r.Context()
	final := result.Dataset
	var mergeStats dataset.MergeStats
	mergeStats.NewOrders = len(final.Orders)

	if mode == model.UploadModeMerge {
		existing, err := a.st.LoadDataset(ctx, a.userKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if existing != nil {
			final, mergeStats = dataset.Merge(existing, result.Dataset)
		}
	}

	if err := a.st.SaveDataset(ctx, a.userKey, final); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	log, err := a.st.RecordUpload(ctx, a.userKey, model.UploadLog{
		FileName:        header.Filename,
		Mode:            mode,
		RowsTotal:       result.Stats.Rows,
		RowsProcessed:   result.Stats.Processed,
		RowsSkipped:     result.Stats.Skipped(),
		NewOrders:       mergeStats.NewOrders,
		DuplicateOrders: mergeStats.DuplicateOrders,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "stored",
		"upload":  log,
		"stats":   result.Stats,
		"summary": final.Summary,
	})
}

func (a *apiServer) getReport(w http.ResponseWriter, r *http.Request) {
	d, settings, err := a.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, profit.Compute(d, settings))
}

func (a *apiServer) getAnalytics(w http.ResponseWriter, r *http.Request) {
	d, settings, err := a.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, profit.Analyze(d, settings))
}

func (a *apiServer) getProducts(w http.ResponseWriter, r *http.Request) {
	d, settings, err := a.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if r.URL.Query().Get("view") == "costing" {
		writeJSON(w, http.StatusOK, dataset.CostingProducts(d, settings.SizeCostingEnabled))
		return
	}

	combine := r.URL.Query().Get("combine")
	if combine == "" {
		combine = string(dataset.CombineBySize)
	}
	mode, err := dataset.ParseCombineMode(combine)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset.Combine(d, mode))
}

func (a *apiServer) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.st.LoadSettings(r.Context(), a.userKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if settings == nil {
		settings = model.DefaultSettings()
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *apiServer) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "settings: decode body"))
		return
	}
	if err := a.st.SaveSettings(r.Context(), a.userKey, &settings); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *apiServer) getUploads(w http.ResponseWriter, r *http.Request) {
	logs, err := a.st.ListUploads(r.Context(), a.userKey, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []model.UploadLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (a *apiServer) getBackup(w http.ResponseWriter, r *http.Request) {
	d, settings, err := a.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="shoplens-backup.json"`)
	if err := backup.Write(w, backup.Export(d, settings.CostSettings, time.Now().UTC())); err != nil {
		zap.L().Error("backup write failed", zap.Error(err))
	}
}

func (a *apiServer) postBackup(w http.ResponseWriter, r *http.Request) {
	a.uploadMu.Lock()
	defer a.uploadMu.Unlock()

	doc, err := backup.Read(r.Body)
	if err != nil {
		if errors.Is(err, backup.ErrRejected) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ctx := r.Context()
	if err := a.st.SaveDataset(ctx, a.userKey, doc.Data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(doc.CostSettings) > 0 {
		settings, err := a.st.LoadSettings(ctx, a.userKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if settings == nil {
			settings = model.DefaultSettings()
		}
		for key, cost := range doc.CostSettings {
			settings.SetCost(key, cost)
		}
		if err := a.st.SaveSettings(ctx, a.userKey, settings); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "restored",
		"summary": doc.Data.Summary,
	})
}

// load fetches the dataset and settings, substituting empty defaults so
// read-only endpoints work before any upload.
func (a *apiServer) load(r *http.Request) (*model.Dataset, *model.Settings, error) {
	d, err := a.st.LoadDataset(r.Context(), a.userKey)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		d = &model.Dataset{}
	}
	settings, err := a.st.LoadSettings(r.Context(), a.userKey)
	if err != nil {
		return nil, nil, err
	}
	if settings == nil {
		settings = model.DefaultSettings()
	}
	return d, settings, nil
}

// rateLimit applies a per-client token bucket keyed by remote IP. Stale
// limiters are dropped once the map grows past a soft cap.
func rateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			mu.Lock()
			lim, ok := limiters[host]
			if !ok {
				if len(limiters) > 10000 {
					limiters = map[string]*rate.Limiter{}
				}
				lim = rate.NewLimiter(rate.Limit(perSecond), burst)
				limiters[host] = lim
			}
			mu.Unlock()

			if !lim.Allow() {
				writeError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
