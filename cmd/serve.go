package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/monitoring"
	"github.com/dealerpulse/reviews-cli/internal/pipeline"
	"github.com/dealerpulse/reviews-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reviews ingestion HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.Store, cfg.Monitoring.LookbackHours)
		router := newRouter(env, collector)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
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

func newRouter(env *pipelineEnv, collector *monitoring.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tenants/{tenantID}/reviews/scrape", handleScrape(env))
		r.Get("/tenants/{tenantID}/audits", handleListAudits(env.Store))
		r.Get("/audits/{auditID}", handleGetAudit(env.Store))
		r.Get("/metrics", handleMetrics(collector))
	})

	return r
}

type scrapeRequest struct {
	MaxReviews  int    `json:"max_reviews,omitempty"`
	Language    string `json:"language,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
	AutoAnalyze bool   `json:"auto_analyze,omitempty"`
}

type scrapeResponse struct {
	TenantID          string    `json:"tenant_id"`
	VendorPlaceID     string    `json:"vendor_place_id"`
	BusinessName      string    `json:"business_name"`
	Rating            float64   `json:"rating"`
	VendorReviewCount int       `json:"vendor_review_count"`
	ScrapedCount      int       `json:"scraped_count"`
	NewCount          int       `json:"new_count"`
	DuplicateCount    int       `json:"duplicate_count"`
	ScrapeStatus      string    `json:"scrape_status"`
	ScrapedAt         time.Time `json:"scraped_at"`
	AuditID           string    `json:"audit_id"`
	AutoEnrich        bool      `json:"auto_enrich"`
	EnrichmentStatus  *string   `json:"enrichment_status"`
}

func handleScrape(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body scrapeRequest
		if req.ContentLength > 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		res, err := env.Orchestrator.Run(req.Context(), pipeline.Request{
			TenantID:    chi.URLParam(req, "tenantID"),
			MaxReviews:  body.MaxReviews,
			Language:    body.Language,
			RequestedBy: body.RequestedBy,
			AutoAnalyze: body.AutoAnalyze,
		})
		if err != nil {
			status := http.StatusInternalServerError
			var pe *pipeline.Error
			if errors.As(err, &pe) {
				status = pe.StatusCode()
			}
			zap.L().Warn("scrape request failed",
				zap.String("tenant_id", chi.URLParam(req, "tenantID")),
				zap.Error(err))
			writeError(w, status, err.Error())
			return
		}

		var enrichment *string
		if res.EnrichmentStatus != "" {
			s := string(res.EnrichmentStatus)
			enrichment = &s
		}
		writeJSON(w, http.StatusOK, scrapeResponse{
			TenantID:          res.TenantID,
			VendorPlaceID:     res.Outcome.PlaceID,
			BusinessName:      res.Outcome.BusinessName,
			Rating:            res.Outcome.Rating,
			VendorReviewCount: res.Outcome.TotalReviews,
			ScrapedCount:      res.Outcome.ScrapedCount,
			NewCount:          res.Outcome.NewCount,
			DuplicateCount:    res.Outcome.DuplicateCount,
			ScrapeStatus:      "success",
			ScrapedAt:         res.ScrapedAt,
			AuditID:           res.AuditID,
			AutoEnrich:        body.AutoAnalyze,
			EnrichmentStatus:  enrichment,
		})
	}
}

func handleGetAudit(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		a, err := st.GetAudit(req.Context(), chi.URLParam(req, "auditID"))
		if err != nil {
			if store.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "audit not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "audit lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleListAudits(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		limit := 0
		if raw := q.Get("limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}

		audits, err := st.ListAudits(req.Context(), chi.URLParam(req, "tenantID"), store.AuditFilter{
			Status: model.AuditStatus(q.Get("status")),
			Limit:  limit,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "audit list failed")
			return
		}
		if audits == nil {
			audits = []model.ScrapeAudit{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"audits": audits})
	}
}

func handleMetrics(collector *monitoring.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		snap, err := collector.Collect(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "metrics collection failed")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
