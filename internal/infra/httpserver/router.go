package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appdocs "github.com/bryanwahyu/docutrust/internal/application/documents"
	"github.com/bryanwahyu/docutrust/internal/domain/assessment"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
	"github.com/bryanwahyu/docutrust/internal/middleware"
)

type Router struct {
	docsSvc *appdocs.Service
}

func NewRouter(docsSvc *appdocs.Service) http.Handler {
	r := &Router{docsSvc: docsSvc}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/documents/validate", r.wrap(r.handleValidate))
		rt.Get("/documents/versions/{hash}", r.wrap(r.handleVersions))
		rt.Get("/documents/compare/{hash}/{v1}/{v2}", r.wrap(r.handleCompare))
		rt.Get("/audit/history", r.wrap(r.handleHistory))
		rt.Get("/cache/stats", r.wrap(r.handleCacheStats))
		rt.Post("/cache/clear", r.wrap(r.handleCacheSweep))
		rt.Post("/cache/clear/all", r.wrap(r.handleCacheClearAll))
		rt.Delete("/cache/{hash}", r.wrap(r.handleCacheInvalidate))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, verr)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, assessment.ErrQuotaExceeded) {
				http.Error(w, "assessment quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func badRequest(detail string) error {
	return &domain.ValidationError{Code: domain.ErrCodeBadRequest, Detail: detail}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/documents/validate
// Multipart body with field "file".
func (r *Router) handleValidate(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return badRequest(err.Error())
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("file field is required")
	}
	defer file.Close()

	name := middleware.SanitizeString(header.Filename)
	if err := middleware.ValidateFileName(name); err != nil {
		return badRequest(err.Error())
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	middleware.IncrementValidations()
	report, err := r.docsSvc.Validate(req.Context(), tenant, name, data)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			middleware.IncrementValidationsRejected()
		}
		return err
	}
	if report.Cached {
		middleware.IncrementValidationsCached()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(report)
}

// GET /v1/{tenant}/documents/versions/{hash}
func (r *Router) handleVersions(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	hash := chi.URLParam(req, "hash")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return badRequest(err.Error())
	}
	if err := middleware.ValidateFileHash(hash); err != nil {
		return badRequest(err.Error())
	}

	list, err := r.docsSvc.Versions(req.Context(), tenant, hash)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/documents/compare/{hash}/{v1}/{v2}
func (r *Router) handleCompare(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	hash := chi.URLParam(req, "hash")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return badRequest(err.Error())
	}
	if err := middleware.ValidateFileHash(hash); err != nil {
		return badRequest(err.Error())
	}

	v1, err := strconv.Atoi(chi.URLParam(req, "v1"))
	if err != nil {
		return badRequest("v1 must be an integer")
	}
	v2, err := strconv.Atoi(chi.URLParam(req, "v2"))
	if err != nil {
		return badRequest("v2 must be an integer")
	}
	if err := middleware.ValidateVersion(v1); err != nil {
		return badRequest(err.Error())
	}
	if err := middleware.ValidateVersion(v2); err != nil {
		return badRequest(err.Error())
	}

	diff, err := r.docsSvc.Compare(req.Context(), tenant, hash, v1, v2)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(diff)
}

// GET /v1/{tenant}/audit/history?latest_only=true&limit=50
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return badRequest(err.Error())
	}
	latestOnly := req.URL.Query().Get("latest_only") == "true"
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.docsSvc.History(req.Context(), tenant, latestOnly, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/cache/stats
func (r *Router) handleCacheStats(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, r.docsSvc.CacheStats())
	return nil
}

// POST /v1/{tenant}/cache/clear — drops expired entries only
func (r *Router) handleCacheSweep(w http.ResponseWriter, req *http.Request) error {
	n := r.docsSvc.SweepCache()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
	return nil
}

// POST /v1/{tenant}/cache/clear/all — drops everything
func (r *Router) handleCacheClearAll(w http.ResponseWriter, req *http.Request) error {
	n := r.docsSvc.ClearCache()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
	return nil
}

// DELETE /v1/{tenant}/cache/{hash}
func (r *Router) handleCacheInvalidate(w http.ResponseWriter, req *http.Request) error {
	hash := chi.URLParam(req, "hash")
	if err := middleware.ValidateFileHash(hash); err != nil {
		return badRequest(err.Error())
	}
	writeJSON(w, http.StatusOK, map[string]bool{"invalidated": r.docsSvc.InvalidateCache(hash)})
	return nil
}
