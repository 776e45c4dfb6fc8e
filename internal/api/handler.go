package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dashboard"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/loader"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/pipeline"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/present"
)

// Handler serves the dashboard page, the /api/v1/* endpoints and /metrics.
type Handler struct {
	svc *dashboard.Service
	mux *http.ServeMux
}

// New creates a Handler wired to svc and registers all routes.
func New(svc *dashboard.Service) http.Handler {
	h := &Handler{svc: svc, mux: http.NewServeMux()}

	h.mux.HandleFunc("/", h.page)
	h.mux.HandleFunc("/api/v1/dashboard", h.dashboard)
	h.mux.HandleFunc("/api/v1/options", h.options)
	h.mux.HandleFunc("/api/v1/export", h.export)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.Handle("/metrics", svc.Metrics().Handler())

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// page returns GET / as the HTML dashboard.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	title := h.svc.Settings().Title

	c, err := criteriaFrom(r)
	if err != nil {
		htmlErr(w, http.StatusBadRequest, title, err)
		return
	}
	v, err := h.svc.Render(r.Context(), c)
	if err != nil {
		htmlErr(w, statusFor(err), title, err)
		return
	}

	q := r.URL.Query()
	q.Set(asOfParam, strconv.FormatInt(v.LoadedAt.UnixNano(), 10))
	exportURL := (&url.URL{Path: "/api/v1/export", RawQuery: q.Encode()}).String()
	var buf bytes.Buffer
	err = present.RenderPage(&buf, present.PageData{
		Dashboard: v.Dashboard,
		Choices:   v.Choices,
		LoadedAt:  v.LoadedAt,
		Rows:      v.Rows,
		Dropped:   v.Dropped,
		ExportURL: exportURL,
		ResetURL:  "/",
	})
	if err != nil {
		slog.Error("api: render page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// dashboard returns GET /api/v1/dashboard: gauge, trend, table and
// aggregates for the query criteria, or state "no_data".
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	c, err := criteriaFrom(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.svc.Render(r.Context(), c)
	if err != nil {
		jsonErr(w, statusFor(err), err.Error())
		return
	}
	jsonResp(w, http.StatusOK, v.Dashboard)
}

// options returns GET /api/v1/options: default bounds and selectable values.
func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	o, err := h.svc.Options(r.Context())
	if err != nil {
		jsonErr(w, statusFor(err), err.Error())
		return
	}
	jsonResp(w, http.StatusOK, o)
}

// export returns GET /api/v1/export as a CSV attachment. An empty result is
// 404. With as_of set, as the page's download link does, a dataset other than
// the one the page was rendered from is 409.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	c, err := criteriaFrom(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	asOf, err := asOfFrom(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportAsOf(r.Context(), c, asOf, &buf); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrEmpty):
			jsonErr(w, http.StatusNotFound, present.NoDataMessage)
			return
		case errors.Is(err, dashboard.ErrStale):
			jsonErr(w, http.StatusConflict, err.Error()+"; reload the page")
			return
		}
		jsonErr(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", present.CSVContentType)
	w.Header().Set("Content-Disposition", present.ContentDisposition(h.svc.Settings().ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// health returns GET /api/v1/health: source and cache state. It never
// triggers a load.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st := h.svc.Status()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		SourceURL:       st.SourceURL,
		Cached:          st.Cached,
		Rows:            st.Rows,
		CacheAgeSeconds: st.CacheAge.Seconds(),
		CacheTTLSeconds: st.CacheTTL.Seconds(),
		Metrics:         h.svc.Metrics().Snapshot(),
	})
}

// --- helpers ----------------------------------------------------------------

// criteriaFrom reads start, end and the repeated boiler and status
// parameters from the query string.
func criteriaFrom(r *http.Request) (pipeline.Criteria, error) {
	q := r.URL.Query()
	return pipeline.NewCriteria(q.Get("start"), q.Get("end"), q["boiler"], q["status"])
}

// asOfParam pins an export to the LoadedAt, in Unix nanoseconds, of the
// page that linked to it.
const asOfParam = "as_of"

func asOfFrom(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get(asOfParam)
	if raw == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid %s %q", asOfParam, raw)
	}
	return time.Unix(0, n), nil
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var le *loader.LoadError
	switch {
	case errors.As(err, &le):
		return http.StatusBadGateway
	case errors.Is(err, pipeline.ErrInvalidCriteria):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func htmlErr(w http.ResponseWriter, code int, title string, err error) {
	var buf bytes.Buffer
	if rerr := present.RenderError(&buf, title, err); rerr != nil {
		slog.Error("api: render error page", "err", rerr)
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes()) //nolint:errcheck
}
