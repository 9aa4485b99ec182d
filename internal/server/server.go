package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"benritz/giltmonitor/internal/export"
	"benritz/giltmonitor/internal/metrics"
	"benritz/giltmonitor/internal/monitor"
	"benritz/giltmonitor/internal/types"
)

const realm = "Gilts"

// Server exposes the monitor's quotes over HTTP behind basic auth.
type Server struct {
	monitor  *monitor.Monitor
	username string
	password string
	logger   *log.Logger
}

func New(m *monitor.Monitor, username, password string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		monitor:  m,
		username: username,
		password: password,
		logger:   logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /gilts", s.protect("gilts", s.handleGilts))
	mux.Handle("GET /gilts/export.xlsx", s.protect("export_xlsx", s.handleExportXLSX))
	mux.Handle("GET /gilts/export.pdf", s.protect("export_pdf", s.handleExportPDF))
	mux.Handle("GET /health", s.protect("health", s.handleHealth))
	mux.Handle("GET /metrics", promhttp.Handler())

	return cors(loggingMiddleware(mux, s.logger))
}

func (s *Server) protect(route string, h http.HandlerFunc) http.Handler {
	return observe(route, s.basicAuth(h))
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) != 1 {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGilts(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.quote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.quote(w, r)
	if !ok {
		return
	}
	data, err := export.BuildQuotesXLSX(resp)
	if err != nil {
		s.logger.Printf("xlsx export failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	writeFile(w, export.ContentTypeXLSX, "gilts.xlsx", data)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.quote(w, r)
	if !ok {
		return
	}
	data, err := export.BuildQuotesPDF(resp)
	if err != nil {
		s.logger.Printf("pdf export failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	writeFile(w, export.ContentTypePDF, "gilts.pdf", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"gilts":  s.monitor.Store().Len(),
		"prices": !s.monitor.LastUpdated().IsZero(),
	})
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) (*monitor.QuoteResponse, bool) {
	resp, err := s.monitor.Quote(r.Context(), ParseQuery(r.URL.Query()))
	if err != nil {
		if errors.Is(err, monitor.ErrNoGilts) {
			writeError(w, http.StatusServiceUnavailable, "No gilts available from configured sources")
		} else {
			s.logger.Printf("quote failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Quote failed")
		}
		return nil, false
	}
	return resp, true
}

// ParseQuery reads the quote filters from a query string. Unparseable values are ignored.
func ParseQuery(values url.Values) monitor.Query {
	var q monitor.Query
	if v, ok := parseFloat(values.Get("taxRate")); ok {
		q.TaxRate = *v
	}
	q.CouponMin, _ = parseFloat(values.Get("couponMin"))
	q.CouponMax, _ = parseFloat(values.Get("couponMax"))
	q.MaturityFrom = parseDate(values.Get("maturityFrom"))
	q.MaturityTo = parseDate(values.Get("maturityTo"))
	return q
}

func parseFloat(s string) (*float64, bool) {
	if s == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := types.ParseDate(s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		if r.Method == http.MethodOptions {
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func observe(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		metrics.ObserveHTTP(route, resp.status)
	})
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
