package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Router uses the standard library ServeMux with method and path-value patterns.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)
	r.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	)
}

// RegisterCheckinRoutes registers the patient check-in API.
func (r *Router) RegisterCheckinRoutes(h *CheckinHandler) {
	const base = "/api/v1/patients/{patientID}"

	r.Handle("POST "+base+"/vitals", h.RecordVitals)
	r.Handle("POST "+base+"/symptoms", h.RecordSymptoms)
	r.Handle("POST "+base+"/diuretics", h.RecordDiureticDose)
	r.Handle("POST "+base+"/evaluate", h.Evaluate)

	r.Handle("GET "+base+"/summary", h.GetSummary)
	r.Handle("GET "+base+"/alerts", h.ListAlerts)
	r.Handle("POST "+base+"/alerts/{eventID}/acknowledge", h.AcknowledgeAlert)
	r.Handle("GET "+base+"/trends/weight", h.GetWeightTrend)

	r.Handle("GET "+base+"/thresholds", h.GetThresholds)
	r.Handle("PUT "+base+"/thresholds", h.PutThresholds)

	r.Handle("POST "+base+"/history/import", h.ImportHistory)
	r.Handle("GET /api/v1/history/template", h.DownloadHistoryTemplate)
}

// RegisterHealthRoutes registers the liveness probe.
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("GET /healthz", h.ServeHTTP)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
