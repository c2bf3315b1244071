package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"hrty-backend/internal/importer"
	"hrty-backend/internal/models"
	"hrty-backend/internal/service"
	"hrty-backend/internal/thresholds"

	"go.uber.org/zap"
)

// CheckinService is the part of service.CheckinService the API uses.
type CheckinService interface {
	RecordVitals(ctx context.Context, entry models.DailyEntry) (*service.EvaluationResult, error)
	RecordSymptoms(ctx context.Context, patientID string, day time.Time, observations []models.SymptomObservation) (*service.EvaluationResult, error)
	RecordDiureticDose(ctx context.Context, dose models.DiureticDose) (*models.DiureticDose, error)
	Evaluate(ctx context.Context, patientID string, day time.Time) (*service.EvaluationResult, error)
	Summary(ctx context.Context, patientID string, day time.Time) (*service.DaySummary, error)
	ListAlerts(ctx context.Context, patientID string, all bool, limit int) ([]models.AlertEvent, error)
	Acknowledge(ctx context.Context, patientID, eventID string) (*models.AlertEvent, error)
	WeightTrend(ctx context.Context, patientID string, days int) (*service.WeightTrend, error)
	ImportHistory(ctx context.Context, patientID string, r io.Reader) (*service.ImportResult, error)
	Thresholds(ctx context.Context, patientID string) (thresholds.Set, error)
	SetThresholds(ctx context.Context, patientID string, profile json.RawMessage) (thresholds.Set, error)
}

// CheckinHandler serves /api/v1/patients/{patientID}/...
type CheckinHandler struct {
	svc    CheckinService
	logger *zap.Logger
}

func NewCheckinHandler(svc CheckinService, logger *zap.Logger) *CheckinHandler {
	return &CheckinHandler{svc: svc, logger: logger}
}

type vitalsRequest struct {
	Date             string   `json:"date"`
	Weight           *float64 `json:"weight"`
	WeightUnit       string   `json:"weight_unit"`
	Systolic         *int     `json:"systolic"`
	Diastolic        *int     `json:"diastolic"`
	HeartRate        *int     `json:"heart_rate"`
	OxygenSaturation *float64 `json:"oxygen_saturation"`
}

type symptomRating struct {
	Type     string `json:"type"`
	Severity int    `json:"severity"`
}

type symptomsRequest struct {
	Date     string          `json:"date"`
	Symptoms []symptomRating `json:"symptoms"`
}

type diureticRequest struct {
	Date       string     `json:"date"`
	Medication string     `json:"medication"`
	DoseMg     float64    `json:"dose_mg"`
	TakenAt    *time.Time `json:"taken_at"`
}

func patientID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("patientID"))
}

// RecordVitals
// POST /api/v1/patients/{patientID}/vitals
func (h *CheckinHandler) RecordVitals(w http.ResponseWriter, r *http.Request) {
	var req vitalsRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	if (req.Systolic == nil) != (req.Diastolic == nil) {
		badRequest(w, "systolic and diastolic must be given together")
		return
	}

	entry := models.DailyEntry{
		PatientID:        patientID(r),
		Day:              day,
		Systolic:         req.Systolic,
		Diastolic:        req.Diastolic,
		HeartRate:        req.HeartRate,
		OxygenSaturation: req.OxygenSaturation,
	}
	if req.Weight != nil {
		entry.Weight = &models.Weight{Value: *req.Weight, Unit: models.WeightUnit(strings.ToLower(req.WeightUnit))}
	}

	res, err := h.svc.RecordVitals(r.Context(), entry)
	if err != nil {
		writeError(w, h.logger, "RecordVitals", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// RecordSymptoms
// POST /api/v1/patients/{patientID}/symptoms
func (h *CheckinHandler) RecordSymptoms(w http.ResponseWriter, r *http.Request) {
	var req symptomsRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	obs := make([]models.SymptomObservation, 0, len(req.Symptoms))
	for _, s := range req.Symptoms {
		obs = append(obs, models.SymptomObservation{Type: models.SymptomType(s.Type), Severity: s.Severity})
	}

	res, err := h.svc.RecordSymptoms(r.Context(), patientID(r), day, obs)
	if err != nil {
		writeError(w, h.logger, "RecordSymptoms", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// RecordDiureticDose
// POST /api/v1/patients/{patientID}/diuretics
func (h *CheckinHandler) RecordDiureticDose(w http.ResponseWriter, r *http.Request) {
	var req diureticRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	dose := models.DiureticDose{
		PatientID:  patientID(r),
		Day:        day,
		Medication: strings.TrimSpace(req.Medication),
		DoseMg:     req.DoseMg,
	}
	if req.TakenAt != nil {
		dose.TakenAt = *req.TakenAt
	}

	res, err := h.svc.RecordDiureticDose(r.Context(), dose)
	if err != nil {
		writeError(w, h.logger, "RecordDiureticDose", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(res))
}

// Evaluate re-runs the rules over a stored day.
// POST /api/v1/patients/{patientID}/evaluate?date=YYYY-MM-DD
func (h *CheckinHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	res, err := h.svc.Evaluate(r.Context(), patientID(r), day)
	if err != nil {
		writeError(w, h.logger, "Evaluate", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// GetSummary
// GET /api/v1/patients/{patientID}/summary?date=YYYY-MM-DD
func (h *CheckinHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	res, err := h.svc.Summary(r.Context(), patientID(r), day)
	if err != nil {
		writeError(w, h.logger, "GetSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ListAlerts
// GET /api/v1/patients/{patientID}/alerts?status=active|all&limit=N
func (h *CheckinHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	var all bool
	switch status := r.URL.Query().Get("status"); status {
	case "", models.AlertStatusActive:
	case "all":
		all = true
	default:
		badRequest(w, "status must be active or all, got %q", status)
		return
	}
	limit, err := parseIntQuery(r, "limit", 100)
	if err != nil || limit < 0 {
		badRequest(w, "invalid limit")
		return
	}

	res, err := h.svc.ListAlerts(r.Context(), patientID(r), all, limit)
	if err != nil {
		writeError(w, h.logger, "ListAlerts", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": res, "count": len(res)}))
}

// AcknowledgeAlert
// POST /api/v1/patients/{patientID}/alerts/{eventID}/acknowledge
func (h *CheckinHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Acknowledge(r.Context(), patientID(r), r.PathValue("eventID"))
	if err != nil {
		writeError(w, h.logger, "AcknowledgeAlert", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// GetWeightTrend
// GET /api/v1/patients/{patientID}/trends/weight?days=N
func (h *CheckinHandler) GetWeightTrend(w http.ResponseWriter, r *http.Request) {
	days, err := parseIntQuery(r, "days", 0)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	res, err := h.svc.WeightTrend(r.Context(), patientID(r), days)
	if err != nil {
		writeError(w, h.logger, "GetWeightTrend", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// GetThresholds returns the table the patient is evaluated with.
// GET /api/v1/patients/{patientID}/thresholds
func (h *CheckinHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Thresholds(r.Context(), patientID(r))
	if err != nil {
		writeError(w, h.logger, "GetThresholds", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// PutThresholds stores a clinician override; absent keys keep the deployment value.
// PUT /api/v1/patients/{patientID}/thresholds
func (h *CheckinHandler) PutThresholds(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		badRequest(w, "threshold profile is required")
		return
	}
	res, err := h.svc.SetThresholds(r.Context(), patientID(r), body)
	if err != nil {
		writeError(w, h.logger, "PutThresholds", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ImportHistory loads an XLSX history upload (form field "file").
// POST /api/v1/patients/{patientID}/history/import
func (h *CheckinHandler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB max
		badRequest(w, "failed to parse form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file not found in request")
		return
	}
	defer file.Close()

	res, err := h.svc.ImportHistory(r.Context(), patientID(r), file)
	if err != nil {
		writeError(w, h.logger, "ImportHistory", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// DownloadHistoryTemplate
// GET /api/v1/history/template
func (h *CheckinHandler) DownloadHistoryTemplate(w http.ResponseWriter, r *http.Request) {
	excelData, err := importer.GenerateTemplate(nil)
	if err != nil {
		writeError(w, h.logger, "DownloadHistoryTemplate", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=hrty-history-template.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(excelData)
}
