package service

import (
	"context"
	"testing"
	"time"

	"hrty-backend/internal/config"
	"hrty-backend/internal/consumer"
	"hrty-backend/internal/models"
	"hrty-backend/internal/repository"
	"hrty-backend/internal/thresholds"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const patient = "patient-1"

func day(s string) time.Time {
	d, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(i int) *int { return &i }

func pounds(v float64) *models.Weight {
	return &models.Weight{Value: v, Unit: models.WeightUnitPounds}
}

type testEnv struct {
	svc      *CheckinService
	entries  *memoryEntries
	symptoms *memorySymptoms
	doses    *memoryDoses
	alerts   *memoryAlerts
	profiles *memoryProfiles
	notifier *recordingNotifier
	lock     *consumer.EvaluationLock
	cache    *consumer.CacheManager
	mr       *miniredis.Miniredis
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Alert.Cache.KeyPrefix = "hrty:patient:"
	cfg.Alert.Cache.TTL = time.Minute
	cfg.Alert.Lock.KeyPrefix = "hrty:lock:"
	cfg.Alert.Lock.TTL = 5 * time.Second
	cfg.Alert.Lock.WaitTimeout = 100 * time.Millisecond
	cfg.Alert.Lock.RetryInterval = 10 * time.Millisecond
	return cfg
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	logger := zap.NewNop()
	cfg := testConfig()
	env := &testEnv{
		entries:  newMemoryEntries(),
		symptoms: newMemorySymptoms(),
		doses:    &memoryDoses{},
		alerts:   &memoryAlerts{},
		profiles: newMemoryProfiles(),
		notifier: &recordingNotifier{},
		lock:     consumer.NewEvaluationLock(cfg, redisClient, logger),
		cache:    consumer.NewCacheManager(cfg, redisClient, logger),
		mr:       mr,
	}
	provider, err := NewThresholdProvider(thresholds.Default(), env.profiles, 16, time.Minute, logger)
	require.NoError(t, err)

	env.svc = NewCheckinService(env.entries, env.symptoms, env.doses, env.alerts, provider,
		env.lock, env.cache, env.notifier, time.UTC, logger)
	env.setNow(day("2024-03-08").Add(9 * time.Hour))
	return env
}

func (e *testEnv) setNow(t time.Time) {
	e.svc.now = func() time.Time { return t }
}

func TestRecordVitals_WeightGainRaisesOnce(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Day: day("2024-03-07"), Weight: pounds(180)})
	require.NoError(t, err)

	res, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Weight: pounds(183)})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", res.Date)
	require.Len(t, res.NewAlerts, 1)
	assert.Equal(t, models.CategoryWeightGain24h, res.NewAlerts[0].Category)
	assert.Equal(t, models.StatusCaution, res.NewAlerts[0].Severity)
	require.NotNil(t, res.Weight)
	assert.InDelta(t, 3.0, res.Weight.DayOverDay.Pounds, 0.001)
	require.Len(t, env.notifier.dispatched, 1)

	again, err := env.svc.Evaluate(ctx, patient, day("2024-03-08"))
	require.NoError(t, err)
	assert.Empty(t, again.NewAlerts)
	assert.Empty(t, again.UpdatedAlerts)
	assert.Len(t, env.alerts.byCategory(models.CategoryWeightGain24h), 1)
	assert.Len(t, env.notifier.dispatched, 1)
}

func TestRecordVitals_SupersedesActiveMessage(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(55)})
	require.NoError(t, err)
	require.Len(t, res.NewAlerts, 1)
	first := res.NewAlerts[0]
	assert.Equal(t, models.StatusCaution, first.Severity)

	res, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35)})
	require.NoError(t, err)
	assert.Empty(t, res.NewAlerts)
	require.Len(t, res.UpdatedAlerts, 1)
	assert.Equal(t, first.EventID, res.UpdatedAlerts[0].EventID)

	stored := env.alerts.byCategory(models.CategoryHeartRateLow)
	require.Len(t, stored, 1)
	assert.Equal(t, models.StatusCritical, stored[0].Severity)
	assert.NotEqual(t, first.Message, stored[0].Message)
}

func TestAcknowledge_SilencesUntilNextDay(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35)})
	require.NoError(t, err)
	require.Len(t, res.NewAlerts, 1)

	acked, err := env.svc.Acknowledge(ctx, patient, res.NewAlerts[0].EventID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusAcknowledged, acked.AlertStatus)
	require.NotNil(t, acked.AcknowledgedAt)

	res, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(30)})
	require.NoError(t, err)
	assert.Empty(t, res.NewAlerts)
	assert.Empty(t, res.UpdatedAlerts)

	env.setNow(day("2024-03-09").Add(8 * time.Hour))
	res, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35)})
	require.NoError(t, err)
	require.Len(t, res.NewAlerts, 1)
	assert.Equal(t, day("2024-03-09"), res.NewAlerts[0].AlertDay)
}

func TestAcknowledge_Errors(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.Acknowledge(ctx, patient, "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.svc.Acknowledge(ctx, patient, "6f1c1b1e-8f5d-4d4e-9a53-1f0b7a3c2d10")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordVitals_Validation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(400)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.svc.RecordVitals(ctx, models.DailyEntry{HeartRate: intPtr(70)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRecordVitals_DefaultsWeightUnit(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Weight: &models.Weight{Value: 180}})
	require.NoError(t, err)

	stored, err := env.entries.Get(ctx, patient, day("2024-03-08"))
	require.NoError(t, err)
	assert.Equal(t, models.WeightUnitPounds, stored.Weight.Unit)
}

func TestRecordSymptoms_SevereOncePerDay(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.RecordSymptoms(ctx, patient, time.Time{}, []models.SymptomObservation{
		{Type: models.SymptomShortnessOfBreath, Severity: 5},
		{Type: models.SymptomChestDiscomfort, Severity: 5},
	})
	require.NoError(t, err)

	severe := env.alerts.byCategory(models.CategorySevereSymptom)
	require.Len(t, severe, 1)
	assert.Equal(t, models.StatusCritical, severe[0].Severity)
	assert.Contains(t, severe[0].Message, "Shortness of breath")
	assert.Contains(t, severe[0].Message, "Chest discomfort")
	require.NotNil(t, res.Statuses.Symptoms)
	assert.Equal(t, models.StatusCritical, *res.Statuses.Symptoms)

	_, err = env.svc.RecordSymptoms(ctx, patient, time.Time{}, []models.SymptomObservation{
		{Type: models.SymptomSwelling, Severity: 5},
	})
	require.NoError(t, err)
	assert.Len(t, env.alerts.byCategory(models.CategorySevereSymptom), 1)
}

func TestRecordSymptoms_Validation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordSymptoms(ctx, patient, time.Time{}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.svc.RecordSymptoms(ctx, patient, time.Time{}, []models.SymptomObservation{
		{Type: models.SymptomFatigue, Severity: 6},
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.svc.RecordSymptoms(ctx, patient, time.Time{}, []models.SymptomObservation{
		{Type: "nausea", Severity: 2},
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestEvaluate_LockBusy(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	key := env.lock.GetLockKey(patient, day("2024-03-08"))
	token, err := env.lock.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35)})
	assert.ErrorIs(t, err, ErrEvaluationBusy)
	assert.Empty(t, env.alerts.byCategory(models.CategoryHeartRateLow))

	require.NoError(t, env.lock.Release(ctx, key, token))
	_, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35)})
	assert.NoError(t, err)
}

func TestSummary_CachedAndInvalidated(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Systolic: intPtr(85), Diastolic: intPtr(55)})
	require.NoError(t, err)
	_, err = env.svc.RecordSymptoms(ctx, patient, time.Time{}, []models.SymptomObservation{
		{Type: models.SymptomDizziness, Severity: 3},
		{Type: models.SymptomFatigue, Severity: 1},
	})
	require.NoError(t, err)

	summary, err := env.svc.Summary(ctx, patient, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", summary.Date)
	require.NotNil(t, summary.Entry)
	require.NotNil(t, summary.Statuses.BloodPressure)
	assert.Equal(t, models.StatusCaution, *summary.Statuses.BloodPressure)
	require.Len(t, summary.Symptoms, 2)
	assert.Equal(t, models.SymptomDizziness, summary.Symptoms[0].Type)
	assert.Equal(t, "Moderate", summary.Symptoms[0].Label)
	assert.NotEmpty(t, summary.Alerts)
	assert.Empty(t, summary.Doses)
	assert.True(t, env.mr.Exists("hrty:patient:patient-1:summaries"))

	// a cached summary is served without touching the stores
	env.doses.doses = append(env.doses.doses, models.DiureticDose{PatientID: patient, Day: day("2024-03-08"), Medication: "x", DoseMg: 1})
	cached, err := env.svc.Summary(ctx, patient, day("2024-03-08"))
	require.NoError(t, err)
	assert.Empty(t, cached.Doses)
	assert.Equal(t, summary.Statuses.Overall, cached.Statuses.Overall)

	_, err = env.svc.RecordDiureticDose(ctx, models.DiureticDose{PatientID: patient, Medication: "Furosemide", DoseMg: 40})
	require.NoError(t, err)
	fresh, err := env.svc.Summary(ctx, patient, day("2024-03-08"))
	require.NoError(t, err)
	assert.Len(t, fresh.Doses, 2)
}

func TestSummary_InvalidatedByEarlierDayWeight(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Weight: pounds(186)})
	require.NoError(t, err)
	summary, err := env.svc.Summary(ctx, patient, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, summary.Weight)
	assert.True(t, summary.Weight.FirstEntry)

	_, err = env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Day: day("2024-03-07"), Weight: pounds(180)})
	require.NoError(t, err)

	summary, err = env.svc.Summary(ctx, patient, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, summary.Weight)
	assert.False(t, summary.Weight.FirstEntry)
	require.True(t, summary.Weight.DayOverDay.Available)
	assert.InDelta(t, 6.0, summary.Weight.DayOverDay.Pounds, 0.001)
}

func TestSummary_InvalidatedByThresholdChange(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, Day: day("2024-03-05"), HeartRate: intPtr(50)})
	require.NoError(t, err)
	summary, err := env.svc.Summary(ctx, patient, day("2024-03-05"))
	require.NoError(t, err)
	require.NotNil(t, summary.Statuses.HeartRate)
	assert.NotEqual(t, models.StatusNormal, summary.Statuses.HeartRate.Status)

	_, err = env.svc.SetThresholds(ctx, patient, []byte(`{"heart_rate":{"critical_low":35,"normal_low":45}}`))
	require.NoError(t, err)

	summary, err = env.svc.Summary(ctx, patient, day("2024-03-05"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, summary.Statuses.HeartRate.Status)
}

func TestRecordVitals_DispatchesOutsideLock(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	env.notifier.entered = make(chan struct{})
	env.notifier.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35)})
		done <- err
	}()
	<-env.notifier.entered

	// delivery of the first alert is still in progress; the same day stays writable
	res, err := env.svc.RecordSymptoms(ctx, patient, time.Time{}, []models.SymptomObservation{
		{Type: models.SymptomFatigue, Severity: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, res.NewAlerts)

	close(env.notifier.release)
	require.NoError(t, <-done)
	assert.Len(t, env.notifier.dispatched, 1)
}

func TestRecordDiureticDose(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	takenAt := day("2024-03-07").Add(20 * time.Hour)
	dose, err := env.svc.RecordDiureticDose(ctx, models.DiureticDose{PatientID: patient, Medication: "Furosemide", DoseMg: 40, TakenAt: takenAt})
	require.NoError(t, err)
	assert.NotEmpty(t, dose.DoseID)
	assert.Equal(t, day("2024-03-07"), dose.Day)
	assert.Empty(t, env.notifier.dispatched)

	_, err = env.svc.RecordDiureticDose(ctx, models.DiureticDose{PatientID: patient, Medication: "", DoseMg: 40})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListAlerts_ActiveFromCache(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(35), OxygenSaturation: floatPtr(85)})
	require.NoError(t, err)
	require.Len(t, res.NewAlerts, 2)

	active, err := env.svc.ListAlerts(ctx, patient, false, 0)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	lists := env.alerts.lists

	active, err = env.svc.ListAlerts(ctx, patient, false, 0)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Equal(t, lists, env.alerts.lists)

	_, err = env.svc.Acknowledge(ctx, patient, res.NewAlerts[0].EventID)
	require.NoError(t, err)
	active, err = env.svc.ListAlerts(ctx, patient, false, 0)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := env.svc.ListAlerts(ctx, patient, true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecordReading_SatisfiesRecorder(t *testing.T) {
	env := setupService(t)
	var recorder consumer.ReadingRecorder = env.svc

	err := recorder.RecordReading(context.Background(), models.DailyEntry{PatientID: patient, OxygenSaturation: floatPtr(90)})
	require.NoError(t, err)
	oxygen := env.alerts.byCategory(models.CategoryLowOxygenSaturation)
	require.Len(t, oxygen, 1)
	assert.Equal(t, models.StatusCaution, oxygen[0].Severity)
}

func TestThresholds_PatientOverride(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.SetThresholds(ctx, patient, []byte(`{"heart_rate":{"critical_low":35,"normal_low":45}}`))
	require.NoError(t, err)

	set, err := env.svc.Thresholds(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, 45.0, set.HeartRate.NormalLow)

	res, err := env.svc.RecordVitals(ctx, models.DailyEntry{PatientID: patient, HeartRate: intPtr(50)})
	require.NoError(t, err)
	assert.Empty(t, res.NewAlerts)
	assert.Equal(t, models.StatusNormal, res.Statuses.HeartRate.Status)

	_, err = env.svc.SetThresholds(ctx, patient, []byte(`{"heart_rate":{"critical_low":70}}`))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func floatPtr(f float64) *float64 { return &f }
