package classifier

import (
	"testing"

	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"

	"github.com/stretchr/testify/assert"
)

func TestHeartRate_Bands(t *testing.T) {
	set := thresholds.Default()
	tests := []struct {
		bpm    int
		status models.Status
		side   Side
	}{
		{30, models.StatusCritical, SideLow},
		{39, models.StatusCritical, SideLow},
		{40, models.StatusCaution, SideLow},
		{59, models.StatusCaution, SideLow},
		{60, models.StatusNormal, SideNone},
		{72, models.StatusNormal, SideNone},
		{100, models.StatusNormal, SideNone},
		{101, models.StatusCaution, SideHigh},
		{150, models.StatusCaution, SideHigh},
		{151, models.StatusCritical, SideHigh},
	}
	for _, tt := range tests {
		got := HeartRate(set, tt.bpm)
		assert.Equal(t, tt.status, got.Status, "bpm=%d", tt.bpm)
		assert.Equal(t, tt.side, got.Side, "bpm=%d", tt.bpm)
	}
}

// Every value in [NormalLow, NormalHigh] is normal and every value outside
// [CriticalLow, CriticalHigh] is critical.
func TestClassify_BandProperty(t *testing.T) {
	set := thresholds.Default()
	b := set.Bounds(thresholds.MetricHeartRate)
	for v := 0.0; v <= 250; v += 0.5 {
		got := Classify(b, v)
		switch {
		case v >= b.NormalLow && v <= b.NormalHigh:
			assert.Equal(t, models.StatusNormal, got.Status, "v=%v", v)
		case v < b.CriticalLow || v > b.CriticalHigh:
			assert.Equal(t, models.StatusCritical, got.Status, "v=%v", v)
		default:
			assert.Equal(t, models.StatusCaution, got.Status, "v=%v", v)
		}
	}
}

func TestOxygenSaturation(t *testing.T) {
	set := thresholds.Default()

	assert.Equal(t, models.StatusNormal, OxygenSaturation(set, 92).Status)
	assert.Equal(t, models.StatusNormal, OxygenSaturation(set, 100).Status)
	assert.Equal(t, models.StatusCaution, OxygenSaturation(set, 90).Status)
	assert.Equal(t, models.StatusCaution, OxygenSaturation(set, 88).Status)
	assert.Equal(t, models.StatusCritical, OxygenSaturation(set, 85).Status)
	assert.Equal(t, SideLow, OxygenSaturation(set, 85).Side)
}

func TestBloodPressure_CombinedIsWorst(t *testing.T) {
	set := thresholds.Default()
	tests := []struct {
		name     string
		sys, dia int
		want     models.Status
	}{
		{"both normal", 120, 80, models.StatusNormal},
		{"systolic caution", 150, 80, models.StatusCaution},
		{"diastolic caution", 120, 95, models.StatusCaution},
		{"systolic critical diastolic normal", 190, 80, models.StatusCritical},
		{"diastolic critical systolic caution", 150, 125, models.StatusCritical},
		{"low systolic", 85, 60, models.StatusCaution},
		{"critical low systolic", 75, 55, models.StatusCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BloodPressure(set, tt.sys, tt.dia)
			assert.Equal(t, tt.want, got.Combined)
			assert.Equal(t, models.MaxStatus(got.Systolic.Status, got.Diastolic.Status), got.Combined)
		})
	}
}

func TestBloodPressure_LowSide(t *testing.T) {
	set := thresholds.Default()

	status, low := BloodPressure(set, 150, 55).LowSide()
	assert.True(t, low)
	assert.Equal(t, models.StatusCaution, status)

	_, low = BloodPressure(set, 190, 95).LowSide()
	assert.False(t, low)

	status, low = BloodPressure(set, 78, 58).LowSide()
	assert.True(t, low)
	assert.Equal(t, models.StatusCritical, status)
}

func TestMeanArterialPressure(t *testing.T) {
	assert.InDelta(t, 93.33, MeanArterialPressure(120, 80), 0.01)
	assert.InDelta(t, 60.0, MeanArterialPressure(90, 45), 0.01)

	set := thresholds.Default()
	m, res := MAP(set, 84, 54)
	assert.InDelta(t, 64.0, m, 0.01)
	assert.Equal(t, models.StatusCaution, res.Status)

	_, res = MAP(set, 120, 80)
	assert.Equal(t, models.StatusNormal, res.Status)

	_, res = MAP(set, 80, 45)
	assert.Equal(t, models.StatusCritical, res.Status)
}

func TestSide_String(t *testing.T) {
	assert.Equal(t, "low", SideLow.String())
	assert.Equal(t, "high", SideHigh.String())
	assert.Equal(t, "none", SideNone.String())
}
