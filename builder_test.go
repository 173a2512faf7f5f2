package ehi

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet_config(cfg BuilderConfig) BuilderConfig {
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func Test_build_table_moderate_work_in_sun(t *testing.T) {
	pc := NewPhysConsts()

	cfg := quiet_config(BuilderConfig{
		TempMinC: 34., TempMaxC: 36., TempStepC: 0.5,
		RhMinPct: 70., RhMaxPct: 90., RhStepPct: 10.,
		Mrt: DefaultSunMrt,
	})

	table, report, err := BuildTable(pc, 4, SunSun, cfg)
	require.NoError(t, err)
	assert.Equal(t, 15, report.Points)
	assert.Equal(t, 0, report.Gaps, "every cell of this grid must resolve")
	assert.Equal(t, report.Points, report.Stored)
	assert.Equal(t, cfg.TempMinC, table.Metadata.TempMinC)
	assert.Equal(t, cfg.RhStepPct, table.Metadata.RhStepPct)

	// Moderate work in full sun at 35 degree C and 80 % humidity is serious
	// but survivable heat strain.
	ehi, zone := table.Query(35., 80.)
	require.NotNil(t, ehi)
	assert.Contains(t, []int{3, 4, 5}, zone)
	assert.Greater(t, *ehi, 35., "humid heat must read above the air temperature")
}

func Test_build_table_clamp_matches_corner(t *testing.T) {
	pc := NewPhysConsts()

	cfg := quiet_config(BuilderConfig{
		TempMinC: 46., TempMaxC: 50., TempStepC: 2.,
		RhMinPct: 80., RhMaxPct: 100., RhStepPct: 10.,
	})

	table, _, err := BuildTable(pc, 6, SunShade, cfg)
	require.NoError(t, err)

	// Queries beyond the grid serve the corner cell.
	corner, cornerZone := table.Query(50., 100.)
	clamped, clampedZone := table.Query(55., 120.)
	require.NotNil(t, corner)
	require.NotNil(t, clamped)
	assert.Equal(t, *corner, *clamped)
	assert.Equal(t, cornerZone, clampedZone)

	// Very heavy work at 50 degree C and full saturation is the worst cell
	// of the model: the core is warming up.
	assert.Equal(t, 6, cornerZone)
}

func Test_build_table_index_monotone_over_grid(t *testing.T) {
	pc := NewPhysConsts()

	cfg := quiet_config(BuilderConfig{
		TempMinC: 30., TempMaxC: 40., TempStepC: 5.,
		RhMinPct: 40., RhMaxPct: 80., RhStepPct: 20.,
	})

	table, report, err := BuildTable(pc, 3, SunShade, cfg)
	require.NoError(t, err)
	require.Equal(t, 0, report.Gaps, "this mild grid has no regime boundary gaps")

	// Along each humidity column both the index and the zone are
	// non-decreasing with temperature.
	for _, rh := range []float64{40., 60., 80.} {
		prevEhi, prevZone := -1., 0
		for _, tempC := range []float64{30., 35., 40.} {
			ehi, zone := table.Query(tempC, rh)
			require.NotNil(t, ehi, "temp=%f rh=%f", tempC, rh)
			assert.GreaterOrEqual(t, *ehi, prevEhi, "temp=%f rh=%f", tempC, rh)
			assert.GreaterOrEqual(t, zone, prevZone, "temp=%f rh=%f", tempC, rh)
			prevEhi, prevZone = *ehi, zone
		}
	}

	// Along each temperature row both are non-decreasing with humidity.
	for _, tempC := range []float64{30., 35., 40.} {
		prevEhi, prevZone := -1., 0
		for _, rh := range []float64{40., 60., 80.} {
			ehi, zone := table.Query(tempC, rh)
			require.NotNil(t, ehi, "temp=%f rh=%f", tempC, rh)
			assert.GreaterOrEqual(t, *ehi, prevEhi, "temp=%f rh=%f", tempC, rh)
			assert.GreaterOrEqual(t, zone, prevZone, "temp=%f rh=%f", tempC, rh)
			prevEhi, prevZone = *ehi, zone
		}
	}
}

func Test_build_table_rejects_unknown_met(t *testing.T) {
	pc := NewPhysConsts()

	_, _, err := BuildTable(pc, 2, SunShade, quiet_config(DefaultBuilderConfig()))
	require.Error(t, err)
}

func Test_grid_axis(t *testing.T) {
	axis := grid_axis(20., 50., 0.5)
	require.Len(t, axis, 61)
	assert.Equal(t, 20., axis[0])
	assert.Equal(t, 50., axis[60])
	assert.Equal(t, 35., axis[30])

	assert.Equal(t, []float64{10.}, grid_axis(10., 10., 5.))
}

func Test_default_builder_config(t *testing.T) {
	cfg := DefaultBuilderConfig()
	assert.Equal(t, 20., cfg.TempMinC)
	assert.Equal(t, 50., cfg.TempMaxC)
	assert.Equal(t, 0.5, cfg.TempStepC)
	assert.Equal(t, 100., cfg.RhMaxPct)
	assert.Equal(t, 5., cfg.RhStepPct)
	assert.Equal(t, DefaultSunMrt, cfg.Mrt)
}
