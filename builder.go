package ehi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
)

// BuilderConfig describes the grid a table is built over and the solar
// exposure assumption of the sun condition.
type BuilderConfig struct {
	TempMinC  float64
	TempMaxC  float64
	TempStepC float64
	RhMinPct  float64
	RhMaxPct  float64
	RhStepPct float64

	// Mean radiant temperature assumed for the sun condition, K. Ignored
	// for shade tables.
	Mrt float64

	// Logger for progress and per-point gap reports. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultSunMrt is the effective mean radiant temperature assumed for full
// sun tables, K. It is an effective radiant excess over the ambient field,
// not an air temperature: through qsolar it amounts to roughly 14 W/m2 of
// solar gain on the body.
const DefaultSunMrt = 150.

// DefaultBuilderConfig is the production grid: 20-50 degree C at 0.5 degree
// steps, 0-100 % RH at 5 % steps.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		TempMinC: 20., TempMaxC: 50., TempStepC: 0.5,
		RhMinPct: 0., RhMaxPct: 100., RhStepPct: 5.,
		Mrt: DefaultSunMrt,
	}
}

// BuildReport counts what one table build did. Solver failures are
// per-point gaps: they are counted and reported, never abort the grid.
type BuildReport struct {
	Points  int // grid points attempted
	Stored  int // points solved and stored
	Gaps    int // points the solver could not resolve
	Elapsed time.Duration
}

/*
BuildTable sweeps the full temperature x humidity grid for one (MET level,
sun condition) pair through the physical solver and collects the table
served at runtime.

    Args:
        pc: model constants
        met: MET level 3-6
        sun: shade or sun
        cfg: grid bounds, steps and sun assumption

    Returns:
        the table with its grid metadata, plus the build report

    Notes:
        Each grid point is independent; callers building several tables in
        parallel shard by (met, sun) with no coordination. A failed point is
        logged and skipped: missing cells near regime boundaries are
        expected and the query layer compensates with its nearest-neighbor
        fallback.
*/
func BuildTable(pc *PhysConsts, met MetLevel, sun SunCondition, cfg BuilderConfig) (*LookupTable, BuildReport, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	qmet, ok := met.MetabolicRate()
	if !ok {
		return nil, BuildReport{}, fmt.Errorf("build table: unknown MET level %d", met)
	}

	// Solar heat gain, W/m2
	qs := 0.
	if sun == SunSun {
		qs = pc.qsolar(cfg.Mrt)
	}

	tempAxis := grid_axis(cfg.TempMinC, cfg.TempMaxC, cfg.TempStepC)
	rhAxis := grid_axis(cfg.RhMinPct, cfg.RhMaxPct, cfg.RhStepPct)

	table := &LookupTable{
		Metadata: TableMetadata{
			TempMinC: cfg.TempMinC, TempMaxC: cfg.TempMaxC, TempStepC: cfg.TempStepC,
			RhMinPct: cfg.RhMinPct, RhMaxPct: cfg.RhMaxPct, RhStepPct: cfg.RhStepPct,
		},
		Data: make(map[string]map[string][2]float64, len(tempAxis)),
	}

	start := time.Now()
	report := BuildReport{}

	for _, tempC := range tempAxis {
		row := make(map[string][2]float64, len(rhAxis))

		for _, rhPct := range rhAxis {
			report.Points++

			res, err := ComputeHeatIndex(pc, tempC+273.15, rhPct/100., qmet, qs)
			if err != nil {
				report.Gaps++
				logger.Warn("grid point unresolved",
					"met", int(met), "sun", string(sun),
					"temp_c", tempC, "rh_pct", rhPct, "err", err)
				continue
			}

			// Index temperature, degree C, rounded to one decimal
			ehiC := math.Round((res.Temperature-273.15)*10.) / 10.
			row[strconv.Itoa(int(math.Round(rhPct)))] = [2]float64{ehiC, float64(res.Regime.Zone())}
			report.Stored++

			logger.Debug("grid point", "temp_c", tempC, "rh_pct", rhPct,
				"ehi_c", ehiC, "diag", res.Diagnostics(pc))
		}

		table.Data[format_temp_key(tempC)] = row
	}

	report.Elapsed = time.Since(start)
	return table, report, nil
}

// WriteTableFile persists a built table as the canonical JSON document.
func WriteTableFile(t *LookupTable, path string) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// grid_axis builds the inclusive evenly spaced axis for one grid dimension.
func grid_axis(min, max, step float64) []float64 {
	n := int(math.Round((max-min)/step)) + 1
	if n < 2 {
		return []float64{min}
	}
	return floats.Span(make([]float64, n), min, max)
}
