package ehi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// ErrConfiguration marks a missing or malformed lookup table at load time.
// It is fatal at startup: the lookup never operates on a partial table set.
var ErrConfiguration = errors.New("lookup tables: configuration error")

// SunCondition selects the solar exposure a table was built for.
type SunCondition string

const (
	SunShade SunCondition = "shade"
	SunSun   SunCondition = "sun"
)

// MetLevel is the metabolic workload classification, light (3) to very
// heavy (6) work.
type MetLevel int

// Metabolic heat rates per MET level, W/m2.
var met_rates = map[MetLevel]float64{
	3: 180., // light work
	4: 240., // moderate work
	5: 300., // heavy work
	6: 360., // very heavy work
}

// MetLevels lists the levels tables are built and loaded for.
var MetLevels = []MetLevel{3, 4, 5, 6}

// SunConditions lists the exposure conditions tables are built and loaded
// for.
var SunConditions = []SunCondition{SunShade, SunSun}

// MetabolicRate returns the metabolic heat rate of the level, W/m2.
func (m MetLevel) MetabolicRate() (float64, bool) {
	q, ok := met_rates[m]
	return q, ok
}

// TableMetadata records the grid bounds and step sizes a table was built
// with. Queries clamp and snap against these, never against fixed constants.
type TableMetadata struct {
	TempMinC  float64 `json:"temp_min_c"`
	TempMaxC  float64 `json:"temp_max_c"`
	TempStepC float64 `json:"temp_step_c"`
	RhMinPct  float64 `json:"rh_min_pct"`
	RhMaxPct  float64 `json:"rh_max_pct"`
	RhStepPct float64 `json:"rh_step_pct"`
}

/*
LookupTable is one precomputed EHI table for a (MET level, sun condition)
pair.

    Data is keyed by the decimal-formatted temperature ("35.0") and then the
    integer humidity ("80"); each leaf is the [ehi, zone] pair. The table is
    built once offline, loaded read-only at process start and safe for
    unsynchronized concurrent reads.
*/
type LookupTable struct {
	Metadata TableMetadata                    `json:"metadata"`
	Data     map[string]map[string][2]float64 `json:"data"`
}

// TableFileName is the canonical file name of the table for a (MET level,
// sun condition) pair.
func TableFileName(met MetLevel, sun SunCondition) string {
	return fmt.Sprintf("ehi_met%d_%s.json", met, sun)
}

func table_key(met MetLevel, sun SunCondition) string {
	return fmt.Sprintf("met%d_%s", met, sun)
}

/*
Loads and validates one table file.

    Returns:
        the parsed table, or ErrConfiguration when the file is missing,
        malformed, or carries unusable grid metadata.
*/
func load_table(path string) (*LookupTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	defer file.Close()

	var t LookupTable
	if err := json.NewDecoder(file).Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %s", ErrConfiguration, path, err)
	}

	md := t.Metadata
	if md.TempStepC <= 0. || md.RhStepPct <= 0. || md.TempMaxC < md.TempMinC || md.RhMaxPct < md.RhMinPct {
		return nil, fmt.Errorf("%w: %s: bad grid metadata %+v", ErrConfiguration, path, md)
	}
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty data", ErrConfiguration, path)
	}

	return &t, nil
}

// EhiLookup serves precomputed (EHI, zone) pairs for every (MET level, sun
// condition) table. All runtime callers consume the engine through this
// type; the physical solver is never run per request.
type EhiLookup struct {
	tables map[string]*LookupTable
}

/*
NewEhiLookup loads every table from tablesDir.

    Args:
        tablesDir: directory holding the ehi_met{N}_{sun}.json files

    Returns:
        the lookup, or ErrConfiguration when any of the eight tables is
        missing or malformed. Loading is the only I/O of the engine and
        happens exactly once; the result is immutable afterwards.
*/
func NewEhiLookup(tablesDir string) (*EhiLookup, error) {
	tables := make(map[string]*LookupTable)

	for _, met := range MetLevels {
		for _, sun := range SunConditions {
			t, err := load_table(filepath.Join(tablesDir, TableFileName(met, sun)))
			if err != nil {
				return nil, err
			}
			tables[table_key(met, sun)] = t
		}
	}

	return &EhiLookup{tables: tables}, nil
}

// NewEhiLookupFromTables builds a lookup from already constructed tables,
// for builders and tests that never touch the filesystem.
func NewEhiLookupFromTables(tables map[string]*LookupTable) *EhiLookup {
	return &EhiLookup{tables: tables}
}

/*
GetEhiZone is the runtime entry point: the precomputed (EHI, zone) pair for
the query conditions.

    Args:
        tempC: air temperature, degree C
        rhPercent: relative humidity, %
        met: MET level 3-6
        sun: shade or sun

    Returns:
        (1) EHI, degree C; nil when no grid cell could be found
        (2) zone 1-6, or 0 with a nil EHI for the soft gap result

    Notes:
        The query clamps to the table bounds, snaps to the nearest grid step
        of each axis and reads the exact key. A data gap falls back to
        half-step temperature rounding and an outward humidity search. All
        failures are soft: batch callers must keep processing.
*/
func (l *EhiLookup) GetEhiZone(tempC, rhPercent float64, met MetLevel, sun SunCondition) (*float64, int) {
	t, ok := l.tables[table_key(met, sun)]
	if !ok {
		return nil, 0
	}
	return t.Query(tempC, rhPercent)
}

// Query resolves one (temperature, humidity) point against this table. Same
// semantics as GetEhiZone.
func (t *LookupTable) Query(tempC, rhPercent float64) (*float64, int) {
	md := t.Metadata

	// Clamp to the recorded bounds
	tempC = math.Max(md.TempMinC, math.Min(md.TempMaxC, tempC))
	rhPercent = math.Max(md.RhMinPct, math.Min(md.RhMaxPct, rhPercent))

	// Snap to the nearest grid step of each axis
	tempRounded := math.Round(tempC/md.TempStepC) * md.TempStepC
	rhRounded := math.Round(rhPercent/md.RhStepPct) * md.RhStepPct

	tempKey := format_temp_key(tempRounded)
	rhKey := strconv.Itoa(int(math.Round(rhRounded)))

	if row, ok := t.Data[tempKey]; ok {
		if leaf, ok := row[rhKey]; ok {
			ehi := leaf[0]
			return &ehi, int(leaf[1])
		}
	}

	return t.find_nearest(tempC, rhPercent)
}

/*
Nearest-neighbor fallback for a data gap.

    Re-rounds the temperature to the nearest half step and searches outward
    over humidity offsets up to +-9 steps of 1 %. Gaps are expected near the
    boundary regimes of the grid, so exhaustion yields the soft (nil, 0)
    result rather than an error.
*/
func (t *LookupTable) find_nearest(tempC, rhPercent float64) (*float64, int) {
	tempKey := format_temp_key(math.Round(tempC*2.) / 2.)
	rhBase := int(math.Round(rhPercent))

	row, ok := t.Data[tempKey]
	if !ok {
		return nil, 0
	}

	if leaf, ok := row[strconv.Itoa(rhBase)]; ok {
		ehi := leaf[0]
		return &ehi, int(leaf[1])
	}

	for offset := 1; offset < 10; offset++ {
		for _, rhTry := range []int{rhBase - offset, rhBase + offset} {
			if leaf, ok := row[strconv.Itoa(rhTry)]; ok {
				ehi := leaf[0]
				return &ehi, int(leaf[1])
			}
		}
	}

	return nil, 0
}

// format_temp_key renders the canonical one-decimal temperature key.
func format_temp_key(tempC float64) string {
	return strconv.FormatFloat(tempC, 'f', 1, 64)
}
