package ehi

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// make_test_table fills the full production grid shape with a synthetic
// pattern so query arithmetic is checked independently of the solver.
func make_test_table() *LookupTable {
	t := &LookupTable{
		Metadata: TableMetadata{
			TempMinC: 20., TempMaxC: 50., TempStepC: 0.5,
			RhMinPct: 0., RhMaxPct: 100., RhStepPct: 5.,
		},
		Data: make(map[string]map[string][2]float64),
	}

	for _, tempC := range grid_axis(20., 50., 0.5) {
		row := make(map[string][2]float64)
		for _, rhPct := range grid_axis(0., 100., 5.) {
			// Distinct recognizable leaf per cell
			row[strconv.Itoa(int(math.Round(rhPct)))] = [2]float64{tempC + rhPct/100., 4.}
		}
		t.Data[format_temp_key(tempC)] = row
	}

	return t
}

func Test_query_exact_grid_point(t *testing.T) {
	table := make_test_table()

	ehi, zone := table.Query(35., 80.)
	require.NotNil(t, ehi)
	assert.InDelta(t, 35.8, *ehi, 1e-9)
	assert.Equal(t, 4, zone)
}

func Test_query_snaps_to_nearest_step(t *testing.T) {
	table := make_test_table()

	// 35.2 snaps down to 35.0, 78 snaps up to 80.
	ehi, zone := table.Query(35.2, 78.)
	require.NotNil(t, ehi)
	assert.InDelta(t, 35.8, *ehi, 1e-9)
	assert.Equal(t, 4, zone)

	// 35.3 snaps up to 35.5.
	ehi, _ = table.Query(35.3, 80.)
	require.NotNil(t, ehi)
	assert.InDelta(t, 36.3, *ehi, 1e-9)
}

func Test_query_clamps_out_of_range(t *testing.T) {
	table := make_test_table()

	// Above both bounds: served from the (50.0, 100) corner cell.
	ehi, zone := table.Query(51., 105.)
	require.NotNil(t, ehi)
	assert.Equal(t, 51., *ehi)
	assert.Equal(t, 4, zone)

	// Below both bounds: the (20.0, 0) corner.
	ehi, _ = table.Query(12., -3.)
	require.NotNil(t, ehi)
	assert.Equal(t, 20., *ehi)
}

func Test_query_idempotent(t *testing.T) {
	table := make_test_table()

	first, zone1 := table.Query(33.7, 62.)
	second, zone2 := table.Query(33.7, 62.)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Equal(t, zone1, zone2)
}

func Test_query_gap_falls_back_to_neighbor(t *testing.T) {
	table := make_test_table()

	// Punch a hole at (35.0, 80): the fallback walks outward over 1 %
	// offsets and lands on the 75 cell at offset 5.
	delete(table.Data["35.0"], "80")

	ehi, zone := table.Query(35., 80.)
	require.NotNil(t, ehi)
	assert.Equal(t, 35.75, *ehi)
	assert.Equal(t, 4, zone)
}

func Test_query_gap_exhausted_is_soft(t *testing.T) {
	table := make_test_table()

	// Empty the whole row: no humidity offset within +-9 can recover.
	table.Data["35.0"] = map[string][2]float64{}

	ehi, zone := table.Query(35., 80.)
	assert.Nil(t, ehi)
	assert.Equal(t, 0, zone)
}

func Test_query_missing_row_is_soft(t *testing.T) {
	table := make_test_table()
	delete(table.Data, "35.0")

	ehi, zone := table.Query(35., 80.)
	assert.Nil(t, ehi)
	assert.Equal(t, 0, zone)
}

func Test_lookup_get_ehi_zone(t *testing.T) {
	lookup := NewEhiLookupFromTables(map[string]*LookupTable{
		table_key(4, SunShade): make_test_table(),
	})

	ehi, zone := lookup.GetEhiZone(35., 80., 4, SunShade)
	require.NotNil(t, ehi)
	assert.InDelta(t, 35.8, *ehi, 1e-9)
	assert.Equal(t, 4, zone)

	// Unloaded table: soft result, never a panic.
	ehi, zone = lookup.GetEhiZone(35., 80., 5, SunSun)
	assert.Nil(t, ehi)
	assert.Equal(t, 0, zone)
}

func Test_new_ehi_lookup_missing_tables(t *testing.T) {
	_, err := NewEhiLookup(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func Test_load_table_rejects_bad_metadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"metadata":{"temp_min_c":50,"temp_max_c":20,"temp_step_c":0.5,"rh_min_pct":0,"rh_max_pct":100,"rh_step_pct":5},"data":{"20.0":{"0":[20,1]}}}`),
		0644))

	_, err := load_table(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func Test_load_table_rejects_empty_data(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"metadata":{"temp_min_c":20,"temp_max_c":50,"temp_step_c":0.5,"rh_min_pct":0,"rh_max_pct":100,"rh_step_pct":5},"data":{}}`),
		0644))

	_, err := load_table(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func Test_table_round_trips_through_file(t *testing.T) {
	table := make_test_table()
	path := filepath.Join(t.TempDir(), TableFileName(4, SunShade))

	require.NoError(t, WriteTableFile(table, path))

	loaded, err := load_table(path)
	require.NoError(t, err)
	assert.Equal(t, table.Metadata, loaded.Metadata)

	ehi, zone := loaded.Query(35., 80.)
	require.NotNil(t, ehi)
	assert.InDelta(t, 35.8, *ehi, 1e-9)
	assert.Equal(t, 4, zone)
}

func Test_table_file_name(t *testing.T) {
	assert.Equal(t, "ehi_met4_sun.json", TableFileName(4, SunSun))
	assert.Equal(t, "ehi_met6_shade.json", TableFileName(6, SunShade))
}

func Test_met_level_rates(t *testing.T) {
	for _, met := range MetLevels {
		q, ok := met.MetabolicRate()
		require.True(t, ok)
		assert.Equal(t, float64(met)*60., q)
	}

	_, ok := MetLevel(2).MetabolicRate()
	assert.False(t, ok)
}
