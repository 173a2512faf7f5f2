// ehi_recalc re-derives the EHI and zone columns of a logged readings CSV
// through the lookup tables. Useful after a table rebuild, when historical
// rows still carry values from the previous tables.
package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/lmittmann/tint"

	ehi "github.com/IECC-io/ehi-engine"
)

func init() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	))
}

// ReadingRow is one logged observation. Temperature or humidity may be
// absent (sensor drop-outs); such rows keep empty derived columns instead of
// failing the run.
type ReadingRow struct {
	LoggedAt string   `csv:"LOGGED_AT (IST)"`
	District string   `csv:"DISTRICT"`
	State    string   `csv:"STATE"`
	TempC    *float64 `csv:"TEMP"`
	RhPct    *float64 `csv:"RH"`

	Ehi3Shade  string `csv:"EHI_3_shade"`
	Zone3Shade string `csv:"Zone_3_shade"`
	Ehi3Sun    string `csv:"EHI_3_sun"`
	Zone3Sun   string `csv:"Zone_3_sun"`
	Ehi4Shade  string `csv:"EHI_4_shade"`
	Zone4Shade string `csv:"Zone_4_shade"`
	Ehi4Sun    string `csv:"EHI_4_sun"`
	Zone4Sun   string `csv:"Zone_4_sun"`
	Ehi5Shade  string `csv:"EHI_5_shade"`
	Zone5Shade string `csv:"Zone_5_shade"`
	Ehi5Sun    string `csv:"EHI_5_sun"`
	Zone5Sun   string `csv:"Zone_5_sun"`
	Ehi6Shade  string `csv:"EHI_6_shade"`
	Zone6Shade string `csv:"Zone_6_shade"`
	Ehi6Sun    string `csv:"EHI_6_sun"`
	Zone6Sun   string `csv:"Zone_6_sun"`
}

func main() {
	var in_path string
	flag.StringVar(&in_path, "in", "", "input readings CSV")

	var out_path string
	flag.StringVar(&out_path, "out", "", "output CSV (defaults to rewriting the input)")

	var tables_dir string
	flag.StringVar(&tables_dir, "tables", "lookup_tables", "directory holding the lookup table files")

	flag.Parse()

	if in_path == "" {
		slog.Error("missing -in")
		os.Exit(1)
	}
	if out_path == "" {
		out_path = in_path
	}

	lookup, err := ehi.NewEhiLookup(tables_dir)
	if err != nil {
		slog.Error("load lookup tables", "dir", tables_dir, "err", err)
		os.Exit(1)
	}

	in, err := os.Open(in_path)
	if err != nil {
		slog.Error("open input", "path", in_path, "err", err)
		os.Exit(1)
	}

	var rows []*ReadingRow
	if err := gocsv.UnmarshalFile(in, &rows); err != nil {
		in.Close()
		slog.Error("parse input", "path", in_path, "err", err)
		os.Exit(1)
	}
	in.Close()

	slog.Info("recalculating", "path", in_path, "rows", len(rows))
	start := time.Now()

	skipped := 0
	for _, row := range rows {
		if row.TempC == nil || row.RhPct == nil {
			// No result without both inputs: the derived columns stay
			// empty rather than reporting an error.
			skipped++
			clear_derived(row)
			continue
		}

		for _, met := range ehi.MetLevels {
			for _, sun := range ehi.SunConditions {
				ehiVal, zone := lookup.GetEhiZone(*row.TempC, *row.RhPct, met, sun)
				set_derived(row, met, sun, format_ehi(ehiVal), ehi.ZoneLabel(zone))
			}
		}
	}

	out, err := os.Create(out_path)
	if err != nil {
		slog.Error("create output", "path", out_path, "err", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := gocsv.MarshalFile(&rows, out); err != nil {
		slog.Error("write output", "path", out_path, "err", err)
		os.Exit(1)
	}

	slog.Info("done", "rows", len(rows), "skipped", skipped, "elapsed", time.Since(start))
}

func format_ehi(ehiVal *float64) string {
	if ehiVal == nil {
		return ""
	}
	return strconv.FormatFloat(*ehiVal, 'f', 1, 64)
}

// clear_derived empties every derived column of a row with missing inputs.
func clear_derived(row *ReadingRow) {
	for _, met := range ehi.MetLevels {
		for _, sun := range ehi.SunConditions {
			set_derived(row, met, sun, "", "")
		}
	}
}

func set_derived(row *ReadingRow, met ehi.MetLevel, sun ehi.SunCondition, ehiStr, zoneStr string) {
	shade := sun == ehi.SunShade
	switch met {
	case 3:
		if shade {
			row.Ehi3Shade, row.Zone3Shade = ehiStr, zoneStr
		} else {
			row.Ehi3Sun, row.Zone3Sun = ehiStr, zoneStr
		}
	case 4:
		if shade {
			row.Ehi4Shade, row.Zone4Shade = ehiStr, zoneStr
		} else {
			row.Ehi4Sun, row.Zone4Sun = ehiStr, zoneStr
		}
	case 5:
		if shade {
			row.Ehi5Shade, row.Zone5Shade = ehiStr, zoneStr
		} else {
			row.Ehi5Sun, row.Zone5Sun = ehiStr, zoneStr
		}
	case 6:
		if shade {
			row.Ehi6Shade, row.Zone6Shade = ehiStr, zoneStr
		} else {
			row.Ehi6Sun, row.Zone6Sun = ehiStr, zoneStr
		}
	}
}
