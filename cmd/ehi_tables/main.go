// ehi_tables builds the precomputed EHI lookup tables, one JSON file per
// (MET level, sun condition) pair. Run offline; the runtime only ever reads
// the output.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

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

func main() {
	var output_dir string
	flag.StringVar(&output_dir, "o", "lookup_tables", "output directory for the table files")

	var temp_min, temp_max, temp_step float64
	flag.Float64Var(&temp_min, "temp_min", 20., "grid temperature lower bound, degree C")
	flag.Float64Var(&temp_max, "temp_max", 50., "grid temperature upper bound, degree C")
	flag.Float64Var(&temp_step, "temp_step", 0.5, "grid temperature step, degree C")

	var rh_min, rh_max, rh_step float64
	flag.Float64Var(&rh_min, "rh_min", 0., "grid relative humidity lower bound, %")
	flag.Float64Var(&rh_max, "rh_max", 100., "grid relative humidity upper bound, %")
	flag.Float64Var(&rh_step, "rh_step", 5., "grid relative humidity step, %")

	var mrt float64
	flag.Float64Var(&mrt, "mrt", ehi.DefaultSunMrt, "effective mean radiant temperature assumed for sun tables, K")

	var met_list string
	flag.StringVar(&met_list, "met", "3,4,5,6", "MET levels to build, comma separated")

	var sun_list string
	flag.StringVar(&sun_list, "sun", "shade,sun", "sun conditions to build, comma separated")

	var verbose bool
	flag.BoolVar(&verbose, "v", false, "log every grid point")

	flag.Parse()

	if verbose {
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      slog.LevelDebug,
				TimeFormat: "15:04:05",
			}),
		))
	}

	mets, err := parse_met_levels(met_list)
	if err != nil {
		slog.Error("bad -met", "err", err)
		os.Exit(1)
	}

	suns, err := parse_sun_conditions(sun_list)
	if err != nil {
		slog.Error("bad -sun", "err", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(output_dir, 0755); err != nil {
		slog.Error("create output directory", "dir", output_dir, "err", err)
		os.Exit(1)
	}

	cfg := ehi.BuilderConfig{
		TempMinC: temp_min, TempMaxC: temp_max, TempStepC: temp_step,
		RhMinPct: rh_min, RhMaxPct: rh_max, RhStepPct: rh_step,
		Mrt: mrt,
	}

	pc := ehi.NewPhysConsts()

	start := time.Now()
	failed := false

	for _, met := range mets {
		for _, sun := range suns {
			slog.Info("building table", "met", int(met), "sun", string(sun))

			table, report, err := ehi.BuildTable(pc, met, sun, cfg)
			if err != nil {
				slog.Error("build failed", "met", int(met), "sun", string(sun), "err", err)
				failed = true
				continue
			}

			path := filepath.Join(output_dir, ehi.TableFileName(met, sun))
			if err := ehi.WriteTableFile(table, path); err != nil {
				slog.Error("write failed", "path", path, "err", err)
				failed = true
				continue
			}

			slog.Info("table written", "path", path,
				"points", report.Points, "stored", report.Stored,
				"gaps", report.Gaps, "elapsed", report.Elapsed)
		}
	}

	slog.Info("done", "elapsed", time.Since(start))
	if failed {
		os.Exit(1)
	}
}

func parse_met_levels(s string) ([]ehi.MetLevel, error) {
	var mets []ehi.MetLevel
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		met := ehi.MetLevel(n)
		if _, ok := met.MetabolicRate(); !ok {
			return nil, fmt.Errorf("unknown MET level %d", n)
		}
		mets = append(mets, met)
	}
	return mets, nil
}

func parse_sun_conditions(s string) ([]ehi.SunCondition, error) {
	var suns []ehi.SunCondition
	for _, part := range strings.Split(s, ",") {
		switch sun := ehi.SunCondition(strings.TrimSpace(part)); sun {
		case ehi.SunShade, ehi.SunSun:
			suns = append(suns, sun)
		default:
			return nil, fmt.Errorf("unknown sun condition %q", part)
		}
	}
	return suns, nil
}
