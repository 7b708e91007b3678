// Command validate performs data integrity checks on a usage dataset before it
// is handed to the report: schema, value coverage, capitals reference
// coverage, and aggregate sanity. It exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data data/renewable_energy_usage.csv \
//	  -capitals data/capitals.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/energy-usage-report/internal/adapter/capitals"
	"github.com/couchcryptid/energy-usage-report/internal/adapter/csvfile"
	"github.com/couchcryptid/energy-usage-report/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "", "path to the usage CSV")
	capitalsPath := flag.String("capitals", "", "path to a capitals CSV (default: embedded reference)")
	maxMissing := flag.Float64("max-missing", 0.1, "largest tolerated fraction of missing usage or savings cells")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataPath, *capitalsPath, *maxMissing); code != 0 {
		os.Exit(code)
	}
}

func run(dataPath, capitalsPath string, maxMissing float64) int {
	fmt.Println("=== Energy Usage Data Validation ===")
	fmt.Println()

	// ── Load data sources ──
	table, err := csvfile.NewLoader(dataPath, nil).Load(context.Background())
	if err != nil {
		var le *domain.LoadError
		if errors.As(err, &le) {
			fmt.Fprintf(os.Stderr, "FATAL: schema: %v\n", le)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		}
		return 1
	}

	reference := capitals.Default()
	if capitalsPath != "" {
		reference, err = capitals.LoadFile(capitalsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load capitals: %v\n", err)
			return 1
		}
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateCoverage(table, maxMissing),
		validateReferenceCoverage(table, reference),
		validateReferenceDuplicates(reference),
		validateAggregates(table),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d dataset rows, %d countries, %d capitals\n",
		table.Len(), len(table.Countries()), reference.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Value Coverage ──
// Every energy source and year is represented, and missing cells stay rare.

func validateCoverage(t domain.Table, maxMissing float64) *phase {
	p := &phase{name: "Phase 1: Value Coverage"}
	if t.Len() == 0 {
		p.errorf("dataset has a header but no rows")
		return p
	}

	sources := map[domain.EnergySource]int{}
	years := map[int]int{}
	var missingUsage, missingSavings int
	for _, r := range t.Records() {
		sources[r.Source]++
		years[r.Year]++
		if !r.UsageKWh.Valid {
			missingUsage++
		}
		if !r.SavingsUSD.Valid {
			missingSavings++
		}
	}

	for _, s := range domain.EnergySources {
		if sources[s] == 0 {
			p.errorf("energy source %s has no rows", s)
		}
	}
	for y := domain.MinYear; y <= domain.MaxYear; y++ {
		if years[y] == 0 {
			p.errorf("year %d has no rows", y)
		}
	}
	checkMissing(p, domain.ColumnUsage, missingUsage, t.Len(), maxMissing)
	checkMissing(p, domain.ColumnSavings, missingSavings, t.Len(), maxMissing)
	return p
}

func checkMissing(p *phase, column string, missing, total int, limit float64) {
	if frac := float64(missing) / float64(total); frac > limit {
		p.errorf("%s: %d of %d cells missing (%.1f%% > %.1f%%)", column, missing, total, 100*frac, 100*limit)
	}
}

// ── Phase 2: Reference Coverage ──
// Every country in the dataset can be placed on the map.

func validateReferenceCoverage(t domain.Table, ref *capitals.Reference) *phase {
	p := &phase{name: "Phase 2: Capitals Reference Coverage"}
	for _, c := range t.Countries() {
		if _, ok := ref.Lookup(c); !ok {
			p.errorf("country %q has no capital entry and will be dropped from the map", c)
		}
	}
	return p
}

// ── Phase 3: Reference Duplicates ──

func validateReferenceDuplicates(ref *capitals.Reference) *phase {
	p := &phase{name: "Phase 3: Capitals Reference Duplicates"}
	for _, d := range ref.Duplicates() {
		kept, _ := ref.Lookup(d.Country)
		p.errorf("country %q listed more than once: kept %s, ignored %s", d.Country, kept.Name, d.Name)
	}
	return p
}

// ── Phase 4: Aggregate Sanity ──
// Runs the report aggregates and checks their invariants.

func validateAggregates(t domain.Table) *phase {
	p := &phase{name: "Phase 4: Aggregate Sanity"}

	savings, _ := domain.SavingsBySource(t)
	for i := 1; i < len(savings); i++ {
		if savings[i].MeanSavings > savings[i-1].MeanSavings {
			p.errorf("savings by source not descending at %s", savings[i].Source)
		}
	}

	intervals, _ := domain.UsageConfidence(t)
	for _, iv := range intervals {
		if iv.N < 2 {
			p.errorf("household size %d: interval from %d values", iv.HouseholdSize, iv.N)
		}
		if iv.CILower > iv.MeanUsage || iv.MeanUsage > iv.CIUpper {
			p.errorf("household size %d: mean %.2f outside [%.2f, %.2f]", iv.HouseholdSize, iv.MeanUsage, iv.CILower, iv.CIUpper)
		}
	}

	countries, _ := domain.UsageByCountry(t, 0)
	var total float64
	for _, c := range countries {
		total += c.TotalUsage
	}
	all, err := domain.Aggregate(t, domain.Query{Measure: domain.ColumnUsageKWh})
	if err != nil {
		p.errorf("aggregate all rows: %v", err)
	} else if len(all) == 1 && !closeTo(all[0].Sum, total) {
		p.errorf("country totals sum to %.2f, dataset total is %.2f", total, all[0].Sum)
	}
	return p
}

func closeTo(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-6*max(1, a, b)
}
