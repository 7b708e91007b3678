// Command genmock writes a synthetic household energy usage dataset for local
// runs and demos. Output is deterministic for a given seed. The generated file
// is read back through the real loader and aggregates, and their headline
// numbers are printed for updating test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out data/renewable_energy_usage.csv -rows 2000 -seed 42
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/energy-usage-report/internal/adapter/capitals"
	"github.com/couchcryptid/energy-usage-report/internal/adapter/csvfile"
	"github.com/couchcryptid/energy-usage-report/internal/domain"
)

var header = []string{
	"Household_ID", "Country", "Energy_Source", "Monthly_Usage_kWh", "Year",
	"Household_Size", "Income_Level", "Urban_Rural", "Adoption_Year", "Subsidy_Received", "Cost_Savings_USD",
}

// sourceBase is the typical monthly usage in kWh of a single-person household.
var sourceBase = map[domain.EnergySource]float64{
	domain.SourceSolar:      180,
	domain.SourceWind:       220,
	domain.SourceHydro:      260,
	domain.SourceBiomass:    150,
	domain.SourceGeothermal: 300,
}

var incomeLevels = []string{"Low", "Middle", "High"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/renewable_energy_usage.csv", "output CSV path")
	rows := flag.Int("rows", 1000, "number of households to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	missing := flag.Float64("missing", 0.02, "fraction of usage and savings cells left as NA")
	flag.Parse()

	if *rows <= 0 {
		flag.Usage()
		return fmt.Errorf("-rows must be positive")
	}

	countries := capitals.Default().Countries()
	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range *rows {
		if err := w.Write(household(rng, i+1, countries, *missing)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %d households to %s", *rows, *out)

	return printStats(*out)
}

func household(rng *rand.Rand, id int, countries []string, missing float64) []string {
	country := countries[rng.IntN(len(countries))]
	source := domain.EnergySources[rng.IntN(len(domain.EnergySources))]
	year := domain.MinYear + rng.IntN(domain.MaxYear-domain.MinYear+1)
	size := domain.MinHouseholdSize + rng.IntN(domain.MaxHouseholdSize-domain.MinHouseholdSize+1)
	income := rng.IntN(len(incomeLevels))

	usage := sourceBase[source] * (1 + 0.35*float64(size-1)) * (0.8 + 0.4*rng.Float64())
	usage *= 1 + 0.03*float64(year-domain.MinYear)
	savings := usage * (0.08 + 0.1*rng.Float64())

	area := "Urban"
	if rng.IntN(3) == 0 {
		area = "Rural"
	}
	subsidy := "No"
	if rng.IntN(2) == 0 {
		subsidy = "Yes"
	}

	return []string{
		fmt.Sprintf("H%05d", id),
		country,
		source.Label(),
		cell(rng, usage, missing),
		strconv.Itoa(year),
		strconv.Itoa(size),
		incomeLevels[income],
		area,
		strconv.Itoa(year - rng.IntN(6)),
		subsidy,
		cell(rng, savings, missing),
	}
}

func cell(rng *rand.Rand, v, missing float64) string {
	if rng.Float64() < missing {
		return "NA"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
}

// printStats reloads the file through the real loader so the printed numbers
// match what the report will plot.
func printStats(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := csvfile.Parse(context.Background(), f, path, ',')
	if err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Records: %d, countries: %d, latest year: %d\n", table.Len(), len(table.Countries()), table.LatestYear())

	savings, _ := domain.SavingsBySource(table)
	fmt.Println("Mean savings by source:")
	for _, s := range savings {
		fmt.Printf("  %-10s %8.2f (n=%d)\n", s.Source, s.MeanSavings, s.Count)
	}

	intervals, omitted := domain.UsageConfidence(table)
	fmt.Println("Mean usage by household size (95% CI):")
	for _, iv := range intervals {
		fmt.Printf("  size %d: %8.2f [%8.2f, %8.2f] (n=%d)\n", iv.HouseholdSize, iv.MeanUsage, iv.CILower, iv.CIUpper, iv.N)
	}
	for _, o := range omitted {
		fmt.Printf("  omitted: %v\n", o)
	}

	countries, _ := domain.UsageByCountry(table, table.LatestYear())
	fmt.Println("Top countries by total usage in the latest year:")
	for _, c := range countries[:min(5, len(countries))] {
		fmt.Printf("  %-16s %12.2f kWh\n", c.Country, c.TotalUsage)
	}
	return nil
}
