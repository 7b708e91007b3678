// Package domain models the household renewable-energy usage dataset and the
// descriptive aggregates derived from it.
//
// # Data Source
//
// Each row of the input table describes one household-month: the household's
// country, its primary renewable energy source, the reporting year, the number
// of people in the household, the energy used that month and the cost savings
// attributed to the renewable source.
//
//	Country,Energy_Source,Year,Household_Size,Monthly_Usage_kWh,Cost_Savings_USD
//	Germany,Solar,2024,3,412.55,61.20
//
// # Conventions
//
// Energy sources:
//
//	One of solar, wind, hydro, biomass, geothermal. Parsed case-insensitively
//	and stored lower-case. See [ParseEnergySource].
//
// Ranges:
//
//	Year 2020-2024, household size 1-8, monthly usage >= 0. Savings may be
//	negative (a month in which the renewable source cost more than the grid).
//
// Missing values:
//
//	Blank measure cells and the sentinels NA, N/A, NaN and null are treated
//	as missing. Missing measures are excluded from reductions and from the
//	non-missing count n. Dimension cells are never optional.
//
// # Aggregation
//
// Every chart is computed from the same read-only [Table]. Groups appear in
// first-seen order and all sorts are stable, so ties keep input order and two
// runs over identical input produce identical rows.
//
// Confidence intervals use the normal approximation
//
//	mean ± 1.96 * sd / sqrt(n)
//
// for every group size, with the sample standard deviation (n-1 divisor).
// Groups with n < 2 have no interval and are omitted. See [ConfidenceInterval95].
package domain
