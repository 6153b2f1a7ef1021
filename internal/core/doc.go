// Package core provides the emissions pipeline: it turns irregular
// delimited text into per-country aggregates and derives the numeric series
// charts are drawn from.
//
// This package is independent of any UI, storage or transport layer. It can
// be used by the web server, the CLI, or tests without modification.
//
// # Pipeline
//
// Data flows through the following stages, leaves first:
//
//  1. [FindDelimiter] / [UnifyDelimiter]: pick the dominant delimiter of a raw
//     line (tab, comma, space, hyphen; first wins on ties) and turn it into tabs.
//  2. [NormalizeRecord]: rebuild the five-field layout, joining multi-token
//     country names and repairing decimal commas.
//  3. [BuildContinentIndex] / [Annotate]: insert the comma-joined continents
//     of each ISO code after the name.
//  4. [Registry]: merge annotated records into one [Country] per ISO code.
//  5. [TopN], [TotalCO2PerCapitaByYear], [TotalHistoricalCO2] and the chart
//     helpers in series.go: derive rankings and continent totals.
//
// [LoadDataset] runs every stage over files; [CleanFile], [FinalCleanFile]
// and [AddContinentsFile] run single stages file to file.
//
// # Missing data
//
// Missing numbers are never errors. Text fields are empty, point lookups
// return 0.0, and per-capita lookups return ok=false. Because 0.0 doubles as
// "no data", per-capita results treat a zero emission or population as
// missing.
//
// # Year tracking
//
// Each [Registry] owns a [YearRange] that records the earliest and latest
// year seen. [TrackFaithful] keeps the historical rule where a year that
// lowers the minimum is never considered for the maximum; [TrackCorrected]
// checks both bounds.
//
// # Error Handling
//
// Errors wrap the sentinels in errors.go and are mapped to user-facing
// messages with [MapError]:
//
//   - PARSE001-PARSE002: delimiter and record layout errors
//   - ISO001: invalid ISO codes
//   - FILE001: unreadable input tables
//   - DATA001, REQ001: unknown countries and invalid requests
package core
