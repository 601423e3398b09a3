// Package domain models the tabular and geographic data behind the Georgia
// public-health and income dashboard, and the pure functions that turn them
// into a painted map: key normalization, CSV parsing, joining, color scales
// and linear regression.
//
// # Data Sources
//
// County statistics arrive as CSV exports from public-health and census
// portals. Header names differ per export ("County,Hypertension Rate",
// "County,FIPS,Value (Dollars)", "Survey Period ,All,Men ,Women"), and some
// exports carry one or more title lines before the real header:
//
//	"Data table for Figure 4. Age-adjusted trend in hypertension ...",,,
//	,Percent (standard error),,
//	Survey Period ,All,Men ,Women
//	1999-2000,47.0 (1.4),51.7 (1.8),42.0 (1.5)
//
// Each dataset therefore declares a [Schema] naming its key and value
// columns; [ParseTable] finds the header row by matching those names.
//
// Value cells may be currency with thousands separators inside quotes
// ("$90,337"), percentages ("38.2%"), or an estimate followed by its
// standard error ("47.0 (1.4)"). Only the leading estimate is kept.
//
// County boundaries come from a national GeoJSON feature collection keyed
// by five-digit county FIPS codes. The first two digits are the state code
// ("13" for Georgia), so a state is selected by prefix.
//
// # Join Keys
//
// County names are matched through [NormalizeName], which lower-cases and
// drops a trailing "County" so "Randolph County", "randolph" and
// "RANDOLPH COUNTY" meet on "randolph". [NormalizeStrict] additionally folds
// accents and removes punctuation and spaces ("De Kalb" and "DeKalb" both
// become "dekalb") and is tried only when the loose key misses.
// FIPS-keyed datasets are matched through [NormalizeFIPS].
//
// # Missing Data
//
// A county without a matching row is still drawn, in a neutral "no data"
// fill. An empty matched set falls back to a configured color domain and the
// resulting [ColorScale] is flagged so renderers can say no data informed it.
package domain
