// Package domain models geotagged threat events and the proximity risk engine
// that turns them into a per-location risk posture.
//
// # Threat Records
//
// A threat is a single observed hazard: a fine-grained type (EARTHQUAKE, RIOT,
// GAS_LEAK, ...), a severity, a point, and display text. Records arrive already
// normalized from upstream feeds; the USGS seismic feed is normalized here by
// [NormalizeQuake]:
//
//	Magnitude:  ≥7 CRITICAL | ≥6 HIGH | ≥5 MEDIUM | <5 LOW
//	Radius:     max(25, magnitude × 20) km (display only)
//
// # Evaluation
//
// [Evaluate] composes the engine for one monitored location:
//
//	threats ──► Nearby (haversine, inclusive radius)
//	              ├──► StatusByCategory (worst severity per tracked category)
//	              └──► RiskScore (base by worst severity + density bonus)
//	                      └──► ScoreLabel (80 / 50 / 25 bands)
//
// Every step is a pure function over its inputs. Nothing in this package reads
// the clock except feed normalization and the seed data, which use the
// package-level [SetClock] source.
//
// # Scoring
//
//	Base:     CRITICAL 75 | HIGH 50 | MEDIUM 25 | LOW 10 (worst nearby threat)
//	Density:  min(count × 5, 25)
//	Score:    min(base + density, 100), 0 when nothing is nearby
//	Label:    ≥80 CRITICAL | ≥50 HIGH | ≥25 ELEVATED | NORMAL
//
// A lone CRITICAL threat scores 75 + 5 = 80 and therefore lands in the CRITICAL
// band. The label thresholds are coupled to the density floor of 5: if density
// could ever be zero for a non-empty set, a lone CRITICAL would read HIGH.
//
// # Categories
//
// [CategoryOf] maps every [ThreatType] onto one of eight display categories or
// OTHER. OTHER threats count toward the score but never appear in the category
// status map. The settings families returned by [ThreatFamilies] are a separate
// grouping and must not be used for classification.
package domain
