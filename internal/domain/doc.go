// Package domain models sensor-derived business compliance for insurer
// consumption.
//
// # Data Source
//
// Sensor readings are written once daily by an external generation job into
// shared storage; this package never fabricates readings. Each reading
// carries a severity status assigned by the generator from the measured
// value's position relative to the sensor type's operating range.
//
// # Scoring Conventions
//
// Severity weighting:
//
//	normal = 100, warning = 50, critical = 0.
//	A category score is the plain average of its sensors' weights.
//
// Category mapping (fixed, part of the API contract):
//
//	temperature_control   <- Temperature sensors
//	equipment_maintenance <- Power sensors
//	inventory_management  <- Humidity sensors
//	safety_protocols      <- recommendation follow-through percentage
//
// Active-category rule:
//
//	A category with no input at all (no sensors of its type; no tracked
//	recommendations) reports 0 and is omitted from the overall average.
//	A category whose sensors are present but all critical reports 0 and
//	IS averaged in. Absence is not a penalty; failure is.
//
// Truncation:
//
//	Every fractional percentage is floored to an integer, both per
//	category and for the overall score. 3 of 4 recommendations is 75,
//	and (100+50)/2 Temperature sensors is 75, exactly.
//
// Rank labels map the overall score to Excellent (>=90), Good (>=75),
// Fair (>=60), or Needs Improvement, with a No Data short-circuit when a
// business has neither sensors nor recommendations. Risk tiers bucket the
// same score for portfolio views as Low/Medium/High/Critical.
//
// Everything in this package is pure: same inputs, same outputs,
// bit-for-bit. The only time dependency is the injectable package clock,
// used for trend dates. See [Score], [LatestPerSensor], [SynthesizeTrend].
package domain
