package domain

// LatestPerSensor reduces a window of readings to the single most recent
// reading per sensor ID. Input readings are assumed to already be scoped
// to one business and one time window; ordering of the result is
// unspecified and callers must not depend on it.
//
// If two readings for the same sensor share the identical maximum
// timestamp, the one encountered first is kept. The upstream generator
// writes at most one reading per sensor per day, so the tie does not occur
// in practice.
func LatestPerSensor(readings []SensorReading) []SensorReading {
	latest := make(map[string]SensorReading, len(readings))
	order := make([]string, 0, len(readings))

	for _, r := range readings {
		current, seen := latest[r.SensorID]
		if !seen {
			latest[r.SensorID] = r
			order = append(order, r.SensorID)
			continue
		}
		if r.Timestamp.After(current.Timestamp) {
			latest[r.SensorID] = r
		}
	}

	out := make([]SensorReading, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}
