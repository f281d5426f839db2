package domain

// statusWeights maps a reading's severity status to the points it
// contributes: normal counts in full, warning half, critical nothing.
// Unrecognized statuses contribute nothing.
var statusWeights = map[string]int{
	StatusNormal:   100,
	StatusWarning:  50,
	StatusCritical: 0,
}

// sensorHealth returns the severity-weighted health for sensors of the
// given type as a 0-100 average, and whether any such sensor is present.
func sensorHealth(sensors []SensorReading, sensorType string) (float64, bool) {
	var points, count int
	for _, s := range sensors {
		if s.SensorType != sensorType {
			continue
		}
		points += statusWeights[s.Status]
		count++
	}
	if count == 0 {
		return 0, false
	}
	return float64(points) / float64(count), true
}

// Score computes a business's compliance from a deduplicated sensor
// snapshot and its recommendation-tracking counts. Pure and deterministic:
// no I/O, never fails, degrades to zeros on missing input.
//
// Each category maps to one input dimension:
//
//	temperature_control   severity-weighted average of Temperature sensors
//	equipment_maintenance severity-weighted average of Power sensors
//	inventory_management  severity-weighted average of Humidity sensors
//	safety_protocols      percentage of recommendations implemented
//
// A category is active when its input is present at all (at least one
// sensor of the type, or at least one tracked recommendation). The overall
// score is the mean of active category scores only, so a missing sensor
// type is omitted rather than averaged in as zero — but a present sensor
// in critical state contributes its zero. Fractional percentages truncate
// toward zero at every step.
func Score(sensors []SensorReading, recommendationsFollowed, recommendationsTotal int) ComplianceResult {
	if len(sensors) == 0 && recommendationsTotal == 0 {
		return ComplianceResult{
			OverallScore: 0,
			CategoryScores: map[string]int{
				CategoryTemperatureControl:   0,
				CategoryEquipmentMaintenance: 0,
				CategoryInventoryManagement:  0,
				CategorySafetyProtocols:      0,
			},
			Rank: RankNoData,
		}
	}

	tempScore, tempPresent := sensorHealth(sensors, SensorTemperature)
	powerScore, powerPresent := sensorHealth(sensors, SensorPower)
	humidityScore, humidityPresent := sensorHealth(sensors, SensorHumidity)

	var recommendationScore float64
	recommendationsPresent := recommendationsTotal > 0
	if recommendationsPresent {
		recommendationScore = float64(recommendationsFollowed) / float64(recommendationsTotal) * 100
	}

	categories := map[string]int{
		CategoryTemperatureControl:   int(tempScore),
		CategoryEquipmentMaintenance: int(powerScore),
		CategoryInventoryManagement:  int(humidityScore),
		CategorySafetyProtocols:      int(recommendationScore),
	}

	var sum, active int
	for name, present := range map[string]bool{
		CategoryTemperatureControl:   tempPresent,
		CategoryEquipmentMaintenance: powerPresent,
		CategoryInventoryManagement:  humidityPresent,
		CategorySafetyProtocols:      recommendationsPresent,
	} {
		if present {
			sum += categories[name]
			active++
		}
	}

	var overall int
	if active > 0 {
		overall = sum / active
	}

	return ComplianceResult{
		OverallScore:            overall,
		CategoryScores:          categories,
		RecommendationsFollowed: recommendationsFollowed,
		RecommendationsTotal:    recommendationsTotal,
		Rank:                    rankLabel(overall),
	}
}

// rankLabel buckets an overall score into its qualitative rank.
func rankLabel(overall int) string {
	switch {
	case overall >= 90:
		return RankExcellent
	case overall >= 75:
		return RankGood
	case overall >= 60:
		return RankFair
	default:
		return RankNeedsImprovement
	}
}

// RiskTier buckets an overall score into the insurer-facing risk tier.
// The boundaries match the rank label's but the vocabulary is inverted:
// a high score means low risk.
func RiskTier(overall int) string {
	switch {
	case overall >= 90:
		return RiskLow
	case overall >= 75:
		return RiskMedium
	case overall >= 60:
		return RiskHigh
	default:
		return RiskCritical
	}
}
