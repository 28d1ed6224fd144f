package position

import "fieldtrack/internal/geo"

// Activity classification thresholds, in mph.
const (
	stationaryMaxMPH = 0.5
	walkingMaxMPH    = 4.0
)

// ClassifyActivity derives the movement class from speed in m/s.
func ClassifyActivity(speedMPS float64) string {
	mph := speedMPS * geo.MPSToMPH
	switch {
	case mph < stationaryMaxMPH:
		return "stationary"
	case mph < walkingMaxMPH:
		return "walking"
	default:
		return "driving"
	}
}
