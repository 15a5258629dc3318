package kinematics

import "math"

// EarthRadiusM is the mean Earth radius used for great-circle distances.
const EarthRadiusM = 6371000.0

// Haversine returns the great-circle distance in metres between two
// positions given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// Rounding can push a just past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance3D combines the horizontal great-circle distance with the
// elevation difference.
func Distance3D(lat1, lon1, ele1, lat2, lon2, ele2 float64) float64 {
	h := Haversine(lat1, lon1, lat2, lon2)
	return math.Hypot(h, ele2-ele1)
}

// Speed returns distance/dt, or 0 when dt is not positive.
func Speed(distance, dtSeconds float64) float64 {
	if dtSeconds <= 0 {
		return 0
	}
	return finite(distance / dtSeconds)
}

// Acceleration returns (v1-v0)/dt, or 0 when dt is not positive.
func Acceleration(v0, v1, dtSeconds float64) float64 {
	if dtSeconds <= 0 {
		return 0
	}
	return finite((v1 - v0) / dtSeconds)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
