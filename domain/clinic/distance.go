package clinic

import (
	"math"
	"sort"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Distance.
	EarthRadiusKm = 6371.0

	// DefaultNearest is how many clinics a lookup returns.
	DefaultNearest = 3
)

// Distance returns the haversine great-circle distance between a and b in kilometres.
func Distance(a, b Location) float64 {
	lat1 := radians(a.lat)
	lat2 := radians(b.lat)
	dlat := lat2 - lat1
	dlng := radians(b.lng) - radians(a.lng)

	h := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Ranked is a clinic annotated with its distance from a query point.
type Ranked struct {
	clinic   Clinic
	distance float64
}

// NewRanked creates a new Ranked.
func NewRanked(c Clinic, distance float64) Ranked {
	return Ranked{clinic: c, distance: distance}
}

// Clinic returns the ranked clinic.
func (r Ranked) Clinic() Clinic { return r.clinic }

// Distance returns the distance in kilometres.
func (r Ranked) Distance() float64 { return r.distance }

// Nearest ranks clinics by ascending distance from origin and returns the
// first k. Equal distances keep input order. k <= 0 returns every clinic.
func Nearest(clinics []Clinic, origin Location, k int) []Ranked {
	ranked := make([]Ranked, len(clinics))
	for i, c := range clinics {
		ranked[i] = NewRanked(c, Distance(origin, c.location))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
