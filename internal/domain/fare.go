package domain

// Coordinate is a geocoded point. Lon comes first, as returned by routing providers.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Route is a driving route between two coordinates.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// FareQuote is the outcome of an external fare estimate.
// Exactly one of Error or the numeric fields is meaningful.
type FareQuote struct {
	DistanceKm  string
	DurationMin int64
	Fare        int64
	Error       string
	Err         error
}

// OK reports whether the quote carries a fare.
func (q *FareQuote) OK() bool {
	return q.Err == nil && q.Error == ""
}
