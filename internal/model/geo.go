package model

// GeoCoordinates is a latitude/longitude pair in the shape expected by the
// geo_point index field.
type GeoCoordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair is inside the WGS84 ranges.
func (c GeoCoordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// GeoReference is a place mention extracted from document text. Coordinates
// may be nil when resolution failed or was skipped; such references are kept
// for audit but excluded from geo-indexed fields.
type GeoReference struct {
	PlaceName   string          `json:"place_name"`
	Coordinates *GeoCoordinates `json:"coordinates,omitempty"`
	Confidence  float64         `json:"confidence"`
}

// Resolved reports whether the reference carries usable coordinates.
func (r GeoReference) Resolved() bool {
	return r.Coordinates != nil && r.Coordinates.Valid()
}
