package types

// ID identifies services and providers. Provider ids compare lexically when the
// search needs a deterministic tie-break.
type ID string

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
