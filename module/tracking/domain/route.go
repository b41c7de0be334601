package domain

// RouteResult is replaced wholesale on every recomputation.
type RouteResult struct {
	Coordinates     []Coordinate `json:"coordinates"`
	DurationSeconds float64      `json:"duration_seconds"`
	DistanceMeters  float64      `json:"distance_meters"`
	Provider        string       `json:"provider,omitempty"`
}

func (r *RouteResult) Clone() *RouteResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Coordinates = append([]Coordinate(nil), r.Coordinates...)
	return &out
}

type EdgePadding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// ViewportFit instructs a map view to pan/zoom so every coordinate is visible.
type ViewportFit struct {
	Coordinates []Coordinate `json:"coordinates"`
	EdgePadding EdgePadding  `json:"edge_padding"`
	Animated    bool         `json:"animated"`
}

var DefaultEdgePadding = EdgePadding{Top: 100, Right: 50, Bottom: 250, Left: 50}
