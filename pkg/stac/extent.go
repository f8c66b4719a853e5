package stac

import "encoding/json"

// Extent represents the spatial and temporal extent of a STAC Collection.
type Extent struct {
	Spatial  *SpatialExtent  `json:"spatial,omitempty"`
	Temporal *TemporalExtent `json:"temporal,omitempty"`
}

// SpatialExtent represents the spatial extent of a STAC Collection.
type SpatialExtent struct {
	Bbox [][]float64 `json:"bbox"`
}

// TemporalExtent represents the temporal extent of a STAC Collection.
type TemporalExtent struct {
	Interval [][]any `json:"interval"`
}

// UnmarshalJSON accepts both the nested form [["start","end"]] and the flat
// form ["start","end"] that some static catalogs publish. The flat form is
// stored nested.
func (te *TemporalExtent) UnmarshalJSON(data []byte) error {
	var aux struct {
		Interval []any `json:"interval"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	te.Interval = nil
	if len(aux.Interval) == 0 {
		return nil
	}

	if _, nested := aux.Interval[0].([]any); !nested {
		te.Interval = [][]any{aux.Interval}
		return nil
	}

	for _, iv := range aux.Interval {
		pair, _ := iv.([]any)
		te.Interval = append(te.Interval, pair)
	}
	return nil
}
