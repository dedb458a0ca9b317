package analysis

import (
	"encoding/json"
	"math"
)

// jsonFloat encodes NaN as null and infinities as the strings "+Inf" and
// "-Inf", which encoding/json rejects for plain float64 values.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func jsonFloats(vals []float64) []jsonFloat {
	if vals == nil {
		return nil
	}
	out := make([]jsonFloat, len(vals))
	for i, v := range vals {
		out[i] = jsonFloat(v)
	}
	return out
}

func (c ColumnStats) MarshalJSON() ([]byte, error) {
	var std *jsonFloat
	if c.Std != nil {
		v := jsonFloat(*c.Std)
		std = &v
	}
	return json.Marshal(struct {
		Column string     `json:"column"`
		Count  int        `json:"count"`
		Mean   jsonFloat  `json:"mean"`
		Std    *jsonFloat `json:"std"`
		Min    jsonFloat  `json:"min"`
		Q1     jsonFloat  `json:"q1"`
		Median jsonFloat  `json:"median"`
		Q3     jsonFloat  `json:"q3"`
		Max    jsonFloat  `json:"max"`
	}{c.Column, c.Count, jsonFloat(c.Mean), std, jsonFloat(c.Min), jsonFloat(c.Q1),
		jsonFloat(c.Median), jsonFloat(c.Q3), jsonFloat(c.Max)})
}

func (c ColumnOutliers) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column     string      `json:"column"`
		Count      int         `json:"count"`
		Percentage float64     `json:"percentage"`
		Lower      jsonFloat   `json:"lower_bound"`
		Upper      jsonFloat   `json:"upper_bound"`
		Values     []jsonFloat `json:"values"`
	}{c.Column, c.Count, c.Percentage, jsonFloat(c.Lower), jsonFloat(c.Upper), jsonFloats(c.Values)})
}
