package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// FeatureVector is the fixed-order numeric input of the credit classifier.
// Names and Values are parallel; a missing feature is NaN.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Len returns the number of features
func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Get returns a feature by name
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return math.NaN(), false
}

// Missing lists the features that are NaN
func (v FeatureVector) Missing() []string {
	var out []string
	for i, x := range v.Values {
		if math.IsNaN(x) {
			out = append(out, v.Names[i])
		}
	}
	return out
}

// MarshalJSON renders the vector as an ordered object with null for NaN
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.Names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(FormatFeature(v.Values[i], "null"))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatFeature renders one feature value in its shortest form, or missing
// for NaN and infinities
func FormatFeature(x float64, missing string) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return missing
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
