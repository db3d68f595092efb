package models

import (
	"encoding/json"
	"time"
)

// Observation is one timestamped record of named numeric fields
// (price, volume, volatility, demand, ...). Immutable once ingested.
type Observation struct {
	Timestamp time.Time
	Fields    map[string]float64
}

// Has reports whether the named field is present.
func (o Observation) Has(name string) bool {
	_, ok := o.Fields[name]
	return ok
}

// Get returns the named field value, zero if absent.
func (o Observation) Get(name string) float64 {
	return o.Fields[name]
}

// UnmarshalJSON decodes a flat JSON object. Every numeric member becomes a
// feature field; a "timestamp" member is parsed as RFC3339 or unix seconds.
// Non-numeric members are ignored.
func (o *Observation) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	o.Fields = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "timestamp" {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				if t, perr := time.Parse(time.RFC3339, s); perr == nil {
					o.Timestamp = t
					continue
				}
			}
			var unix float64
			if err := json.Unmarshal(v, &unix); err == nil {
				o.Timestamp = time.Unix(int64(unix), 0).UTC()
			}
			continue
		}

		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			o.Fields[k] = f
		}
	}
	return nil
}

// MarshalJSON encodes the observation back to a flat JSON object.
func (o Observation) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(o.Fields)+1)
	for k, v := range o.Fields {
		out[k] = v
	}
	if !o.Timestamp.IsZero() {
		out["timestamp"] = o.Timestamp.Format(time.RFC3339)
	}
	return json.Marshal(out)
}
