package record

import "encoding/json"

// ToJSON encodes v as JSON. It returns nil when v cannot be encoded; nil is
// the only failure signal.
func ToJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// FromJSON decodes data into a new T. It returns (nil, false) when data is
// not valid JSON for T.
func FromJSON[T any](data []byte) (*T, bool) {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, false
	}
	return out, true
}
