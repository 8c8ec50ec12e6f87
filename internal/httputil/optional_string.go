package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field from an explicit null,
// which a bare *string cannot. PATCH bodies rely on it for folder_id: absent
// leaves the filing untouched, null un-files, a string value moves.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON runs only when the field appears in the body; that is what
// records presence.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
