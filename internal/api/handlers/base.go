package handlers

import "encoding/json"

// bindJSON unmarshals a raw body into the target without consuming the
// request, so a failed bind can fall back to an alternate shape.
func bindJSON(body []byte, target interface{}) error {
	return json.Unmarshal(body, target)
}
