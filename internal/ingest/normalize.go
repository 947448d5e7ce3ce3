package ingest

import (
	"encoding/json"
)

// Record is one raw API record. Shapes vary per endpoint, so records stay
// untyped until the graph builder projects them into nodes.
type Record map[string]any

// normalizeBody interprets a page body as a sequence of records. Anything
// that does not decode as a JSON array fails with MalformedResponseError
// naming the source URL.
func normalizeBody(source string, body []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, newMalformedResponseError(source, body)
	}
	return records, nil
}
