// Package patch holds the shared update-document sanitation and application
// logic used by every entity manager. Update payloads arrive as free-form
// JSON objects; protected fields are silently dropped rather than rejected,
// so a well-meaning client that echoes the whole document back does not fail.
package patch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"faithresponders.org/internal/fault"
)

// Strip returns a copy of updates with the protected keys removed. The input
// map is never mutated. A nil map yields an empty, non-nil result.
func Strip(updates map[string]any, protected ...string) map[string]any {
	out := make(map[string]any, len(updates))
	for k, v := range updates {
		out[k] = v
	}
	for _, k := range protected {
		delete(out, k)
	}
	return out
}

// Apply merges the update document into entity via a JSON round trip: the
// entity is flattened to a document, update keys overwrite document keys, and
// the merged document is decoded back. entity must be a pointer to a struct
// with JSON tags matching the document field names.
func Apply(entity any, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range updates {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", fault.ErrInvalidArgument, err)
	}
	dec := json.NewDecoder(bytes.NewReader(merged))
	if err := dec.Decode(entity); err != nil {
		return fmt.Errorf("%w: %v", fault.ErrInvalidArgument, err)
	}
	return nil
}
