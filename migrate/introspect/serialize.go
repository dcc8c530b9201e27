package introspect

import (
	"encoding/json"
	"fmt"
)

// SerializeSchema serializes a KeyspaceSchema to indented JSON
func SerializeSchema(schema *KeyspaceSchema) ([]byte, error) {
	if schema == nil {
		return nil, nil
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema: %w", err)
	}
	return data, nil
}

// DeserializeSchema deserializes JSON produced by SerializeSchema
func DeserializeSchema(data []byte) (*KeyspaceSchema, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var schema KeyspaceSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to deserialize schema: %w", err)
	}
	if schema.Name == "" {
		return nil, fmt.Errorf("failed to deserialize schema: %w", ErrNoKeyspace)
	}
	schema.sort()
	return &schema, nil
}
