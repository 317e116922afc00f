package params

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBag reads a property bag from path, or from stdin when path is "-".
// The file may be YAML or JSON.
func LoadBag(path string, stdin io.Reader) (Bag, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("params: failed to read %s: %w", path, err)
	}
	return ParseBag(data)
}

// ParseBag decodes a YAML or JSON document into a Bag. An empty document
// yields an empty bag.
func ParseBag(data []byte) (Bag, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Bag{}, nil
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("params: failed to parse property bag: %w", err)
	}
	bag, ok := AsMap(raw)
	if !ok {
		return nil, fmt.Errorf("params: property bag must be a mapping, got %T", raw)
	}
	return normalize(bag), nil
}

// normalize converts every nested mapping to map[string]any.
func normalize(bag Bag) Bag {
	for k, v := range bag {
		bag[k] = normalizeValue(v)
	}
	return bag
}

func normalizeValue(v any) any {
	if m, ok := AsMap(v); ok {
		return normalize(m)
	}
	if list, ok := v.([]any); ok {
		for i, item := range list {
			list[i] = normalizeValue(item)
		}
		return list
	}
	return v
}
