package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

// LoadSchemaDescriptor reads a field->type mapping from a .json, .yaml or .yml file.
func LoadSchemaDescriptor(name, path string) (model.SchemaDescriptor, error) {
	if strings.TrimSpace(name) == "" {
		return model.SchemaDescriptor{}, fmt.Errorf("schema: name is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.SchemaDescriptor{}, fmt.Errorf("schema: read %s: %w", path, err)
	}

	fields := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &fields)
	default:
		err = json.Unmarshal(raw, &fields)
	}
	if err != nil {
		return model.SchemaDescriptor{}, fmt.Errorf("schema: decode %s: %w", path, err)
	}
	if len(fields) == 0 {
		return model.SchemaDescriptor{}, fmt.Errorf("schema: %s defines no fields", path)
	}

	var empty []string
	for k, v := range fields {
		if strings.TrimSpace(v) == "" {
			empty = append(empty, k)
		}
	}
	if len(empty) > 0 {
		sort.Strings(empty)
		return model.SchemaDescriptor{}, fmt.Errorf("schema: fields without a type: %s", strings.Join(empty, ", "))
	}

	return model.SchemaDescriptor{Name: name, Fields: fields}, nil
}
