package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/tatianab/chronicle/internal/models"
)

var schemaCache sync.Map // type name -> rendered schema

// Schema reflects the JSON schema the generator's answer must follow.
func Schema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return reflector.Reflect(v)
}

// SchemaText is Schema rendered for a prompt.
func SchemaText(v any) string {
	key := fmt.Sprintf("%T", v)
	if s, ok := schemaCache.Load(key); ok {
		return s.(string)
	}
	data, err := json.MarshalIndent(Schema(v), "", "  ")
	if err != nil {
		return "{}"
	}
	schemaCache.Store(key, string(data))
	return string(data)
}

// Contracts lists every answer shape the generator is asked for, keyed by
// operation.
func Contracts() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"intervene":      Schema(&models.InterventionResult{}),
		"score":          Schema(&models.Score{}),
		"region_context": Schema(&models.RegionContext{}),
		"generate_world": Schema(&models.WorldState{}),
	}
}
