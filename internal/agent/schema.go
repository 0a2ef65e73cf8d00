package agent

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/MrWong99/bioroute/internal/registry"
)

// argValidator validates tool arguments against the input schema a tool
// declares in the registry catalogue. Compiled schemas are cached per tool
// name; the catalogue is static for the process lifetime so the cache never
// needs invalidation.
//
// Safe for concurrent use.
type argValidator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func newArgValidator() *argValidator {
	return &argValidator{compiled: make(map[string]*jsonschema.Schema)}
}

// validate checks args against the tool's declared input schema. A tool
// without a schema accepts any arguments. Returns an error describing the
// first violation found.
func (v *argValidator) validate(td registry.ToolDescriptor, args map[string]any) error {
	if len(td.InputSchema) == 0 {
		return nil
	}

	sch, err := v.schemaFor(td)
	if err != nil {
		// A catalogue entry with an uncompilable schema should not block the
		// invocation; the remote side validates again anyway.
		return nil
	}

	// The schema library expects a decoded JSON instance; a nil map must
	// still validate as an empty object.
	instance := any(args)
	if args == nil {
		instance = map[string]any{}
	}
	if err := sch.Validate(instance); err != nil {
		return fmt.Errorf("arguments for %q violate its input schema: %w", td.Name, err)
	}
	return nil
}

// schemaFor returns the compiled schema for td, compiling and caching it on
// first use.
func (v *argValidator) schemaFor(td registry.ToolDescriptor) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if sch, ok := v.compiled[td.Name]; ok {
		return sch, nil
	}

	c := jsonschema.NewCompiler()
	url := "registry:///" + td.Name + ".json"
	if err := c.AddResource(url, toAnySchema(td.InputSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource for %q: %w", td.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", td.Name, err)
	}
	v.compiled[td.Name] = sch
	return sch, nil
}

// toAnySchema widens map[string]any to any so the compiler treats it as a
// decoded JSON document.
func toAnySchema(m map[string]any) any {
	return map[string]any(m)
}
