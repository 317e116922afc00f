// Package nova owns the parameter schema of the compute server-create call.
//
// The schema is declared statically rather than discovered from the SDK, so
// unknown keys are rejected before any remote call is made and every value
// is converted to a typed domain.CreateServerOpts.
package nova

import "nathanbeddoewebdev/oshost/internal/params"

// Kind is the expected shape of a parameter value.
type Kind string

const (
	KindString       Kind = "string"
	KindInt          Kind = "int"
	KindBool         Kind = "bool"
	KindStringMap    Kind = "map[string]string"
	KindStringList   Kind = "[]string"
	KindMap          Kind = "map"
	KindNICs         Kind = "nics"
	KindBlockDevices Kind = "block_device_mapping_v2"
)

// Field describes one accepted create parameter. Every field defaults to
// nil, meaning "let the provider decide".
type Field struct {
	Name string
	Kind Kind
}

// Where is the property-bag path create parameters live under.
const Where = "nova_config.instance"

// CreateSchema is the complete set of parameters accepted by the
// server-create call.
var CreateSchema = []Field{
	{Name: "name", Kind: KindString},
	{Name: "image", Kind: KindString},
	{Name: "flavor", Kind: KindString},
	{Name: "meta", Kind: KindStringMap},
	{Name: "files", Kind: KindStringMap},
	{Name: "reservation_id", Kind: KindString},
	{Name: "min_count", Kind: KindInt},
	{Name: "max_count", Kind: KindInt},
	{Name: "security_groups", Kind: KindStringList},
	{Name: "userdata", Kind: KindString},
	{Name: "key_name", Kind: KindString},
	{Name: "availability_zone", Kind: KindString},
	{Name: "block_device_mapping", Kind: KindStringMap},
	{Name: "block_device_mapping_v2", Kind: KindBlockDevices},
	{Name: "nics", Kind: KindNICs},
	{Name: "scheduler_hints", Kind: KindMap},
	{Name: "config_drive", Kind: KindBool},
	{Name: "disk_config", Kind: KindString},
}

// RequiredInstanceKeys must be present in every instance spec.
var RequiredInstanceKeys = []string{"name", "flavor", "image", "key_name"}

var schemaIndex = func() map[string]Field {
	m := make(map[string]Field, len(CreateSchema))
	for _, f := range CreateSchema {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the field for name.
func Lookup(name string) (Field, bool) {
	f, ok := schemaIndex[name]
	return f, ok
}

// Defaults returns a bag holding every schema key with a nil value.
func Defaults() params.Bag {
	out := make(params.Bag, len(CreateSchema))
	for _, f := range CreateSchema {
		out[f.Name] = nil
	}
	return out
}

// Merge overlays instance onto the defaults. It fails with an
// InvalidParameterError naming the first key not in the schema.
func Merge(instance params.Bag) (params.Bag, error) {
	for _, k := range sortedKeys(instance) {
		if _, ok := schemaIndex[k]; !ok {
			return nil, params.Invalid(k, Where, "not a recognized server-create parameter")
		}
	}

	merged := Defaults()
	for k, v := range instance {
		merged[k] = v
	}
	return merged, nil
}
