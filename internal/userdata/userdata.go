// Package userdata expands declarative userdata descriptors into the literal
// payload handed to a new server.
//
// A descriptor is either a plain string, which is used as-is, or a mapping
// with a "type" key selecting a Resolver:
//
//	userdata:
//	  type: http
//	  url: https://example.com/cloud-init.yaml
//
// Resolved payloads are raw. The compute SDK performs any wire encoding.
package userdata

import (
	"context"
	"fmt"
	"sort"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/params"
)

// Key is the instance key holding the userdata descriptor.
const Key = "userdata"

const where = "nova_config.instance.userdata"

// Resolver turns one kind of descriptor into a literal payload.
type Resolver interface {
	// Type is the tag that selects this resolver.
	Type() string

	// Resolve returns the payload for the descriptor. The descriptor
	// still contains the "type" key.
	Resolve(ctx context.Context, descriptor params.Bag) (string, error)
}

// Registry maps type tags to resolvers. It is built once and never
// mutated afterwards.
type Registry struct {
	resolvers map[string]Resolver
}

// NewRegistry builds a registry from the given resolvers. It panics on an
// empty or duplicate tag.
func NewRegistry(resolvers ...Resolver) *Registry {
	m := make(map[string]Resolver, len(resolvers))
	for _, r := range resolvers {
		if r == nil {
			panic("userdata: nil resolver")
		}
		tag := r.Type()
		if tag == "" {
			panic("userdata: empty resolver type")
		}
		if _, exists := m[tag]; exists {
			panic(fmt.Sprintf("userdata: resolver %q already registered", tag))
		}
		m[tag] = r
	}
	return &Registry{resolvers: m}
}

// Types returns the registered tags in sorted order.
func (r *Registry) Types() []string {
	tags := make([]string, 0, len(r.resolvers))
	for tag := range r.resolvers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Resolve replaces a mapping-valued "userdata" entry of instance with its
// resolved payload. Absent or string userdata is left untouched.
func (r *Registry) Resolve(ctx context.Context, instance params.Bag) error {
	raw, ok := instance[Key]
	if !ok {
		return nil
	}
	descriptor, ok := params.AsMap(raw)
	if !ok {
		return nil
	}

	if err := params.Require(descriptor, []string{"type"}, where); err != nil {
		return err
	}

	tag, _ := descriptor["type"].(string)
	resolver, ok := r.resolvers[tag]
	if !ok {
		return fmt.Errorf("invalid type %q (under %s): %w", fmt.Sprint(descriptor["type"]), where, domain.ErrInvalidUserdataType)
	}

	payload, err := resolver.Resolve(ctx, descriptor)
	if err != nil {
		return err
	}
	instance[Key] = payload
	return nil
}
