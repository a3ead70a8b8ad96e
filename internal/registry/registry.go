// Package registry interns named Avro schemas (records, enums) during
// one XSD-to-Avro translation, handing out stable, collision-free names
// and breaking recursive references via a placeholder record inserted
// before a type's fields are known.
package registry

import (
	"encoding/xml"
	"fmt"

	"aqwari.net/xml/xsd"
	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/ordered"
)

// Registry is scoped to a single translation call; it is discarded
// once that call returns.
type Registry struct {
	named     map[xml.Name]avro.NamedSchema
	anonNames map[xsd.Type]string
	anonNext  int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		named:     make(map[xml.Name]avro.NamedSchema),
		anonNames: make(map[xsd.Type]string),
	}
}

// Lookup returns the named Avro node already interned for an XSD
// qualified name, if a type of that name is in flight or complete.
func (r *Registry) Lookup(name xml.Name) (avro.NamedSchema, bool) {
	s, ok := r.named[name]
	return s, ok
}

// AnonName returns the generated name for an anonymous complex or
// simple type, assigning the next "type0", "type1", ... the first
// time t is seen, and returning the same name on subsequent lookups
// for the identical type value.
func (r *Registry) AnonName(t xsd.Type) string {
	if name, ok := r.anonNames[t]; ok {
		return name
	}
	name := fmt.Sprintf("type%d", r.anonNext)
	r.anonNext++
	r.anonNames[t] = name
	return name
}

// RecordPlaceholder interns a new record under name before its fields
// are known, so that a self-reference encountered while translating
// those fields resolves to the same *avro.RecordSchema. fieldCount
// must be the final number of fields the record will hold; the caller
// fills the returned slots slice by index as each field is built. Since
// the slots slice is the same backing array given to the record, no
// explicit "fill" step is required: once every slot has been assigned,
// rec.Fields() reflects them.
func (r *Registry) RecordPlaceholder(name xml.Name, avroName, namespace string, fieldCount int, opts ...avro.SchemaOption) (rec *avro.RecordSchema, slots []*avro.Field, err error) {
	slots = make([]*avro.Field, fieldCount)
	rec, err = avro.NewRecordSchema(avroName, namespace, slots, opts...)
	if err != nil {
		return nil, nil, err
	}
	r.named[name] = rec
	return rec, slots, nil
}

// RegisterEnum interns a completed enum schema under name. Enums never
// recurse, so there is no placeholder step.
func (r *Registry) RegisterEnum(name xml.Name, enum *avro.EnumSchema) {
	r.named[name] = enum
}

// Each calls fn with the Avro name assigned to every interned XSD
// qualified name, visiting qualified names in a deterministic order
// (via internal/ordered) rather than Go's randomized map order, so
// repeated diagnostic runs over the same schema produce the same log.
func (r *Registry) Each(fn func(qname, avroName string)) {
	byKey := make(map[string]string, len(r.named))
	for name, schema := range r.named {
		byKey[fmt.Sprintf("{%s}%s", name.Space, name.Local)] = schema.FullName()
	}
	ordered.RangeNames(byKey, fn)
}
