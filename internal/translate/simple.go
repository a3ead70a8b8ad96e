package translate

import (
	"fmt"
	"strings"

	"aqwari.net/xml/xsd"
	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/cerr"
	"github.com/wouterdb/xml-avro/internal/ident"
)

// translateSimpleType builds the Avro equivalent of an xs:simpleType:
// an enum if it restricts its base to an enumeration, an array if it
// is an xs:list, a plain string if it is a union of simple types, or
// otherwise the translated base type, with any
// restriction facets left for the caller to surface as field doc via
// facetDoc.
func (t *translator) translateSimpleType(st *xsd.SimpleType, nameOverride string) (avro.Schema, error) {
	if len(st.Restriction.Enum) > 0 {
		return t.translateEnum(st, nameOverride)
	}
	if st.List {
		item, err := t.translateType(typeQName(st.Base), st.Base, "")
		if err != nil {
			return nil, err
		}
		return avro.NewArraySchema(item), nil
	}
	if len(st.Union) > 0 {
		t.opts.Logger.Printf("xsd: simple type %s is a union of simple types; "+
			"no single Avro representation exists, using string", st.Name)
		return avro.NewPrimitiveSchema(avro.String, nil), nil
	}
	return t.translateType(typeQName(st.Base), st.Base, "")
}

// translateEnum builds the Avro enum for a simpleType whose
// restriction lists an enumeration, or a reference to it if already
// registered elsewhere in the graph.
func (t *translator) translateEnum(st *xsd.SimpleType, nameOverride string) (avro.Schema, error) {
	if existing, ok := t.reg.Lookup(st.Name); ok {
		return avro.NewRefSchema(existing), nil
	}

	avroName := nameOverride
	if avroName == "" {
		if st.Anonymous {
			avroName = t.reg.AnonName(st)
		} else {
			avroName = t.sanitizeName(st.Name.Local)
		}
	}
	if err := t.claimName(avroName, st.Name); err != nil {
		return nil, err
	}

	// Enum symbols live in their own namespace, separate from record
	// and field names, so they get a scratch sanitizer rather than
	// sharing the translator's reserved-name counter.
	symSan := &ident.Sanitizer{}
	symNamer := &ident.FieldNamer{}
	symbols := make([]string, 0, len(st.Restriction.Enum))
	for _, v := range st.Restriction.Enum {
		base := symSan.Sanitize(v)
		if base == "" {
			base = "_"
		}
		symbols = append(symbols, symNamer.Name(base))
	}

	opts := []avro.SchemaOption{}
	if st.Doc != "" {
		opts = append(opts, avro.WithDoc(st.Doc))
	}
	enum, err := avro.NewEnumSchema(avroName, "", symbols, opts...)
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, avroName, err)
	}
	t.reg.RegisterEnum(st.Name, enum)
	return enum, nil
}

// facetDoc renders the restriction facets of a simpleType into text
// suitable for an Avro field's doc, since hamba/avro's primitive
// schemas carry no doc of their own. Only the facets declared
// directly on typ are surfaced; facets further up a restriction chain
// are not walked.
func facetDoc(typ xsd.Type) string {
	st, ok := typ.(*xsd.SimpleType)
	if !ok {
		return ""
	}
	r := st.Restriction
	var parts []string
	if r.Pattern != nil {
		parts = append(parts, "pattern: "+r.Pattern.String())
	}
	if r.MinLength > 0 {
		parts = append(parts, fmt.Sprintf("minLength: %d", r.MinLength))
	}
	if r.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("maxLength: %d", r.MaxLength))
	}
	if r.Min != 0 {
		parts = append(parts, fmt.Sprintf("minInclusive: %v", r.Min))
	}
	if r.Max != 0 {
		parts = append(parts, fmt.Sprintf("maxExclusive: %v", r.Max))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}
