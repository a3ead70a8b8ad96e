package translate

import (
	"encoding/xml"

	"aqwari.net/xml/xsd"
	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/cerr"
	"github.com/wouterdb/xml-avro/internal/ident"
	"github.com/wouterdb/xml-avro/internal/source"
)

// translateComplexType builds the Avro record for ct, or a reference
// to it if some other part of the graph has already built or started
// building it. nameOverride, when non-empty, wins over ct's own name;
// it is only ever supplied for the type of a global root element.
func (t *translator) translateComplexType(ct *xsd.ComplexType, nameOverride string) (avro.Schema, error) {
	if existing, ok := t.reg.Lookup(ct.Name); ok {
		return avro.NewRefSchema(existing), nil
	}

	avroName := nameOverride
	if avroName == "" {
		if ct.Anonymous {
			avroName = t.reg.AnonName(ct)
		} else {
			avroName = t.sanitizeName(ct.Name.Local)
		}
	}
	if err := t.claimName(avroName, ct.Name); err != nil {
		return nil, err
	}

	attrs, elems := t.flattenChain(ct)

	fieldCount := 0
	for _, a := range attrs {
		if !isProhibited(a) {
			fieldCount++
		}
	}
	seenWildcard := false
	for _, e := range elems {
		if e.Wildcard {
			if seenWildcard {
				continue
			}
			seenWildcard = true
		}
		fieldCount++
	}

	opts := []avro.SchemaOption{}
	if ct.Doc != "" {
		opts = append(opts, avro.WithDoc(ct.Doc))
	}
	rec, slots, err := t.reg.RecordPlaceholder(ct.Name, avroName, "", fieldCount, opts...)
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, avroName, err)
	}

	namer := &ident.FieldNamer{}
	idx := 0
	for _, a := range attrs {
		if isProhibited(a) {
			continue
		}
		f, err := t.fieldForAttribute(a, namer)
		if err != nil {
			return nil, err
		}
		slots[idx] = f
		idx++
	}
	seenWildcard = false
	for _, e := range elems {
		if e.Wildcard {
			if seenWildcard {
				continue
			}
			seenWildcard = true
		}
		f, err := t.fieldForElement(ct.Name, e, namer)
		if err != nil {
			return nil, err
		}
		slots[idx] = f
		idx++
	}

	return rec, nil
}

// flattenChain gathers the attributes and elements a complex type
// exposes, walking an extension's base chain to pick up inherited
// members. A restriction is taken at face value: XSD allows a
// restriction to re-declare inherited members with narrower
// constraints, but since this translation does not validate content,
// only what the restricting type itself declares is used.
func (t *translator) flattenChain(ct *xsd.ComplexType) ([]xsd.Attribute, []xsd.Element) {
	if !ct.Extends {
		return ct.Attributes, ct.Elements
	}
	var attrs []xsd.Attribute
	var elems []xsd.Element
	if base, ok := ct.Base.(*xsd.ComplexType); ok {
		ba, be := t.flattenChain(base)
		attrs = append(attrs, ba...)
		elems = append(elems, be...)
	}
	attrs = append(attrs, ct.Attributes...)
	elems = append(elems, ct.Elements...)
	return attrs, elems
}

// isProhibited reports whether an xs:attribute declared use="prohibited".
// The xsd package folds "prohibited" into the same Optional flag as a
// merely optional attribute, so detecting it means inspecting the raw
// attribute list it preserves on Attribute.Attr.
func isProhibited(a xsd.Attribute) bool {
	for _, attr := range a.Attr {
		if attr.Name.Local == "use" && attr.Value == "prohibited" {
			return true
		}
	}
	return false
}

func (t *translator) fieldForAttribute(a xsd.Attribute, namer *ident.FieldNamer) (*avro.Field, error) {
	base := t.sanitizeName(a.Name.Local)
	fname := namer.Name(base)

	inner, err := t.translateType(typeQName(a.Type), a.Type, "")
	if err != nil {
		return nil, err
	}
	if a.Plural {
		inner = avro.NewArraySchema(inner)
	}

	fieldType := inner
	if a.Optional {
		union, err := avro.NewUnionSchema([]avro.Schema{inner, &avro.NullSchema{}})
		if err != nil {
			return nil, cerr.Wrap(cerr.SchemaValidation, fname, err)
		}
		fieldType = union
	}

	props := map[string]interface{}{source.PropKey: source.Attr(a.Name.Local).String()}
	if enc := bytesEncoding(a.Type); enc != "" {
		props[source.EncodingPropKey] = enc
	}
	opts := []avro.SchemaOption{avro.WithProps(props)}
	if doc := facetDoc(a.Type); doc != "" {
		opts = append(opts, avro.WithDoc(doc))
	}
	f, err := avro.NewField(fname, fieldType, opts...)
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, fname, err)
	}
	return f, nil
}

func (t *translator) fieldForElement(owner xml.Name, el xsd.Element, namer *ident.FieldNamer) (*avro.Field, error) {
	if el.Wildcard {
		return t.wildcardField(namer)
	}

	base := t.sanitizeName(el.Name.Local)
	fname := namer.Name(base)

	inner, err := t.translateType(typeQName(el.Type), el.Type, "")
	if err != nil {
		return nil, err
	}

	optional := el.Optional || t.choice[owner][el.Name]
	var fieldType avro.Schema
	switch {
	case el.Plural:
		fieldType = avro.NewArraySchema(inner)
	case optional:
		union, err := avro.NewUnionSchema([]avro.Schema{inner, &avro.NullSchema{}})
		if err != nil {
			return nil, cerr.Wrap(cerr.SchemaValidation, fname, err)
		}
		fieldType = union
	default:
		fieldType = inner
	}

	props := map[string]interface{}{source.PropKey: source.Elem(el.Name.Local).String()}
	if enc := bytesEncoding(el.Type); enc != "" {
		props[source.EncodingPropKey] = enc
	}
	if !el.Plural && isListType(el.Type) {
		props[source.ListPropKey] = "true"
	}
	opts := []avro.SchemaOption{avro.WithProps(props)}
	if doc := facetDoc(el.Type); doc != "" {
		opts = append(opts, avro.WithDoc(doc))
	}
	f, err := avro.NewField(fname, fieldType, opts...)
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, fname, err)
	}
	return f, nil
}

// isListType reports whether typ is an xs:list simple type: a single
// element or attribute of this type holds a whitespace-separated list
// of values, translated to an Avro array<T> even though the XSD
// content model never repeats the element itself.
func isListType(typ xsd.Type) bool {
	st, ok := typ.(*xsd.SimpleType)
	return ok && st.List
}

// wildcardField synthesizes the map field that receives every xs:any
// match in a content model; translateComplexType skips every wildcard
// element after the first, so multiple xs:any siblings collapse into
// one field and this is called at most once per complex type.
func (t *translator) wildcardField(namer *ident.FieldNamer) (*avro.Field, error) {
	base := t.sanitizeName(t.opts.WildcardName)
	fname := namer.Name(base)
	values := avro.NewPrimitiveSchema(avro.String, nil)
	f, err := avro.NewField(fname, avro.NewMapSchema(values), avro.WithProps(map[string]interface{}{
		source.PropKey: source.NoSource.String(),
	}))
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, fname, err)
	}
	return f, nil
}
