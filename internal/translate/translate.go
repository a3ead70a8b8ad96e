// Package translate builds an Avro schema graph from a parsed XML
// Schema document, following the shaping and naming rules described
// for this conversion: primitive builtins pass through directly,
// complex types become records, repeatable particles become arrays,
// optional or choice-branch particles become nullable unions, and
// every field carries a "source" property recording the XML
// construct it came from.
package translate

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"aqwari.net/xml/xmltree"
	"aqwari.net/xml/xsd"
	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/cerr"
	"github.com/wouterdb/xml-avro/internal/ident"
	"github.com/wouterdb/xml-avro/internal/registry"
	"github.com/wouterdb/xml-avro/internal/source"
)

const schemaNS = "http://www.w3.org/2001/XMLSchema"

// Logger receives diagnostic messages about non-fatal decisions made
// during translation, such as a union-of-simple-types falling back to
// a plain string.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// Rename is a single command-line-style rewrite rule, applied to an
// XML local name before it is sanitized into an Avro identifier. Mirrors
// the teacher's own xsdgen.Replace/wsdlgen "-r" rule shape.
type Rename struct {
	From *regexp.Regexp
	To   string
}

// Options configures a single translation run.
type Options struct {
	// Logger receives diagnostic messages. Defaults to a no-op.
	Logger Logger
	// WildcardName overrides the field name synthesized for xs:any
	// content. Defaults to source.WildcardField.
	WildcardName string
	// Rename rewrites XML local names before sanitization, applied in
	// order. Useful for stripping vendor prefixes or normalizing
	// casing across an entire schema without editing the XSD.
	Rename []Rename
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	if o.WildcardName == "" {
		o.WildcardName = source.WildcardField
	}
}

// translator holds the state of one XSD-to-Avro translation. It is
// never reused across calls to Translate.
type translator struct {
	opts      Options
	reg       *registry.Registry
	san       *ident.Sanitizer
	choice    map[xml.Name]map[xml.Name]bool
	usedNames map[string]xml.Name
}

// Translate parses docs as one or more XML Schema documents -- a
// primary schema plus any number of imported/included fragments -- and
// builds the Avro schema graph for the primary schema's (docs[0])
// target namespace.
func Translate(opts Options, docs ...[]byte) (avro.Schema, error) {
	opts.setDefaults()

	if len(docs) == 0 {
		return nil, cerr.New(cerr.UnsupportedConstruct, "no XSD documents given")
	}
	root, err := xmltree.Parse(docs[0])
	if err != nil {
		return nil, cerr.Wrap(cerr.XMLParse, "xsd document", err)
	}
	if (root.Name != xml.Name{Space: schemaNS, Local: "schema"}) {
		return nil, cerr.New(cerr.MissingNamespace,
			fmt.Sprintf("root element %s is not xsd:schema bound to the namespace %s", root.Name.Local, schemaNS))
	}
	tns := root.Attr("", "targetNamespace")
	if tns == "" {
		return nil, cerr.New(cerr.MissingNamespace,
			fmt.Sprintf("schema declares no targetNamespace; expected namespace %s", schemaNS))
	}

	schemas, err := xsd.Parse(docs...)
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, "xsd document", err)
	}
	var schema *xsd.Schema
	for i := range schemas {
		if schemas[i].TargetNS == tns {
			schema = &schemas[i]
			break
		}
	}
	if schema == nil {
		return nil, cerr.New(cerr.MissingNamespace,
			fmt.Sprintf("no parsed schema for namespace %s (expected xsd namespace %s)", tns, schemaNS))
	}

	normalized, err := xsd.Normalize(docs...)
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, "xsd document", err)
	}

	t := &translator{
		opts:      opts,
		reg:       registry.New(),
		san:       &ident.Sanitizer{},
		choice:    buildChoiceMembers(normalized),
		usedNames: make(map[string]xml.Name),
	}

	globals := globalElements(schema)
	var out avro.Schema
	switch len(globals) {
	case 0:
		return nil, cerr.New(cerr.UnsupportedConstruct, "schema declares no top-level elements")
	case 1:
		out, err = t.translateRoot(globals[0])
	default:
		out, err = t.translateDocument(globals)
	}
	if err != nil {
		return nil, err
	}
	t.reg.Each(func(qname, avroName string) {
		opts.Logger.Printf("xml-avro: interned %s as %s", qname, avroName)
	})
	return out, nil
}

// globalElements recovers the schema's top-level xs:element
// declarations. A Schema's Types map does not record these directly,
// but xsd.Parse synthesizes a "_self_<hash>" ComplexType per document
// whose Elements are exactly the document's top-level elements, in
// document order; we reuse that rather than re-walking the raw tree.
func globalElements(schema *xsd.Schema) []xsd.Element {
	for name, typ := range schema.Types {
		if !strings.HasPrefix(name.Local, "_self_") {
			continue
		}
		if ct, ok := typ.(*xsd.ComplexType); ok {
			return ct.Elements
		}
	}
	return nil
}

// buildChoiceMembers scans the normalized schema documents for
// xs:choice particles and records, per enclosing complex type, the
// qualified names of elements that are direct children of one. The
// xsd package flattens choice, sequence and all into one Elements
// slice with no trace of which particle an element came from, so
// this independent scan is the only way to recover it. The scan is
// scoped per complex type by name; a choice nested inside another
// named type's own anonymous descendant (itself promoted to a
// top-level complexType by Normalize) is attributed to that
// descendant, not its ancestor, since Search stops descending once it
// matches a complexType element.
func buildChoiceMembers(roots []*xmltree.Element) map[xml.Name]map[xml.Name]bool {
	members := make(map[xml.Name]map[xml.Name]bool)
	for _, root := range roots {
		tns := root.Attr("", "targetNamespace")
		for _, ct := range root.Search(schemaNS, "complexType") {
			name := ct.ResolveDefault(ct.Attr("", "name"), tns)
			if name.Local == "" {
				continue
			}
			set := make(map[xml.Name]bool)
			for _, choice := range ct.Search(schemaNS, "choice") {
				for i := range choice.Children {
					child := &choice.Children[i]
					if (child.Name != xml.Name{Space: schemaNS, Local: "element"}) {
						continue
					}
					if ref := child.Attr("", "ref"); ref != "" {
						set[child.Resolve(ref)] = true
						continue
					}
					set[child.ResolveDefault(child.Attr("", "name"), tns)] = true
				}
			}
			if len(set) > 0 {
				members[name] = set
			}
		}
	}
	return members
}

// translateRoot shapes the schema graph for the single-global-element
// case: the element's own type becomes the schema, unwrapped. A named
// complex type takes the element's sanitized name; an anonymous one
// still gets a generated typeN, since it has no name of its own to
// inherit.
func (t *translator) translateRoot(el xsd.Element) (avro.Schema, error) {
	if el.Wildcard {
		return nil, cerr.New(cerr.UnsupportedConstruct, "wildcard as sole top-level element")
	}
	return t.translateType(typeQName(el.Type), el.Type, t.rootNameOverride(el))
}

// translateDocument shapes the schema graph for the multiple-global-
// element case: a synthetic "document" record with one nullable field
// per possible root element, since any single XML document instance
// populates at most one of them.
func (t *translator) translateDocument(globals []xsd.Element) (avro.Schema, error) {
	namer := &ident.FieldNamer{}
	slots := make([]*avro.Field, 0, len(globals))
	var errs cerr.List
	for _, el := range globals {
		if el.Wildcard {
			continue
		}
		fname := namer.Name(t.sanitizeName(el.Name.Local))
		inner, err := t.translateType(typeQName(el.Type), el.Type, t.rootNameOverride(el))
		if err != nil {
			// Each global root is an independent branch of the
			// document; one root's unsupported construct should not
			// hide a problem with a sibling root, so collect and keep
			// walking rather than returning on the first failure.
			errs = append(errs, err)
			continue
		}
		union, err := avro.NewUnionSchema([]avro.Schema{inner, &avro.NullSchema{}})
		if err != nil {
			errs = append(errs, cerr.Wrap(cerr.SchemaValidation, fname, err))
			continue
		}
		props := map[string]interface{}{source.PropKey: source.Elem(el.Name.Local).String()}
		if enc := bytesEncoding(el.Type); enc != "" {
			props[source.EncodingPropKey] = enc
		}
		f, err := avro.NewField(fname, union, avro.WithProps(props))
		if err != nil {
			errs = append(errs, cerr.Wrap(cerr.SchemaValidation, fname, err))
			continue
		}
		slots = append(slots, f)
	}
	if errs.Len() > 0 {
		return nil, errs
	}
	rec, err := avro.NewRecordSchema("document", "", slots, avro.WithProps(map[string]interface{}{
		source.PropKey: source.Doc.String(),
	}))
	if err != nil {
		return nil, cerr.Wrap(cerr.SchemaValidation, "document", err)
	}
	return rec, nil
}

// rootNameOverride returns the sanitized element name to use as a
// named complex type's record name, when the element names a global
// root and its type was declared with its own name rather than
// inline. Sanitization goes through the translator's shared counter,
// so a collision here still advances the same reserved-name suffix
// sequence as every other name in this translation.
func (t *translator) rootNameOverride(el xsd.Element) string {
	if ct, ok := el.Type.(*xsd.ComplexType); ok && !ct.Anonymous {
		return t.sanitizeName(el.Name.Local)
	}
	return ""
}

// translateType dispatches on the kind of XSD type and returns its
// Avro equivalent, consulting the registry so that a type already in
// flight or complete is referenced rather than redefined.
func (t *translator) translateType(qname xml.Name, typ xsd.Type, nameOverride string) (avro.Schema, error) {
	switch tt := typ.(type) {
	case xsd.Builtin:
		return primitiveSchema(tt), nil
	case *xsd.ComplexType:
		return t.translateComplexType(tt, nameOverride)
	case *xsd.SimpleType:
		return t.translateSimpleType(tt, nameOverride)
	default:
		return nil, cerr.New(cerr.UnsupportedConstruct, fmt.Sprintf("%T", typ))
	}
}

// typeQName returns the qualified name used to key the registry and
// the choice-membership map for a type; builtins have no such name.
func typeQName(typ xsd.Type) xml.Name {
	switch tt := typ.(type) {
	case *xsd.ComplexType:
		return tt.Name
	case *xsd.SimpleType:
		return tt.Name
	default:
		return xml.Name{}
	}
}

// sanitizeName applies the translation's rename rules, in order, before
// handing the result to the shared Sanitizer.
func (t *translator) sanitizeName(name string) string {
	for _, r := range t.opts.Rename {
		name = r.From.ReplaceAllString(name, r.To)
	}
	return t.san.Sanitize(name)
}

// claimName records that avroName has been assigned to qname, failing
// if a different XSD construct already claimed the same sanitized
// name.
func (t *translator) claimName(avroName string, qname xml.Name) error {
	if existing, ok := t.usedNames[avroName]; ok && existing != qname {
		return cerr.New(cerr.NameCollisionUnresolvable,
			fmt.Sprintf("%s and %s both sanitize to %q", existing, qname, avroName))
	}
	t.usedNames[avroName] = qname
	return nil
}

// bytesEncoding reports how the lexical text of a type mapped to Avro
// bytes should be decoded: "hex" for xs:hexBinary, "base64" for
// xs:base64Binary, and "" for every other type (including those that
// never map to bytes). The datum builder reads this back off the
// field's "encoding" property, since avro.PrimitiveSchema itself has no
// room for properties of its own.
func bytesEncoding(typ xsd.Type) string {
	switch tt := typ.(type) {
	case xsd.Builtin:
		switch tt {
		case xsd.HexBinary:
			return "hex"
		case xsd.Base64Binary:
			return "base64"
		}
	case *xsd.SimpleType:
		if tt.Base != nil {
			return bytesEncoding(tt.Base)
		}
	}
	return ""
}

// primitiveSchema maps an XSD built-in type to its Avro equivalent.
// Types with no natural numeric or boolean counterpart -- dates,
// durations, identifiers, and the generic text types -- fall back to
// Avro string, which always round-trips their lexical form.
func primitiveSchema(b xsd.Builtin) avro.Schema {
	switch b {
	case xsd.Boolean:
		return avro.NewPrimitiveSchema(avro.Boolean, nil)
	case xsd.Byte, xsd.Short, xsd.Int, xsd.Integer, xsd.NegativeInteger,
		xsd.NonNegativeInteger, xsd.NonPositiveInteger, xsd.PositiveInteger,
		xsd.UnsignedByte, xsd.UnsignedShort:
		return avro.NewPrimitiveSchema(avro.Int, nil)
	case xsd.Long, xsd.UnsignedInt, xsd.UnsignedLong:
		return avro.NewPrimitiveSchema(avro.Long, nil)
	case xsd.Float:
		return avro.NewPrimitiveSchema(avro.Float, nil)
	case xsd.Double, xsd.Decimal:
		return avro.NewPrimitiveSchema(avro.Double, nil)
	case xsd.Base64Binary, xsd.HexBinary:
		return avro.NewPrimitiveSchema(avro.Bytes, nil)
	default:
		return avro.NewPrimitiveSchema(avro.String, nil)
	}
}
