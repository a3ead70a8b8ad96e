// Package datum builds an Avro generic datum from an XML instance
// document, guided by an Avro schema graph produced by the translate
// package and the "source" provenance each of its fields carries.
//
// hamba/avro's v2 API works through reflection over Go structs and
// struct tags; it has no generic record object of its own. This
// package defines the minimal generic shape used throughout: a record
// is a map[string]interface{} keyed by Avro field name, an array is a
// []interface{}, a map is a map[string]interface{}, and a nullable
// union is represented directly by its non-null value, or nil.
package datum

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"aqwari.net/xml/xmltree"
	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/cerr"
	"github.com/wouterdb/xml-avro/internal/ident"
	"github.com/wouterdb/xml-avro/internal/source"
)

// Options configures a single datum build.
type Options struct {
	// Logger receives diagnostic messages. Defaults to a no-op.
	Logger Logger
	// AllowMissingRequired, when true, leaves a non-nullable scalar
	// field as nil instead of failing the build when the XML instance
	// has no matching attribute or element for it. The source leaves
	// this case unspecified; the default here is to fail, per §9's
	// "prefer failure" guidance.
	AllowMissingRequired bool
}

// Logger receives diagnostic messages about lenient decisions made
// while building a datum, such as dropping an unmapped document-level
// root element.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
}

// Build parses xmlText as a single XML document and constructs the
// Avro datum it represents under schema: a map[string]interface{} for
// a record, or the bare scalar/[]byte/string value for a primitive
// root.
func Build(schema avro.Schema, xmlText []byte, opts Options) (interface{}, error) {
	opts.setDefaults()

	root, err := xmltree.Parse(xmlText)
	if err != nil {
		return nil, cerr.Wrap(cerr.XMLParse, "xml document", err)
	}

	b := &builder{opts: opts}
	return b.buildRoot(schema, root)
}

type builder struct {
	opts Options
}

// buildRoot dispatches on the shape the translator gave the schema's
// top level: a synthetic document record, an ordinary record, or a
// bare primitive/enum.
func (b *builder) buildRoot(schema avro.Schema, root *xmltree.Element) (interface{}, error) {
	if rec, ok := schema.(*avro.RecordSchema); ok {
		if ann, ok := fieldLikeSource(rec); ok && ann.Kind == source.Document {
			return b.buildDocument(rec, root)
		}
		return b.buildRecord(rec, root)
	}
	return b.buildLeaf(schema, textContent(root), "")
}

// fieldLikeSource reads the "source" property off a record or enum
// schema the same way it is read off a field.
func fieldLikeSource(s interface{ Prop(string) interface{} }) (source.Annotation, bool) {
	v, _ := s.Prop(source.PropKey).(string)
	return source.Parse(v)
}

// buildDocument populates the synthetic multi-root wrapper record: the
// parsed XML document's own root element is matched against whichever
// field claims that element name, and only that field is populated --
// every sibling global root stays null, since one XML document can
// only ever be one of them.
func (b *builder) buildDocument(rec *avro.RecordSchema, root *xmltree.Element) (interface{}, error) {
	result := defaultsFor(rec.Fields())
	for _, f := range rec.Fields() {
		ann, ok := fieldSource(f)
		if !ok || ann.Kind != source.Element || ann.Name != root.Name.Local {
			continue
		}
		val, err := b.buildValue(nonNullSchema(f.Type()), root, fieldEncoding(f))
		if err != nil {
			return nil, err
		}
		result[f.Name()] = val
		return result, nil
	}
	b.opts.Logger.Printf("datum: root element %s matches no declared global root; document fields left null", root.Name.Local)
	return result, nil
}

// buildRecord populates an ordinary record's fields from the
// attributes and child elements of el, in document order.
func (b *builder) buildRecord(rec *avro.RecordSchema, el *xmltree.Element) (interface{}, error) {
	fields := rec.Fields()
	result := defaultsFor(fields)
	required := make(map[string]*avro.Field)
	attrFields := make(map[string]*avro.Field)
	elemFields := make(map[string]*avro.Field)
	var wildcard *avro.Field

	for _, f := range fields {
		switch f.Type().(type) {
		case *avro.ArraySchema, *avro.MapSchema, *avro.UnionSchema:
			// already defaulted to an empty container or nil above.
		default:
			required[f.Name()] = f
		}
		ann, ok := fieldSource(f)
		if !ok {
			if _, isMap := f.Type().(*avro.MapSchema); isMap {
				wildcard = f
			}
			continue
		}
		switch ann.Kind {
		case source.Attribute:
			attrFields[ann.Name] = f
		case source.Element:
			elemFields[ann.Name] = f
		}
	}

	for _, attr := range el.StartElement.Attr {
		f, ok := attrFields[attr.Name.Local]
		if !ok {
			continue
		}
		val, err := b.buildAttrValue(f, attr.Value)
		if err != nil {
			return nil, err
		}
		result[f.Name()] = val
		delete(required, f.Name())
	}

	for i := range el.Children {
		child := &el.Children[i]
		localName := child.Name.Local
		f, ok := elemFields[localName]
		if !ok {
			if wildcard != nil {
				m := result[wildcard.Name()].(map[string]interface{})
				m[localName] = textContent(child)
			}
			continue
		}
		if fieldIsList(f) {
			val, err := b.buildListField(f, child)
			if err != nil {
				return nil, err
			}
			result[f.Name()] = val
			continue
		}
		switch ft := f.Type().(type) {
		case *avro.ArraySchema:
			val, err := b.buildValue(ft.Items(), child, fieldEncoding(f))
			if err != nil {
				return nil, err
			}
			arr := result[f.Name()].([]interface{})
			result[f.Name()] = append(arr, val)
		case *avro.UnionSchema:
			val, err := b.buildValue(nonNullSchema(ft), child, fieldEncoding(f))
			if err != nil {
				return nil, err
			}
			result[f.Name()] = val
		default:
			val, err := b.buildValue(ft, child, fieldEncoding(f))
			if err != nil {
				return nil, err
			}
			result[f.Name()] = val
			delete(required, f.Name())
		}
	}

	if len(required) > 0 {
		if !b.opts.AllowMissingRequired {
			names := make([]string, 0, len(required))
			for n := range required {
				names = append(names, n)
			}
			sort.Strings(names)
			return nil, cerr.New(cerr.DatumParse,
				fmt.Sprintf("record %s: no XML input for required field(s) %s", rec.Name(), strings.Join(names, ", ")))
		}
		for n := range required {
			result[n] = nil
		}
	}
	return result, nil
}

// buildAttrValue builds the datum for a single attribute, splitting on
// whitespace first when the attribute's declared type is an xs:list
// (array of scalars, not a repeated attribute -- attributes never
// repeat), whether or not the attribute is itself optional.
func (b *builder) buildAttrValue(f *avro.Field, text string) (interface{}, error) {
	ft := f.Type()
	if u, ok := ft.(*avro.UnionSchema); ok {
		ft = nonNullSchema(u)
	}
	if arr, ok := ft.(*avro.ArraySchema); ok {
		return b.buildListTokens(arr.Items(), text, fieldEncoding(f))
	}
	return b.buildLeaf(ft, text, fieldEncoding(f))
}

// buildListField builds the datum for an element-sourced field whose
// array-ness comes from an xs:list simple type rather than element
// repetition: child is the single matching element, and its whole
// text content is a whitespace-separated list of values belonging to
// one array, not one array entry.
func (b *builder) buildListField(f *avro.Field, child *xmltree.Element) (interface{}, error) {
	ft := f.Type()
	if u, ok := ft.(*avro.UnionSchema); ok {
		ft = nonNullSchema(u)
	}
	arr, ok := ft.(*avro.ArraySchema)
	if !ok {
		return nil, cerr.New(cerr.UnsupportedConstruct,
			fmt.Sprintf("list field %s: schema is %T, not an array", f.Name(), f.Type()))
	}
	return b.buildListTokens(arr.Items(), textContent(child), fieldEncoding(f))
}

// buildListTokens splits text on whitespace and parses each token as
// an item of itemSchema, the shared tail end of both the attribute and
// element xs:list paths.
func (b *builder) buildListTokens(itemSchema avro.Schema, text, enc string) (interface{}, error) {
	tokens := strings.Fields(text)
	items := make([]interface{}, 0, len(tokens))
	for _, tok := range tokens {
		v, err := b.buildLeaf(itemSchema, tok, enc)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// buildValue builds the datum for an element-sourced field: a nested
// record (recursing through any RefSchema to the node it names), an
// enum, or a scalar parsed from the element's text content.
func (b *builder) buildValue(schema avro.Schema, el *xmltree.Element, enc string) (interface{}, error) {
	switch s := schema.(type) {
	case *avro.RefSchema:
		return b.buildValue(s.Schema(), el, enc)
	case *avro.RecordSchema:
		return b.buildRecord(s, el)
	default:
		return b.buildLeaf(schema, textContent(el), enc)
	}
}

// buildLeaf builds the datum for a schema with no nested structure: an
// enum symbol or a scalar primitive.
func (b *builder) buildLeaf(schema avro.Schema, text string, enc string) (interface{}, error) {
	switch s := schema.(type) {
	case *avro.EnumSchema:
		return buildEnum(s, text)
	case *avro.PrimitiveSchema:
		return buildScalar(s, text, enc)
	default:
		return nil, cerr.New(cerr.UnsupportedConstruct, fmt.Sprintf("%T as a scalar value", schema))
	}
}

// buildEnum matches text against an enum schema's symbols, sanitizing
// it the same way translateEnum sanitized the original enumeration
// values, so the same XML text resolves to the same Avro symbol.
func buildEnum(s *avro.EnumSchema, text string) (interface{}, error) {
	san := &ident.Sanitizer{}
	sym := san.Sanitize(strings.TrimSpace(text))
	if sym == "" {
		sym = "_"
	}
	for _, candidate := range s.Symbols() {
		if candidate == sym {
			return sym, nil
		}
	}
	return nil, cerr.New(cerr.DatumParse, fmt.Sprintf("enum %s: %q is not a symbol", s.Name(), text))
}

// buildScalar parses text per the lexical rules of the Avro primitive
// kind the translator chose for it.
func buildScalar(s *avro.PrimitiveSchema, text string, enc string) (interface{}, error) {
	trimmed := strings.TrimSpace(text)
	switch s.Type() {
	case avro.Boolean:
		switch trimmed {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, cerr.New(cerr.DatumParse, fmt.Sprintf("boolean: %q", text))
	case avro.Int:
		v, err := strconv.ParseInt(trimmed, 10, 32)
		if err != nil {
			return nil, cerr.Wrap(cerr.DatumParse, text, err)
		}
		return int32(v), nil
	case avro.Long:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, cerr.Wrap(cerr.DatumParse, text, err)
		}
		return v, nil
	case avro.Float:
		v, err := strconv.ParseFloat(trimmed, 32)
		if err != nil {
			return nil, cerr.Wrap(cerr.DatumParse, text, err)
		}
		return float32(v), nil
	case avro.Double:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, cerr.Wrap(cerr.DatumParse, text, err)
		}
		return v, nil
	case avro.Bytes:
		return buildBytes(trimmed, enc)
	default:
		return text, nil
	}
}

// buildBytes decodes a bytes-typed field's lexical text according to
// the encoding recorded on the field at translation time, defaulting
// to base64 when none was recorded (schemas built by this module's own
// translate package always record one).
func buildBytes(text, enc string) ([]byte, error) {
	switch enc {
	case "hex":
		b, err := hex.DecodeString(text)
		if err != nil {
			return nil, cerr.Wrap(cerr.DatumParse, text, err)
		}
		return b, nil
	default:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, cerr.Wrap(cerr.DatumParse, text, err)
		}
		return b, nil
	}
}

// defaultsFor seeds a record's zero value: empty containers for array
// and map fields, null for nullable unions, and nothing yet for
// required scalar/record/enum fields -- those are tracked separately so
// a never-assigned one can be reported as a failure.
func defaultsFor(fields []*avro.Field) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		switch f.Type().(type) {
		case *avro.ArraySchema:
			result[f.Name()] = []interface{}{}
		case *avro.MapSchema:
			result[f.Name()] = map[string]interface{}{}
		case *avro.UnionSchema:
			result[f.Name()] = nil
		}
	}
	return result
}

// fieldSource reads and parses a field's "source" property.
func fieldSource(f *avro.Field) (source.Annotation, bool) {
	v, _ := f.Prop(source.PropKey).(string)
	return source.Parse(v)
}

// fieldEncoding reads the bytes-decoding hint a bytes-typed field
// carries, or "" for every other field.
func fieldEncoding(f *avro.Field) string {
	v, _ := f.Prop(source.EncodingPropKey).(string)
	return v
}

// fieldIsList reports whether f's array-ness comes from an xs:list
// simple type rather than element repetition.
func fieldIsList(f *avro.Field) bool {
	v, _ := f.Prop(source.ListPropKey).(string)
	return v == "true"
}

// nonNullSchema returns the non-null member of a [T,null] union, or s
// itself if s is not a union. The translator never produces any other
// union shape.
func nonNullSchema(s avro.Schema) avro.Schema {
	u, ok := s.(*avro.UnionSchema)
	if !ok {
		return s
	}
	for _, t := range u.Types() {
		if t.Type() != avro.Null {
			return t
		}
	}
	return s
}

// textContent concatenates all character data inside el, including
// that of nested elements, decoding entities the way encoding/xml
// would. el.Content is the raw byte range between el's start and end
// tags, so for a leaf element (no children) this is exactly its text
// value.
func textContent(el *xmltree.Element) string {
	d := xml.NewDecoder(bytes.NewReader(el.Content))
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return b.String()
}
