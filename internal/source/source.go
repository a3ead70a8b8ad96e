// Package source describes the XML origin of an Avro field: the
// provenance annotation carried as the "source" property on fields
// and synthetic records produced by the translate package, and read
// back by the datum package.
package source

import "strings"

// Kind identifies the flavor of XML construct a field was derived from.
type Kind int

const (
	// None marks a field with no single XML origin: the wildcard
	// map field, or a schema not derived from a named XML construct.
	None Kind = iota
	// Element marks a field populated from a child element.
	Element
	// Attribute marks a field populated from an attribute.
	Attribute
	// Document is the sentinel for the synthetic record wrapping
	// multiple global root elements.
	Document
)

// Annotation is the provenance recorded on an Avro field or record.
type Annotation struct {
	Kind Kind
	// Name is the original XML local name. Empty for Document and None.
	Name string
}

// Elem returns the annotation for a field populated from the child
// element named name.
func Elem(name string) Annotation { return Annotation{Kind: Element, Name: name} }

// Attr returns the annotation for a field populated from the
// attribute named name.
func Attr(name string) Annotation { return Annotation{Kind: Attribute, Name: name} }

// Doc is the sentinel annotation for the synthetic multi-root record.
var Doc = Annotation{Kind: Document}

// NoSource is the annotation for fields with no single XML origin.
var NoSource = Annotation{Kind: None}

// IsAttribute reports whether the annotation originates from an
// XML attribute.
func (a Annotation) IsAttribute() bool { return a.Kind == Attribute }

// String renders the annotation the way it is observed in the
// "source" schema property: "element <name>", "attribute <name>",
// the literal "document", or "" for None.
func (a Annotation) String() string {
	switch a.Kind {
	case Element:
		return "element " + a.Name
	case Attribute:
		return "attribute " + a.Name
	case Document:
		return "document"
	default:
		return ""
	}
}

// Parse recovers an Annotation from its string form, as stored in a
// field's "source" property. Used by the datum builder to route XML
// attributes and children back to the field that claims them.
func Parse(s string) (Annotation, bool) {
	switch {
	case s == "":
		return Annotation{}, false
	case s == "document":
		return Doc, true
	case strings.HasPrefix(s, "element "):
		return Elem(strings.TrimPrefix(s, "element ")), true
	case strings.HasPrefix(s, "attribute "):
		return Attr(strings.TrimPrefix(s, "attribute ")), true
	default:
		return Annotation{}, false
	}
}

// PropKey is the name of the Avro schema property carrying the
// serialized Annotation.
const PropKey = "source"

// WildcardField is the reserved field name for the map synthesized
// to receive xs:any wildcard matches.
const WildcardField = "others"

// EncodingPropKey is the name of the Avro field property recording how
// a bytes-typed field's lexical text should be decoded ("hex" for
// xs:hexBinary, "base64" for xs:base64Binary). avro.PrimitiveSchema
// carries no properties of its own, so this distinction -- lost once
// both map to the same Avro "bytes" type -- is carried on the field.
const EncodingPropKey = "encoding"

// ListPropKey is the name of the Avro field property, set to "true",
// marking an array-typed field whose array-ness comes from an
// xs:list simple type rather than element repetition (maxOccurs>1).
// Both shapes translate to the same Avro array<T>, but the datum
// builder needs to tell them apart: a repeated element contributes
// one array entry per occurrence in the XML, while an xs:list field
// is a single element whose text is a whitespace-separated list of
// values, all belonging to one array.
const ListPropKey = "list"
