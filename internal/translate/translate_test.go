package translate

import (
	"strings"
	"testing"

	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/source"
)

type testLogger testing.T

func (t *testLogger) Printf(format string, v ...interface{}) {
	t.Logf(format, v...)
}

func fieldByName(t *testing.T, rec *avro.RecordSchema, name string) *avro.Field {
	t.Helper()
	for _, f := range rec.Fields() {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("record %s has no field %q", rec.Name(), name)
	return nil
}

func TestTranslateSinglePrimitiveRoot(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="count" type="xs:int"/>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	prim, ok := schema.(*avro.PrimitiveSchema)
	if !ok {
		t.Fatalf("expected *avro.PrimitiveSchema, got %T", schema)
	}
	if prim.Type() != avro.Int {
		t.Errorf("got type %s, want int", prim.Type())
	}
}

func TestTranslateSingleComplexRoot(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="person" type="tns:PersonType"/>
  <xs:complexType name="PersonType">
    <xs:sequence>
      <xs:element name="name" type="xs:string"/>
      <xs:element name="nickname" type="xs:string" minOccurs="0"/>
      <xs:element name="tag" type="xs:string" maxOccurs="unbounded"/>
    </xs:sequence>
    <xs:attribute name="id" type="xs:int" use="required"/>
    <xs:attribute name="secret" type="xs:string" use="prohibited"/>
  </xs:complexType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := schema.(*avro.RecordSchema)
	if !ok {
		t.Fatalf("expected *avro.RecordSchema, got %T", schema)
	}
	if rec.Name() != "person" {
		t.Errorf("got record name %q, want %q (the element's name, not the type's)", rec.Name(), "person")
	}

	if f := fieldByName(t, rec, "name"); f.Type().Type() != avro.String {
		t.Errorf("name field: got %s, want string", f.Type().Type())
	}
	if f := fieldByName(t, rec, "nickname"); f.Type().Type() != avro.Union {
		t.Errorf("nickname field: got %s, want union", f.Type().Type())
	}
	if f := fieldByName(t, rec, "tag"); f.Type().Type() != avro.Array {
		t.Errorf("tag field: got %s, want array", f.Type().Type())
	}
	if f := fieldByName(t, rec, "id"); f.Type().Type() != avro.Int {
		t.Errorf("id field: got %s, want int", f.Type().Type())
	}
	for _, f := range rec.Fields() {
		if f.Name() == "secret" {
			t.Errorf("prohibited attribute secret should not produce a field")
		}
	}
}

func TestTranslateMultipleRootsWrapInDocument(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="ping" type="xs:string"/>
  <xs:element name="pong" type="xs:string"/>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := schema.(*avro.RecordSchema)
	if !ok {
		t.Fatalf("expected *avro.RecordSchema, got %T", schema)
	}
	if rec.Name() != "document" {
		t.Errorf("got record name %q, want document", rec.Name())
	}
	if len(rec.Fields()) != 2 {
		t.Fatalf("got %d fields, want 2", len(rec.Fields()))
	}
	for _, name := range []string{"ping", "pong"} {
		if f := fieldByName(t, rec, name); f.Type().Type() != avro.Union {
			t.Errorf("%s field: got %s, want union", name, f.Type().Type())
		}
	}
}

func TestTranslateChoiceMakesBranchesOptional(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="shape" type="tns:ShapeType"/>
  <xs:complexType name="ShapeType">
    <xs:choice>
      <xs:element name="circle" type="xs:string"/>
      <xs:element name="square" type="xs:string"/>
    </xs:choice>
  </xs:complexType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec := schema.(*avro.RecordSchema)
	for _, name := range []string{"circle", "square"} {
		if f := fieldByName(t, rec, name); f.Type().Type() != avro.Union {
			t.Errorf("%s field: got %s, want union (choice branches are always optional)", name, f.Type().Type())
		}
	}
}

func TestTranslateEnumAndList(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="order" type="tns:OrderType"/>
  <xs:complexType name="OrderType">
    <xs:sequence>
      <xs:element name="status" type="tns:StatusType"/>
      <xs:element name="codes" type="tns:CodeListType"/>
    </xs:sequence>
  </xs:complexType>
  <xs:simpleType name="StatusType">
    <xs:restriction base="xs:string">
      <xs:enumeration value="open"/>
      <xs:enumeration value="closed"/>
    </xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="CodeListType">
    <xs:list itemType="xs:int"/>
  </xs:simpleType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec := schema.(*avro.RecordSchema)

	status := fieldByName(t, rec, "status")
	enum, ok := status.Type().(*avro.EnumSchema)
	if !ok {
		t.Fatalf("status field: expected *avro.EnumSchema, got %T", status.Type())
	}
	if len(enum.Symbols()) != 2 {
		t.Errorf("got %d symbols, want 2", len(enum.Symbols()))
	}

	codes := fieldByName(t, rec, "codes")
	arr, ok := codes.Type().(*avro.ArraySchema)
	if !ok {
		t.Fatalf("codes field: expected *avro.ArraySchema, got %T", codes.Type())
	}
	if arr.Items().Type() != avro.Int {
		t.Errorf("codes items: got %s, want int", arr.Items().Type())
	}
}

// TestTranslateNameCollisionBetweenAttributeAndElement covers §8's
// boundary behavior: an attribute and a child element sharing a local
// name produce two distinct fields rather than one overwriting the
// other. translateComplexType walks attributes before elements, so
// the attribute claims the bare name and the element is suffixed 0.
func TestTranslateNameCollisionBetweenAttributeAndElement(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="widget" type="tns:WidgetType"/>
  <xs:complexType name="WidgetType">
    <xs:sequence>
      <xs:element name="status" type="xs:string"/>
    </xs:sequence>
    <xs:attribute name="status" type="xs:string" use="required"/>
  </xs:complexType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec := schema.(*avro.RecordSchema)
	if len(rec.Fields()) != 2 {
		t.Fatalf("got %d fields, want 2", len(rec.Fields()))
	}

	bare := fieldByName(t, rec, "status")
	ann, ok := source.Parse(bare.Prop(source.PropKey).(string))
	if !ok || !ann.IsAttribute() {
		t.Errorf("field %q: got annotation %+v, want the attribute", bare.Name(), ann)
	}

	suffixed := fieldByName(t, rec, "status0")
	ann, ok = source.Parse(suffixed.Prop(source.PropKey).(string))
	if !ok || ann.IsAttribute() {
		t.Errorf("field %q: got annotation %+v, want the element", suffixed.Name(), ann)
	}
}

// TestTranslateListElementStampsListPropKey covers the xs:list
// supplemented feature: a non-repeating element whose type is an
// xs:list simple type must carry ListPropKey so the datum builder
// knows to split its text on whitespace instead of treating the
// field as one array entry per occurrence.
func TestTranslateListElementStampsListPropKey(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="order" type="tns:OrderType"/>
  <xs:complexType name="OrderType">
    <xs:sequence>
      <xs:element name="codes" type="tns:CodeListType"/>
    </xs:sequence>
  </xs:complexType>
  <xs:simpleType name="CodeListType">
    <xs:list itemType="xs:int"/>
  </xs:simpleType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec := schema.(*avro.RecordSchema)
	codes := fieldByName(t, rec, "codes")
	if v, _ := codes.Prop(source.ListPropKey).(string); v != "true" {
		t.Errorf("codes field: ListPropKey = %q, want %q", v, "true")
	}
}

func TestTranslateWildcardCollapsesToSingleMap(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="envelope" type="tns:EnvelopeType"/>
  <xs:complexType name="EnvelopeType">
    <xs:sequence>
      <xs:any minOccurs="0" maxOccurs="unbounded" processContents="lax"/>
      <xs:any minOccurs="0" namespace="##other" processContents="lax"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec := schema.(*avro.RecordSchema)
	if len(rec.Fields()) != 1 {
		t.Fatalf("got %d fields, want 1 (both xs:any collapse into one)", len(rec.Fields()))
	}
	f := rec.Fields()[0]
	if f.Name() != source.WildcardField {
		t.Errorf("got field name %q, want %q", f.Name(), source.WildcardField)
	}
	if _, ok := f.Type().(*avro.MapSchema); !ok {
		t.Errorf("expected *avro.MapSchema, got %T", f.Type())
	}
}

func TestTranslateSelfReferenceUsesRef(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:test" xmlns:tns="urn:test">
  <xs:element name="node" type="tns:NodeType"/>
  <xs:complexType name="NodeType">
    <xs:sequence>
      <xs:element name="label" type="xs:string"/>
      <xs:element name="child" type="tns:NodeType" minOccurs="0" maxOccurs="unbounded"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`

	schema, err := Translate(Options{}, []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	rec := schema.(*avro.RecordSchema)
	child := fieldByName(t, rec, "child")
	arr, ok := child.Type().(*avro.ArraySchema)
	if !ok {
		t.Fatalf("child field: expected *avro.ArraySchema, got %T", child.Type())
	}
	if _, ok := arr.Items().(*avro.RefSchema); !ok {
		t.Errorf("self-referencing item: expected *avro.RefSchema, got %T", arr.Items())
	}
}

func TestTranslateMissingNamespace(t *testing.T) {
	const doc = `<?xml version="1.0"?><root/>`
	_, err := Translate(Options{}, []byte(doc))
	if err == nil {
		t.Fatal("expected an error for a non xsd:schema document")
	}
	msg := err.Error()
	if !strings.Contains(msg, "namespace") {
		t.Errorf("error message %q does not mention namespace", msg)
	}
	if !strings.Contains(msg, "http://www.w3.org/2001/XMLSchema") {
		t.Errorf("error message %q does not mention the expected XSD namespace URL", msg)
	}
}
