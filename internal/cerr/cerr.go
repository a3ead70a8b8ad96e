// Package cerr defines the single error family surfaced by schema
// translation and datum building: ConverterError, with a sub-reason
// carried alongside the message rather than as distinct error types.
package cerr

import "fmt"

// Reason classifies why a conversion failed. The zero value is never
// produced by this package.
type Reason string

// The conversion failure reasons named in the error handling design.
const (
	MissingNamespace          Reason = "missing-namespace"
	UnsupportedConstruct      Reason = "unsupported-xsd-construct"
	SchemaValidation          Reason = "schema-validation"
	XMLParse                  Reason = "xml-parse"
	DatumParse                Reason = "datum-parse"
	NameCollisionUnresolvable Reason = "name-collision-unresolvable"
)

// ConverterError is the single failure kind for this module. Every
// conversion failure, whatever its cause, is reported through this
// type; Reason distinguishes the cause for callers that care, and
// Context carries the offending XSD/XML construct or value.
type ConverterError struct {
	Reason  Reason
	Context string
	Err     error
}

func (e *ConverterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xml-avro: %s: %s: %v", e.Reason, e.Context, e.Err)
	}
	return fmt.Sprintf("xml-avro: %s: %s", e.Reason, e.Context)
}

func (e *ConverterError) Unwrap() error { return e.Err }

// New builds a ConverterError with no wrapped cause.
func New(reason Reason, context string) *ConverterError {
	return &ConverterError{Reason: reason, Context: context}
}

// Wrap builds a ConverterError around an existing error.
func Wrap(reason Reason, context string, err error) *ConverterError {
	return &ConverterError{Reason: reason, Context: context, Err: err}
}

// List aggregates multiple errors encountered during a single call
// (e.g. one per failing global root element of a schema), in the
// style of the teacher's own errorList (xsdgen.go). A List with no
// entries is not a failure; callers should check Len() before use.
type List []error

func (l List) Error() string {
	s := ""
	for i, err := range l {
		if i > 0 {
			s += "; "
		}
		s += err.Error()
	}
	return s
}

// Len reports how many errors have been collected.
func (l List) Len() int { return len(l) }
