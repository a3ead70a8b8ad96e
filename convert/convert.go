// Package convert is the public entry point for this module: it turns
// an XSD document into an Avro schema, and an XML instance document
// conforming to that schema into an Avro generic datum.
//
// Both directions are synchronous, pure functions of their inputs --
// safe to call concurrently from independent goroutines, since neither
// keeps state beyond a single call.
package convert

import (
	"regexp"

	"github.com/hamba/avro/v2"

	"github.com/wouterdb/xml-avro/internal/datum"
	"github.com/wouterdb/xml-avro/internal/translate"
)

// Logger receives diagnostic messages about non-fatal decisions made
// during a conversion, such as a union-of-simple-types falling back to
// Avro string, or an unmapped document-level root being dropped.
type Logger interface {
	Printf(format string, v ...interface{})
}

// options is the private configuration shared by NewSchema and
// NewDatum, built up by Option functions the way the teacher's
// xsdgen.Config is built up by xsdgen.Option functions.
type options struct {
	logger               Logger
	wildcardName         string
	rename               []translate.Rename
	allowMissingRequired bool
}

// Option configures a single call to NewSchema or NewDatum.
type Option func(*options)

// LogOutput sets the logger that receives diagnostic messages. The
// default is a no-op logger.
func LogOutput(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WildcardName overrides the field name synthesized for xs:any
// wildcard content. The default is "others".
func WildcardName(name string) Option {
	return func(o *options) { o.wildcardName = name }
}

// Rename rewrites XML local names matching pattern to repl before they
// are sanitized into Avro identifiers, in the style of a command-line
// "-r pattern -> repl" rule. Rules apply in the order given.
func Rename(pattern *regexp.Regexp, repl string) Option {
	return func(o *options) {
		o.rename = append(o.rename, translate.Rename{From: pattern, To: repl})
	}
}

// AllowMissingRequired relaxes NewDatum so a non-nullable scalar field
// with no matching XML attribute or element is left nil instead of
// failing the build. The default is to fail, per the source's
// "prefer failure" guidance for this unspecified case.
func AllowMissingRequired() Option {
	return func(o *options) { o.allowMissingRequired = true }
}

type logAdapter struct{ l Logger }

func (a logAdapter) Printf(format string, v ...interface{}) { a.l.Printf(format, v...) }

// NewSchema translates one or more XSD documents -- a primary schema
// plus any number of imported/included fragments -- into the Avro
// schema graph for the primary document's target namespace.
func NewSchema(xsdDocs [][]byte, opts ...Option) (avro.Schema, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tOpts := translate.Options{
		WildcardName: cfg.wildcardName,
		Rename:       cfg.rename,
	}
	if cfg.logger != nil {
		tOpts.Logger = logAdapter{cfg.logger}
	}
	return translate.Translate(tOpts, xsdDocs...)
}

// NewDatum parses xmlText against schema (as produced by NewSchema)
// and builds the Avro generic datum it describes.
func NewDatum(schema avro.Schema, xmlText []byte, opts ...Option) (interface{}, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dOpts := datum.Options{AllowMissingRequired: cfg.allowMissingRequired}
	if cfg.logger != nil {
		dOpts.Logger = logAdapter{cfg.logger}
	}
	return datum.Build(schema, xmlText, dOpts)
}
