// Command xsd2avro translates an XSD schema to an Avro schema, and
// optionally builds an Avro datum from an XML instance document
// conforming to it.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/wouterdb/xml-avro/convert"
	"github.com/wouterdb/xml-avro/internal/commandline"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	var (
		xsdFiles     commandline.Files
		renameRules  commandline.NameRewrites
		fs           = flag.NewFlagSet("xsd2avro", flag.ContinueOnError)
		xmlFile      = fs.String("xml", "", "XML instance document to build a datum from")
		output       = fs.String("o", "", "output file (defaults to stdout)")
		wildcardName = fs.String("wildcard", "", "field name for xs:any content (default \"others\")")
	)
	fs.Var(&xsdFiles, "xsd", "XSD document (can be used multiple times; the first is the primary schema)")
	fs.Var(&renameRules, "r", "rename rule 'regex -> repl', applied to XML names before sanitizing (can be used multiple times)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(xsdFiles) == 0 {
		return errors.New("usage: xsd2avro -xsd schema.xsd [-xsd imported.xsd ...] [-xml instance.xml] [-o file]")
	}

	var opts []convert.Option
	opts = append(opts, convert.LogOutput(stdLogger{}))
	if *wildcardName != "" {
		opts = append(opts, convert.WildcardName(*wildcardName))
	}
	for _, r := range renameRules {
		opts = append(opts, convert.Rename(r.Pattern, r.Replacement))
	}

	docs := make([][]byte, 0, len(xsdFiles))
	for _, name := range xsdFiles {
		data, err := ioutil.ReadFile(name)
		if err != nil {
			return err
		}
		docs = append(docs, data)
	}

	schema, err := convert.NewSchema(docs, opts...)
	if err != nil {
		return err
	}

	var out []byte
	if *xmlFile != "" {
		xmlData, err := ioutil.ReadFile(*xmlFile)
		if err != nil {
			return err
		}
		d, err := convert.NewDatum(schema, xmlData, opts...)
		if err != nil {
			return err
		}
		out, err = json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
	} else {
		out, err = json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
	}

	if *output == "" {
		fmt.Println(string(out))
		return nil
	}
	return ioutil.WriteFile(*output, append(out, '\n'), 0666)
}

type stdLogger struct{}

func (stdLogger) Printf(format string, v ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, format, v...)
}
