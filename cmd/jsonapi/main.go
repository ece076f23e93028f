package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/reoring/jsonapi"
	"github.com/reoring/jsonapi/registry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "validate":
		validateCmd(os.Args[2:])
	case "fields":
		fieldsCmd(os.Args[2:])
	case "types":
		typesCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "jsonapi CLI\n\nUsage:\n  jsonapi validate -types types.yaml [-strict] [-dup error] [-max-depth N] [-max-bytes N] [-errors] [file]\n  jsonapi fields -types types.yaml -f articles=title,body [-f people=name] [-indent '  '] [file]\n  jsonapi types -types types.yaml\n\nNotes:\n  - The document is read from stdin when no file is given.\n  - Resource types are declared in YAML; see package registry.")
}

// common holds the flags shared by every subcommand.
type common struct {
	types   string
	verbose bool
	prod    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.types, "types", "", "YAML file declaring the resource types")
	fs.BoolVar(&c.verbose, "v", false, "enable debug logs")
	fs.BoolVar(&c.prod, "log-json", false, "write logs as JSON (production encoder)")
}

// setup installs the logger and loads the registry.
func (c *common) setup(fs *flag.FlagSet) (*registry.Registry, *zap.Logger) {
	if c.types == "" {
		fs.Usage()
		os.Exit(2)
	}
	log := newLogger(c.verbose, c.prod)
	jsonapi.SetLogger(log)
	reg, err := registry.Load(c.types)
	if err != nil {
		fatalf("loading %s: %v", c.types, err)
	}
	log.Debug("registry loaded", zap.String("path", c.types), zap.Strings("types", reg.Names()))
	return reg, log
}

func newLogger(verbose, production bool) *zap.Logger {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var c common
	c.register(fs)
	var strict, errorsDoc, failFast, tryAll bool
	var dup string
	var maxDepth int
	var maxBytes int64
	fs.BoolVar(&strict, "strict", false, "reject unknown members")
	fs.BoolVar(&failFast, "fail-fast", false, "stop at the first issue")
	fs.BoolVar(&tryAll, "try-all", false, "keep trying include candidates after a type match fails")
	fs.BoolVar(&errorsDoc, "errors", false, "print failures as a JSON:API errors document")
	fs.StringVar(&dup, "dup", "ignore", "duplicate key handling: ignore, warn or error")
	fs.IntVar(&maxDepth, "max-depth", 0, "maximum nesting depth (0 disables)")
	fs.Int64Var(&maxBytes, "max-bytes", 0, "maximum document size in bytes (0 disables)")
	_ = fs.Parse(args)
	reg, log := c.setup(fs)
	defer func() { _ = log.Sync() }()

	sev, err := parseSeverity(dup)
	if err != nil {
		fatalf("%v", err)
	}
	opt := jsonapi.DecodeOpt{
		Strictness: jsonapi.Strictness{OnDuplicateKey: sev},
		MaxDepth:   maxDepth,
		MaxBytes:   maxBytes,
		FailFast:   failFast,
	}
	if strict {
		opt.UnknownFields = jsonapi.UnknownStrict
	}
	if tryAll {
		opt.Includes = jsonapi.IncludeTryAll
	}

	data := readInput(fs.Arg(0))
	doc, err := reg.Decode(context.Background(), data, opt)
	if err != nil {
		iss, ok := jsonapi.AsIssues(err)
		if !ok {
			fatalf("decode: %v", err)
		}
		if errorsDoc {
			out, encErr := reg.Encode(context.Background(), registry.Document{Errors: jsonapi.ErrorsFromIssues(iss, 422)}, jsonapi.EncodeOpt{Indent: "  "})
			if encErr != nil {
				fatalf("encode errors: %v", encErr)
			}
			fmt.Println(string(out))
			os.Exit(1)
		}
		for _, it := range iss {
			fmt.Fprintf(os.Stderr, "%s\t%s\t%s\n", it.Path, it.Code, firstLine(it.Message))
		}
		var ie *jsonapi.IncludeError
		if errors.As(err, &ie) {
			log.Debug("include diagnostics", zap.String("detail", ie.Error()))
		}
		os.Exit(1)
	}
	printSummary(doc)
}

func printSummary(doc registry.Document) {
	switch {
	case doc.Errors != nil:
		fmt.Printf("errors document: %d error(s)\n", len(doc.Errors))
		for _, e := range doc.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	case doc.Many:
		fmt.Printf("data: %d resource(s)\n", len(doc.Data))
	case doc.Null:
		fmt.Println("data: null")
	case len(doc.Data) == 1:
		fmt.Printf("data: %s\n", doc.Data[0].Identifier())
	default:
		fmt.Println("meta-only document")
	}
	if len(doc.Data) > 0 && doc.Many {
		for _, r := range doc.Data {
			fmt.Printf("  %s\n", r.Identifier())
		}
	}
	if len(doc.Included) > 0 {
		fmt.Printf("included: %d resource(s)\n", len(doc.Included))
		for _, r := range doc.Included {
			fmt.Printf("  %s\n", r.Identifier())
		}
	}
}

func fieldsCmd(args []string) {
	fs := flag.NewFlagSet("fields", flag.ExitOnError)
	var c common
	c.register(fs)
	fields := fieldsetsFlag{}
	var indent string
	fs.Var(fields, "f", "sparse fieldset as type=a,b (repeatable)")
	fs.StringVar(&indent, "indent", "", "indentation for pretty output")
	_ = fs.Parse(args)
	reg, log := c.setup(fs)
	defer func() { _ = log.Sync() }()

	doc, err := reg.Decode(context.Background(), readInput(fs.Arg(0)))
	if err != nil {
		fatalf("decode: %v", err)
	}
	out, err := reg.Encode(context.Background(), doc, jsonapi.EncodeOpt{Fieldsets: jsonapi.Fieldsets(fields), Indent: indent})
	if err != nil {
		fatalf("encode: %v", err)
	}
	fmt.Println(string(out))
}

func typesCmd(args []string) {
	fs := flag.NewFlagSet("types", flag.ExitOnError)
	var c common
	c.register(fs)
	_ = fs.Parse(args)
	reg, log := c.setup(fs)
	defer func() { _ = log.Sync() }()

	var out struct {
		Types []*registry.TypeSpec `yaml:"types"`
	}
	for _, name := range reg.SortedNames() {
		spec, _ := reg.Type(name)
		out.Types = append(out.Types, spec)
	}
	b, err := yaml.Marshal(out)
	if err != nil {
		fatalf("marshal: %v", err)
	}
	fmt.Print(string(b))
}

// fieldsetsFlag collects repeated -f type=a,b values. An empty list after
// "=" selects no attributes for the type.
type fieldsetsFlag map[string][]string

func (f fieldsetsFlag) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+strings.Join(v, ","))
	}
	return strings.Join(parts, " ")
}

func (f fieldsetsFlag) Set(s string) error {
	typ, list, ok := strings.Cut(s, "=")
	if !ok || typ == "" {
		return fmt.Errorf("want type=a,b, got %q", s)
	}
	names := []string{}
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	f[typ] = names
	return nil
}

func parseSeverity(s string) (jsonapi.Severity, error) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return jsonapi.Ignore, nil
	case "warn":
		return jsonapi.Warn, nil
	case "error":
		return jsonapi.Error, nil
	}
	return 0, fmt.Errorf("unknown duplicate key mode %q", s)
}

func readInput(path string) []byte {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatalf("reading input: %v", err)
	}
	return data
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
