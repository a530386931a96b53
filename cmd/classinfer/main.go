package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/inference"
	"github.com/funvibe/classinfer/internal/pipeline"
	"github.com/funvibe/classinfer/internal/prettyprinter"
	"github.com/funvibe/classinfer/internal/store"
	"github.com/sanity-io/litter"
)

const usage = `Usage:
  %[1]s check [-config file] [-print] [-dump] [-db path] unit.yaml
  %[1]s literal <text> [unit]
`

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}
	switch os.Args[1] {
	case "check":
		os.Exit(runCheck(os.Args[2:]))
	case "literal":
		os.Exit(runLiteral(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "options file (default: "+config.OptionsFileName+" next to the unit)")
	printUnit := fs.Bool("print", false, "print the unit annotated with inferred types")
	dump := fs.Bool("dump", false, "dump the full report")
	dbPath := fs.String("db", "", "SQLite database to store the report in")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		return 2
	}
	unitPath := fs.Arg(0)

	opts, err := loadOptions(*configPath, unitPath)
	if err != nil {
		log.Print(err)
		return 2
	}
	if *dbPath != "" {
		opts.Database = *dbPath
	}

	ctx := pipeline.NewPipelineContext(unitPath, opts)
	if opts.Trace {
		ctx.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var db *store.Store
	if opts.Database != "" {
		db, err = store.Open(context.Background(), opts.Database)
		if err != nil {
			log.Print(err)
			return 2
		}
		defer db.Close()
	}

	ctx = pipeline.Check(db).Run(ctx)
	for _, err := range ctx.Errors {
		log.Print(err)
	}
	if *printUnit && ctx.Unit != nil {
		var annotate prettyprinter.Annotator
		if ctx.Inferer != nil {
			annotate = func(n ast.Node) string { return ctx.Inferer.TypeString(n) }
		}
		p := prettyprinter.NewAnnotatedPrinter(annotate)
		p.Print(ctx.Unit)
		fmt.Print(p.String())
	}
	if ctx.Report != nil && !*printUnit {
		for _, a := range ctx.Report.Annotations {
			if a.Kind == "FunctionDefinition" || a.Kind == "TypeDefinition" || a.Kind == "TypeClassDefinition" {
				fmt.Printf("%s %s: %s\n", a.Location, a.Kind, a.Type)
			}
		}
	}
	if ctx.Report != nil {
		if *dump {
			litter.Dump(ctx.Report)
		}
		if db != nil {
			fmt.Printf("stored run %s\n", ctx.Report.RunID)
		}
	}
	if errs := ctx.Reporter.Errors(); len(errs) > 0 {
		diagnostics.NewPrinter(os.Stderr, opts.Color).PrintAll(errs)
	}
	if ctx.HasErrors() {
		return 1
	}
	return 0
}

func loadOptions(explicit, unitPath string) (*config.Options, error) {
	path := explicit
	if path == "" {
		path = config.FindOptions(filepath.Dir(unitPath))
	}
	if path == "" {
		return config.DefaultOptions(), nil
	}
	return config.LoadOptions(path)
}

func runLiteral(args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		return 2
	}
	unit := ast.UnitNone
	if len(args) == 2 {
		u, ok := ast.ParseUnit(args[1])
		if !ok {
			log.Printf("unknown unit %q", args[1])
			return 2
		}
		unit = u
	}
	value, ok := inference.ParseRational(args[0], unit, config.DefaultMaxLiteralBits)
	switch {
	case !ok:
		fmt.Println("rejected: invalid number literal")
		return 1
	case !value.IsInt():
		fmt.Printf("rejected: %s is not an integer\n", value.RatString())
		return 1
	}
	fmt.Println(value.RatString())
	return 0
}
