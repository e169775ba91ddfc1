// Command minidb is the single-table relational database engine's
// interactive shell: `minidb <filename>` opens (or creates) the
// database file and drops into a `minidb> ` prompt reading SQL and
// "." meta-commands from stdin.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"minidb/catalog"
	"minidb/repl"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug-level structured logging")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Must supply a database filename.")
		os.Exit(1)
	}
	filename := flag.Arg(0)

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger setup:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, err := repl.NewContext(filename, catalog.DefaultOptions(), logger)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}

	if err := repl.Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("repl terminated", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
