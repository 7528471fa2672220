// Package main is the microdb server entry point.
//
// EDUCATIONAL NOTES:
// ------------------
// Startup here is a short, linear sequence: parse flags, open the
// database directory (which also replays any tables already on disk),
// start the HTTP server, and on shutdown flush every dirty buffered
// page before exiting. There is no REPL -- the structured requests
// spec.md describes arrive over HTTP instead of through a SQL
// tokenizer, so this entry point's only job is wiring, not parsing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cabewaldrop/microdb/internal/api"
	"github.com/cabewaldrop/microdb/internal/engine"
)

const (
	version = "0.1.0"
	banner  = `
  microdb %s
  a small single-process relational database engine
`
)

func main() {
	dataDir := flag.String("data", "microdb-data", "Path to the data directory")
	addr := flag.String("addr", ":8080", "Address to listen on")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("microdb version %s\n", version)
		return
	}

	fmt.Printf(banner, version)

	db, err := engine.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database at %s: %v\n", *dataDir, err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
		}
	}()

	srv := api.NewServer(*addr, db)
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running server: %v\n", err)
		os.Exit(1)
	}
}
