package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	yamlbind "github.com/reoring/yamlbind"
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
	case "json":
		jsonCmd(os.Args[2:])
	case "fmt":
		fmtCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "yamlbind CLI\n\nUsage:\n  yamlbind validate [-dup error|first|last] [file]\n  yamlbind json [file]\n  yamlbind fmt [-indent N] [-noblock] [file]\n\nReads stdin when no file is given.")
}

func readInput(args []string) []byte {
	var r io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return data
}

func dupPolicy(name string) yamlbind.DuplicateKeyPolicy {
	switch name {
	case "first":
		return yamlbind.DuplicateFirstWins
	case "last":
		return yamlbind.DuplicateLastWins
	default:
		return yamlbind.DuplicateError
	}
}

// validateCmd materialises every document, reporting the first error with
// a source snippet.
func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var dup string
	fs.StringVar(&dup, "dup", "error", "duplicate-key policy: error, first or last")
	_ = fs.Parse(args)

	data := readInput(fs.Args())
	opt := yamlbind.Options{DuplicateKeys: dupPolicy(dup), WithSnippet: true}
	dec := yamlbind.NewDecoderBytes(data, opt)
	docs := 0
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		docs++
	}
	fmt.Printf("ok: %d document(s)\n", docs)
}

// jsonCmd converts one YAML document to JSON on stdout.
func jsonCmd(args []string) {
	fs := flag.NewFlagSet("json", flag.ExitOnError)
	_ = fs.Parse(args)

	data := readInput(fs.Args())
	out, err := yamlbind.ToJSON(data, yamlbind.Options{WithSnippet: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
	fmt.Println()
}

// fmtCmd re-emits every document in the canonical block style.
func fmtCmd(args []string) {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	var indent int
	var noblock bool
	fs.IntVar(&indent, "indent", 2, "indentation step, 1..9")
	fs.BoolVar(&noblock, "noblock", false, "double-quote multiline strings instead of literal blocks")
	_ = fs.Parse(args)

	data := readInput(fs.Args())
	dec := yamlbind.NewDecoderBytes(data, yamlbind.Options{
		DuplicateKeys: yamlbind.DuplicateLastWins,
		WithSnippet:   true,
	})
	enc := yamlbind.NewEncoder(os.Stdout, yamlbind.EncodeOptions{
		IndentStep:     indent,
		NoBlockScalars: noblock,
	})
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := enc.Encode(v); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
