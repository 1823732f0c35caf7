// Command pdfannots prints the annotations and outline of PDF files as JSON
// or YAML.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-pdf-annots/internal/config"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run extracts every file named in args and writes one document per file.
// Files that cannot be read are reported on stderr and make the exit code
// non-zero; the remaining files are still printed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, files, err := config.Load("pdfannots", args)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if len(files) == 0 {
		fmt.Fprintf(stderr, "Error: PDF file path required\n\n")
		printUsage(stderr)
		return 2
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.IsDebug() {
		logger = log.New(stderr, "pdfannots: ", log.LstdFlags)
	}

	factory := wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
		MaxFileSize: cfg.MaxFileSize,
		Password:    cfg.Password,
		DebugMode:   cfg.IsDebug(),
		Logger:      logger,
	})
	extractor := pdf.NewExtractor(factory, cfg.ExtractionOptions(), logger)

	code := 0
	results := make([]*pdf.PDFAnnotationsResult, 0, len(files))
	for _, file := range files {
		result, err := extractFile(ctx, extractor, file, cfg.PageNumbers())
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", file, err)
			code = 1
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for _, d := range result.Diagnostics {
			fmt.Fprintf(stderr, "Warning: %s: %v\n", file, d)
		}
		result.Diagnostics = nil
		results = append(results, result)
	}

	if err := outputResults(stdout, cfg.OutputFormat, results); err != nil {
		fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
		return 1
	}
	return code
}

func extractFile(ctx context.Context, extractor *pdf.Extractor, file string, pages []int) (*pdf.PDFAnnotationsResult, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	return extractor.Annotations(ctx, path, pdf.PDFAnnotationsRequest{Path: path, Pages: pages})
}

func outputResults(w io.Writer, format string, results []*pdf.PDFAnnotationsResult) error {
	switch format {
	case config.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case config.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(results); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdfannots [--columns N] [--format json|yaml] [--pages 1-3,5] [--password P] <pdf_file>...")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "pdfannots\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
