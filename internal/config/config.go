package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/pagerange"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Output formats for the command line tool
	FormatJSON = "json"
	FormatYAML = "yaml"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultColumnsPerPage = 1
	DefaultWorkers        = 1

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_PDF"
)

// ErrVersionRequested is returned by Load when --version is on the command line.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the PDF annotation server and CLI
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string
	Password     string // tried on encrypted documents

	// Extraction configuration
	ColumnsPerPage int
	Workers        int

	// Application configuration
	Version      string
	ServerName   string
	LogLevel     string
	MaxFileSize  int64  // Maximum PDF file size in bytes
	OutputFormat string // "json" or "yaml", command line tool only
	Pages        string // page selection such as "1-3,5", command line tool only
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:           ModeStdio, // Default to stdio mode for MCP compatibility
		Host:           DefaultHost,
		Port:           DefaultPort,
		PDFDirectory:   currentDir,
		ColumnsPerPage: DefaultColumnsPerPage,
		Workers:        DefaultWorkers,
		Version:        "1.0.0",
		ServerName:     "mcp-pdf-annots",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
		OutputFormat:   FormatJSON,
	}
}

// LoadFromFlags parses the process command line and environment.
func LoadFromFlags() (*Config, error) {
	cfg, _, err := Load(os.Args[0], os.Args[1:])
	return cfg, err
}

// Load parses args and MCP_PDF_* environment variables into a validated
// configuration. Flags win over the environment, which wins over defaults.
// The positional arguments left after flag parsing are returned as well.
func Load(name string, args []string) (*Config, []string, error) {
	cfg := DefaultConfig()

	if checkVersionFlag(args) {
		return nil, nil, ErrVersionRequested
	}

	v := newViper(cfg)
	fs := newFlagSet(name, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, fs.Args(), nil
}

// newViper configures a viper instance with environment variables and defaults
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("password", cfg.Password)
	v.SetDefault("columns", cfg.ColumnsPerPage)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("format", cfg.OutputFormat)
	v.SetDefault("pages", cfg.Pages)
	return v
}

// newFlagSet defines all command line flags
func newFlagSet(name string, cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	fs.String("password", cfg.Password, "Password for encrypted PDF files")
	fs.Int("columns", cfg.ColumnsPerPage, "Number of text columns per page")
	fs.Int("workers", cfg.Workers, "Annotations correlated concurrently per page")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("format", cfg.OutputFormat, "Output format for the command line tool (json, yaml)")
	fs.String("pages", cfg.Pages, "Pages to extract, e.g. 1-3,5 (command line tool only)")
	fs.Usage = usage(name, fs)
	return fs
}

// usage returns the custom usage message
func usage(name string, fs *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", name)
		fmt.Fprintf(os.Stderr, "\nMCP PDF Annots - extract highlights, notes and outlines from PDF files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", name)
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --columns=2         "+
			"# two-column papers\n", name)
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", name)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MODE        Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_DIR         PDF directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_PASSWORD    Document password\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_COLUMNS     Columns per page\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_WORKERS     Correlation workers\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MAXFILESIZE Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_FORMAT      Output format\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_PAGES       Page selection\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.Password = v.GetString("password")
	cfg.ColumnsPerPage = v.GetInt("columns")
	cfg.Workers = v.GetInt("workers")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.OutputFormat = strings.ToLower(v.GetString("format"))
	cfg.Pages = v.GetString("pages")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.ColumnsPerPage < 1 {
		return errors.New("columns per page must be at least 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.OutputFormat != FormatJSON && c.OutputFormat != FormatYAML {
		return fmt.Errorf("invalid output format: %s (must be json or yaml)", c.OutputFormat)
	}

	if _, err := pagerange.Parse(c.Pages); err != nil {
		return err
	}

	return nil
}

// PageNumbers returns the one-based pages selected with --pages, or nil
// when every page is wanted.
func (c *Config) PageNumbers() []int {
	pages, err := pagerange.ParsePages(c.Pages)
	if err != nil {
		return nil
	}
	return pages
}

// ExtractionOptions threads the extraction settings into engine options.
func (c *Config) ExtractionOptions() extraction.Options {
	opts := extraction.DefaultOptions()
	opts.ColumnsPerPage = c.ColumnsPerPage
	opts.Workers = c.Workers
	return opts
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The
// password is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, Columns: %d, Workers: %d, "+
		"LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.ColumnsPerPage, c.Workers, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
