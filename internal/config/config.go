package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxFileSize   = 200 * 1024 * 1024 // 200MB; ASCII drawings get large
	DefaultFontName      = "Times New Roman"
	DefaultFontReduction = 4.0
	DefaultMinTextLength = 1
	DefaultMaxTextLength = 1000
	DefaultWorkers       = 4

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the DXF translation server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Drawing configuration
	DrawingDirectory string
	MaxFileSize      int64 // Maximum drawing file size in bytes

	// Translation configuration
	FontName      string
	FontReduction float64
	ReplaceMode   bool
	MinTextLength int
	MaxTextLength int
	Workers       int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		DrawingDirectory: currentDir,
		MaxFileSize:      DefaultMaxFileSize,
		FontName:         DefaultFontName,
		FontReduction:    DefaultFontReduction,
		ReplaceMode:      false,
		MinTextLength:    DefaultMinTextLength,
		MaxTextLength:    DefaultMaxTextLength,
		Workers:          DefaultWorkers,
		Version:          "1.0.0",
		ServerName:       "mcp-dxf-translator",
		LogLevel:         DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.DrawingDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DrawingDirectory); err == nil {
			cfg.DrawingDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("DXF_TRANSLATOR")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DrawingDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("font", cfg.FontName)
	viper.SetDefault("fontreduction", cfg.FontReduction)
	viper.SetDefault("replacemode", cfg.ReplaceMode)
	viper.SetDefault("mintextlength", cfg.MinTextLength)
	viper.SetDefault("maxtextlength", cfg.MaxTextLength)
	viper.SetDefault("workers", cfg.Workers)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DrawingDirectory, "Directory containing DXF drawings")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum drawing file size in bytes")
	pflag.String("font", cfg.FontName, "Font assigned to translated text")
	pflag.Float64("fontreduction", cfg.FontReduction, "Height reduction applied to translated text")
	pflag.Bool("replacemode", cfg.ReplaceMode, "Edit entities in place instead of recreating them")
	pflag.Int("mintextlength", cfg.MinTextLength, "Minimum extracted text length in characters")
	pflag.Int("maxtextlength", cfg.MaxTextLength, "Maximum extracted text length in characters")
	pflag.Int("workers", cfg.Workers, "Concurrent documents in directory translation")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"font", "fontreduction", "replacemode", "mintextlength", "maxtextlength", "workers",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP DXF Translator - a Model Context Protocol server for extracting and translating drawing text\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/drawings                  "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/drawings    # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_MODE           Server mode\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_DIR            Drawing directory\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_LOGLEVEL       Log level\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_MAXFILESIZE    Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_FONT           Translated text font\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_FONTREDUCTION  Translated text height reduction\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_REPLACEMODE    In-place substitution mode\n")
		fmt.Fprintf(os.Stderr, "  DXF_TRANSLATOR_WORKERS        Batch worker count\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DrawingDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.FontName = viper.GetString("font")
	cfg.FontReduction = viper.GetFloat64("fontreduction")
	cfg.ReplaceMode = viper.GetBool("replacemode")
	cfg.MinTextLength = viper.GetInt("mintextlength")
	cfg.MaxTextLength = viper.GetInt("maxtextlength")
	cfg.Workers = viper.GetInt("workers")
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

	// Validate drawing directory
	if c.DrawingDirectory == "" {
		return errors.New("drawing directory cannot be empty")
	}

	// Check if drawing directory exists, create if it doesn't
	if _, err := os.Stat(c.DrawingDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DrawingDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create drawing directory %s: %w", c.DrawingDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access drawing directory %s: %w", c.DrawingDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate translation settings
	if c.FontName == "" {
		return errors.New("font name cannot be empty")
	}
	if c.FontReduction < 0 {
		return errors.New("font reduction cannot be negative")
	}
	if c.MinTextLength < 1 {
		return errors.New("minimum text length must be at least 1")
	}
	if c.MaxTextLength < c.MinTextLength {
		return errors.New("maximum text length must not be below the minimum")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
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

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DrawingDirectory: %s, LogLevel: %s, MaxFileSize: %d, ReplaceMode: %t}",
		c.Mode, c.Host, c.Port, c.DrawingDirectory, c.LogLevel, c.MaxFileSize, c.ReplaceMode)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
