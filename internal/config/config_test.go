package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "mcp-dxf-translator" {
		t.Errorf("Expected default server name to be 'mcp-dxf-translator', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 200*1024*1024 {
		t.Errorf("Expected default max file size to be 200MB, got %d", cfg.MaxFileSize)
	}

	if cfg.FontName != DefaultFontName {
		t.Errorf("Expected default font to be '%s', got '%s'", DefaultFontName, cfg.FontName)
	}

	if cfg.FontReduction != DefaultFontReduction {
		t.Errorf("Expected default font reduction to be %v, got %v", DefaultFontReduction, cfg.FontReduction)
	}

	if cfg.ReplaceMode {
		t.Error("Expected default substitution mode to recreate entities")
	}

	if cfg.MinTextLength != DefaultMinTextLength || cfg.MaxTextLength != DefaultMaxTextLength {
		t.Errorf("Expected default text length window [%d, %d], got [%d, %d]",
			DefaultMinTextLength, DefaultMaxTextLength, cfg.MinTextLength, cfg.MaxTextLength)
	}

	if cfg.Workers != DefaultWorkers {
		t.Errorf("Expected default worker count to be %d, got %d", DefaultWorkers, cfg.Workers)
	}

	// Test that drawing directory is set to current working directory by default
	currentDir, _ := os.Getwd()
	if cfg.DrawingDirectory != currentDir {
		t.Errorf("Expected default drawing directory to be '%s', got '%s'", currentDir, cfg.DrawingDirectory)
	}
}

// validBase returns a config that passes validation, rooted in a temp
// directory so Validate's create-if-missing path stays isolated.
func validBase(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DrawingDirectory = t.TempDir()
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config - stdio mode",
			mutate: func(c *Config) {},
		},
		{
			name: "valid config - server mode",
			mutate: func(c *Config) {
				c.Mode = ModeServer
			},
		},
		{
			name: "invalid mode",
			mutate: func(c *Config) {
				c.Mode = "invalid"
			},
			wantErr: "mode must be either",
		},
		{
			name: "invalid port - too low",
			mutate: func(c *Config) {
				c.Mode = ModeServer
				c.Port = 0
			},
			wantErr: "port must be between",
		},
		{
			name: "invalid port - too high",
			mutate: func(c *Config) {
				c.Mode = ModeServer
				c.Port = 70000
			},
			wantErr: "port must be between",
		},
		{
			name: "port ignored in stdio mode",
			mutate: func(c *Config) {
				c.Port = 0
			},
		},
		{
			name: "empty drawing directory",
			mutate: func(c *Config) {
				c.DrawingDirectory = ""
			},
			wantErr: "drawing directory cannot be empty",
		},
		{
			name: "zero max file size",
			mutate: func(c *Config) {
				c.MaxFileSize = 0
			},
			wantErr: "maximum file size must be positive",
		},
		{
			name: "empty font name",
			mutate: func(c *Config) {
				c.FontName = ""
			},
			wantErr: "font name cannot be empty",
		},
		{
			name: "negative font reduction",
			mutate: func(c *Config) {
				c.FontReduction = -1
			},
			wantErr: "font reduction cannot be negative",
		},
		{
			name: "zero font reduction is allowed",
			mutate: func(c *Config) {
				c.FontReduction = 0
			},
		},
		{
			name: "minimum text length below one",
			mutate: func(c *Config) {
				c.MinTextLength = 0
			},
			wantErr: "minimum text length",
		},
		{
			name: "maximum text length below minimum",
			mutate: func(c *Config) {
				c.MinTextLength = 10
				c.MaxTextLength = 5
			},
			wantErr: "maximum text length",
		},
		{
			name: "zero workers",
			mutate: func(c *Config) {
				c.Workers = 0
			},
			wantErr: "workers must be at least 1",
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.LogLevel = "verbose"
			},
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreatesMissingDirectory(t *testing.T) {
	cfg := validBase(t)
	cfg.DrawingDirectory = filepath.Join(cfg.DrawingDirectory, "drawings", "incoming")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	info, err := os.Stat(cfg.DrawingDirectory)
	if err != nil {
		t.Fatalf("Expected drawing directory to be created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected created path to be a directory")
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 9090}

	if got := cfg.Address(); got != "localhost:9090" {
		t.Errorf("Address() = '%s', want 'localhost:9090'", got)
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if !cfg.IsDebug() {
		t.Error("Expected IsDebug() to be true for debug log level")
	}

	cfg.LogLevel = "info"
	if cfg.IsDebug() {
		t.Error("Expected IsDebug() to be false for info log level")
	}
}

func TestConfigModeHelpers(t *testing.T) {
	cfg := &Config{Mode: ModeStdio}
	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("Expected stdio mode helpers to report stdio")
	}

	cfg.Mode = ModeServer
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("Expected server mode helpers to report server")
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:             ModeServer,
		Host:             "0.0.0.0",
		Port:             8081,
		DrawingDirectory: "/drawings",
		LogLevel:         "warn",
		MaxFileSize:      1024,
		ReplaceMode:      true,
	}

	got := cfg.String()
	for _, want := range []string{"server", "0.0.0.0", "8081", "/drawings", "warn", "1024", "true"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, want it to contain %q", got, want)
		}
	}
}
