package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("DXF_TRANSLATOR_MODE")
	os.Unsetenv("DXF_TRANSLATOR_HOST")
	os.Unsetenv("DXF_TRANSLATOR_PORT")
	os.Unsetenv("DXF_TRANSLATOR_DIR")
	os.Unsetenv("DXF_TRANSLATOR_LOGLEVEL")
	os.Unsetenv("DXF_TRANSLATOR_MAXFILESIZE")
	os.Unsetenv("DXF_TRANSLATOR_FONT")
	os.Unsetenv("DXF_TRANSLATOR_FONTREDUCTION")
	os.Unsetenv("DXF_TRANSLATOR_REPLACEMODE")
	os.Unsetenv("DXF_TRANSLATOR_WORKERS")
}

// withArgs runs LoadFromFlags under a controlled command line and
// restores global state afterwards.
func withArgs(t *testing.T, args []string, fn func() (*Config, error)) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()
	resetFlags()
	clearEnvVars()
	os.Args = args
	return fn()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := withArgs(t, []string{"test", "--dir=" + dir}, LoadFromFlags)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeStdio {
		t.Errorf("Expected mode 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.DrawingDirectory != dir {
		t.Errorf("Expected drawing directory '%s', got '%s'", dir, cfg.DrawingDirectory)
	}
	if cfg.FontName != DefaultFontName {
		t.Errorf("Expected font '%s', got '%s'", DefaultFontName, cfg.FontName)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Expected %d workers, got %d", DefaultWorkers, cfg.Workers)
	}
}

func TestLoadFromFlags_ServerMode(t *testing.T) {
	dir := t.TempDir()
	cfg, err := withArgs(t, []string{
		"test", "--mode=server", "--host=0.0.0.0", "--port=8081", "--dir=" + dir,
	}, LoadFromFlags)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeServer {
		t.Errorf("Expected mode 'server', got '%s'", cfg.Mode)
	}
	if cfg.Address() != "0.0.0.0:8081" {
		t.Errorf("Expected address '0.0.0.0:8081', got '%s'", cfg.Address())
	}
}

func TestLoadFromFlags_TranslationFlags(t *testing.T) {
	dir := t.TempDir()
	cfg, err := withArgs(t, []string{
		"test", "--dir=" + dir,
		"--font=SimSun", "--fontreduction=2.5", "--replacemode",
		"--mintextlength=2", "--maxtextlength=500", "--workers=8",
	}, LoadFromFlags)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.FontName != "SimSun" {
		t.Errorf("Expected font 'SimSun', got '%s'", cfg.FontName)
	}
	if cfg.FontReduction != 2.5 {
		t.Errorf("Expected font reduction 2.5, got %v", cfg.FontReduction)
	}
	if !cfg.ReplaceMode {
		t.Error("Expected replace mode to be enabled")
	}
	if cfg.MinTextLength != 2 || cfg.MaxTextLength != 500 {
		t.Errorf("Expected text length window [2, 500], got [%d, %d]", cfg.MinTextLength, cfg.MaxTextLength)
	}
	if cfg.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Workers)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("DXF_TRANSLATOR_LOGLEVEL", "debug")
	os.Setenv("DXF_TRANSLATOR_FONT", "Arial")
	defer clearEnvVars()

	cfg, err := withArgs(t, []string{"test", "--dir=" + dir}, LoadFromFlags)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug' from environment, got '%s'", cfg.LogLevel)
	}
	if cfg.FontName != "Arial" {
		t.Errorf("Expected font 'Arial' from environment, got '%s'", cfg.FontName)
	}
	if !cfg.IsDebug() {
		t.Error("Expected IsDebug() to be true")
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("DXF_TRANSLATOR_FONT", "Arial")
	defer clearEnvVars()

	cfg, err := withArgs(t, []string{"test", "--dir=" + dir, "--font=SimSun"}, LoadFromFlags)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.FontName != "SimSun" {
		t.Errorf("Expected flag to override environment, got '%s'", cfg.FontName)
	}
}

func TestLoadFromFlags_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := withArgs(t, []string{"test", "--dir=" + dir, "--mode=bogus"}, LoadFromFlags)
	if err == nil {
		t.Fatal("LoadFromFlags() expected error for invalid mode")
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := withArgs(t, []string{"test", "--version"}, LoadFromFlags)
	if err == nil {
		t.Fatal("LoadFromFlags() expected version-requested error")
	}
}
