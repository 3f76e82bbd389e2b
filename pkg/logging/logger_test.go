package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		testMsg  string
		contains string
	}{
		{
			name: "info_level",
			config: Config{
				Level:  LevelInfo,
				Pretty: false,
				Output: &bytes.Buffer{},
			},
			testMsg:  "First page loaded",
			contains: "First page loaded",
		},
		{
			name: "debug_level",
			config: Config{
				Level:  LevelDebug,
				Pretty: false,
				Output: &bytes.Buffer{},
			},
			testMsg:  "Cache hit",
			contains: "Cache hit",
		},
		{
			name: "warn_level",
			config: Config{
				Level:  LevelWarn,
				Pretty: false,
				Output: &bytes.Buffer{},
			},
			testMsg:  "Store unavailable, falling back to upstream",
			contains: "Store unavailable",
		},
		{
			name: "error_level",
			config: Config{
				Level:  LevelError,
				Pretty: false,
				Output: &bytes.Buffer{},
			},
			testMsg:  "Page load failed",
			contains: "Page load failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.config.Output = buf

			logger := Setup(tt.config)

			// Test that logger writes to the configured output
			switch tt.config.Level {
			case LevelDebug:
				logger.Debug().Msg(tt.testMsg)
			case LevelInfo:
				logger.Info().Msg(tt.testMsg)
			case LevelWarn:
				logger.Warn().Msg(tt.testMsg)
			case LevelError:
				logger.Error().Msg(tt.testMsg)
			}

			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got %q", tt.contains, output)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("list-controller")
	logger.Info().Str("endpoint", "/products").Int("page", 2).Msg("Next page loaded")

	output := buf.String()
	if !strings.Contains(output, "list-controller") {
		t.Errorf("Expected output to contain 'list-controller', got %q", output)
	}
	if !strings.Contains(output, "Next page loaded") {
		t.Errorf("Expected output to contain 'Next page loaded', got %q", output)
	}
	if !strings.Contains(output, "/products") {
		t.Errorf("Expected output to contain the endpoint field, got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelWarn,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("cache")

	// These should NOT appear (below warn level)
	logger.Debug().Msg("Cache hit")
	logger.Info().Msg("Entry registered")

	// These SHOULD appear (warn level and above)
	logger.Warn().Msg("Corrupt store entry")
	logger.Error().Msg("Producer failed")

	output := buf.String()

	if strings.Contains(output, "Cache hit") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(output, "Entry registered") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(output, "Corrupt store entry") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "Producer failed") {
		t.Error("Error message should be included at Warn level")
	}
}
