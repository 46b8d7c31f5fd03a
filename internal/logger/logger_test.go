package logger

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func productionEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zap.NewProductionConfig().EncoderConfig)
}

func TestProperty_LogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every entry encodes to JSON with level, timestamp and message", prop.ForAll(
		func(message string, level string) bool {
			core, logs := observer.New(zapcore.DebugLevel)
			log := zap.New(core)

			switch level {
			case "debug":
				log.Debug(message)
			case "warn":
				log.Warn(message)
			case "error":
				log.Error(message)
			default:
				log.Info(message)
			}

			entries := logs.All()
			if len(entries) != 1 {
				return false
			}

			buf, err := productionEncoder().EncodeEntry(entries[0].Entry, nil)
			if err != nil {
				return false
			}

			var decoded map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				return false
			}

			if _, ok := decoded["ts"]; !ok {
				return false
			}
			return decoded["level"] == level && decoded["msg"] == message
		},
		gen.AnyString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ErrorFieldsSurviveEncoding(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("structured fields attached to errors are preserved", prop.ForAll(
		func(message string, requestID string) bool {
			core, logs := observer.New(zapcore.DebugLevel)
			log := zap.New(core)

			log.Error(message, zap.String("request_id", requestID))

			entries := logs.All()
			if len(entries) != 1 {
				return false
			}

			fields := entries[0].ContextMap()
			return fields["request_id"] == requestID
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewProductionLogger(t *testing.T) {
	log, err := New("production")
	if err != nil {
		t.Fatalf("New(production) failed: %v", err)
	}
	defer log.Sync()

	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should log at info level")
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not log at debug level")
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	log, err := New("development")
	if err != nil {
		t.Fatalf("New(development) failed: %v", err)
	}
	defer log.Sync()

	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should log at debug level")
	}
}

func TestNewWithDefaultsFallsBackToDevelopment(t *testing.T) {
	t.Setenv("SERVER_ENV", "")

	log := NewWithDefaults()
	defer log.Sync()

	if log == nil {
		t.Fatal("NewWithDefaults returned nil")
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("default environment should be development with debug enabled")
	}
}
