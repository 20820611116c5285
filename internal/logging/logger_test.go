package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func setupTestLogger(level string) (*StandardLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewStandardLoggerTo(Options{Level: level, Environment: "test"}, &buf), &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNewStandardLogger_LogLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warning", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, buf := setupTestLogger(tt.level)
			logger.Logger().Debug("debug line")
			assert.Equal(t, tt.debugSeen, strings.Contains(buf.String(), "debug line"))
			logger.Logger().Info("info line")
			assert.Equal(t, tt.infoSeen, strings.Contains(buf.String(), "info line"))
		})
	}
}

func TestStandardLogger_ContextHelpers(t *testing.T) {
	logger, buf := setupTestLogger("info")

	logger.WithComponent("poller").Info("x")
	assert.Equal(t, "poller", lastEntry(t, buf)["component"])
	assert.Equal(t, "test", lastEntry(t, buf)["environment"])

	logger.WithExchange("kraken").Info("x")
	assert.Equal(t, "kraken", lastEntry(t, buf)["exchange"])

	logger.WithSymbol("BTC").Info("x")
	assert.Equal(t, "BTC", lastEntry(t, buf)["symbol"])

	logger.WithRequestID("req-1").Info("x")
	assert.Equal(t, "req-1", lastEntry(t, buf)["request_id"])

	logger.WithError(errors.New("boom")).Error("x")
	assert.Equal(t, "boom", lastEntry(t, buf)["error"])
}

func TestStandardLogger_Events(t *testing.T) {
	logger, buf := setupTestLogger("info")

	logger.LogStartup("cryptogap", "1.0.0", 8080)
	entry := lastEntry(t, buf)
	assert.Equal(t, "startup", entry["event"])
	assert.Equal(t, float64(8080), entry["port"])

	logger.LogShutdown("cryptogap", "signal")
	assert.Equal(t, "signal", lastEntry(t, buf)["reason"])

	logger.LogAPIRequest("GET", "/health", 503, 12, "req-2")
	entry = lastEntry(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, float64(503), entry["status"])

	logger.LogBusinessEvent("new_top_opportunity", map[string]interface{}{"symbol": "ETH"})
	entry = lastEntry(t, buf)
	assert.Equal(t, "new_top_opportunity", entry["event_type"])
	assert.Equal(t, "ETH", entry["symbol"])
}

func TestStandardLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	var stdout bytes.Buffer
	logger := NewStandardLoggerTo(Options{Level: "info", File: path}, &stdout)

	logger.Logger().Info("to both sinks")
	require.NoError(t, logger.Close(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both sinks")
	assert.Contains(t, stdout.String(), "to both sinks")
}

func TestParseLogrusLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogrusLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("warn"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLogrusLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel(""))
}

type memoryExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func attrsOf(r sdklog.Record) map[string]otellog.Value {
	out := make(map[string]otellog.Value)
	r.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestOTLPHandler(t *testing.T) {
	exporter := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	logger := slog.New(NewOTLPHandler(provider.Logger("test"), slog.LevelInfo))
	logger.Debug("dropped")
	logger.With("component", "poller").WithGroup("cycle").Warn("slow cycle", "opportunities", 3, "ok", true)

	require.Len(t, exporter.records, 1)
	record := exporter.records[0]
	assert.Equal(t, "slow cycle", record.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, record.Severity())

	attrs := attrsOf(record)
	assert.Equal(t, "poller", attrs["component"].AsString())
	assert.Equal(t, int64(3), attrs["cycle.opportunities"].AsInt64())
	assert.True(t, attrs["cycle.ok"].AsBool())
}

func TestTeeHandler(t *testing.T) {
	var a, b bytes.Buffer
	tee := teeHandler{
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	logger := slog.New(tee).With("k", "v")

	logger.Debug("only a")
	logger.Error("both")

	assert.Contains(t, a.String(), "only a")
	assert.NotContains(t, b.String(), "only a")
	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), `"k":"v"`)
}

func TestNewStandardOTLPLogger_Disabled(t *testing.T) {
	logger := NewStandardOTLPLogger(OTLPConfig{Options: Options{Level: "info"}})
	require.NotNil(t, logger)
	assert.Nil(t, logger.shutdown)
	assert.NoError(t, logger.Close(context.Background()))
}

func TestConvertSlogLevelToSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, convertSlogLevelToSeverity(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, convertSlogLevelToSeverity(slog.LevelInfo))
	assert.Equal(t, otellog.SeverityWarn, convertSlogLevelToSeverity(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, convertSlogLevelToSeverity(slog.LevelError+4))
}
