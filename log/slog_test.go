package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"testing"
)

type setupType struct {
	logger *RelayLogger
	buffer bytes.Buffer
}

func beforeEach(t *testing.T) *setupType {
	var r setupType

	err := InitLoggerWithWriter("info", "json", &r.buffer, false)
	if err != nil {
		t.Fatal(err)
	}

	r.logger = GetLogger()

	return &r
}

type logType struct {
	Time   string
	Level  string
	Source struct {
		Function string
		File     string
		Line     int
	}
	Msg    string
	Stack  string
	Error  string
	Module string `json:"module"`
	LaneID string `json:"lane id"`
}

func parseResult(setup *setupType, t *testing.T) (string, logType) {
	raw := setup.buffer.String()
	var parsed logType

	err := json.Unmarshal(setup.buffer.Bytes(), &parsed)
	if err != nil {
		t.Fatalf("fail to parse log: %v: %s", err, raw)
	}

	return raw, parsed
}

func TestLogLevel(t *testing.T) {
	setup := beforeEach(t)

	setup.logger.log(context.Background(), slog.LevelDebug, 0, "test")
	if 0 < setup.buffer.Len() {
		t.Fatalf("debug log is output: %s", setup.buffer.String())
	}
}

func TestLogLog(t *testing.T) {
	setup := beforeEach(t)

	setup.logger.log(context.Background(), slog.LevelInfo, 0, "test")
	raw, r := parseResult(setup, t)

	if r.Level != "INFO" {
		t.Fatalf("mismatch level: %s", raw)
	}

	if m, err := regexp.MatchString(`/log.TestLogLog$`, r.Source.Function); err != nil || !m {
		t.Fatalf("mismatch source.function: %v", raw)
	}
}

func TestLogError(t *testing.T) {
	setup := beforeEach(t)

	setup.logger.Error("testerr", fmt.Errorf("dummy"))
	raw, r := parseResult(setup, t)

	if r.Level != "ERROR" {
		t.Fatalf("mismatch level: %s", raw)
	}

	if m, err := regexp.MatchString(`/log.TestLogError$`, r.Source.Function); err != nil || !m {
		t.Fatalf("mismatch source.function: %v", raw)
	}

	if r.Error != "dummy" {
		t.Fatalf("mismatch error: %s", raw)
	}
}

func TestLogErrorWithStack(t *testing.T) {
	setup := beforeEach(t)

	setup.logger.ErrorWithStack("testerr", fmt.Errorf("dummy"))
	raw, r := parseResult(setup, t)

	if r.Error != "dummy" {
		t.Fatalf("mismatch error: %s", raw)
	}
	if m, err := regexp.MatchString(`TestLogErrorWithStack`, r.Stack); err != nil || !m {
		t.Fatalf("stack does not contain the caller: %v", raw)
	}
}

func TestLogWithLane(t *testing.T) {
	setup := beforeEach(t)

	setup.logger.WithModule("core.race").WithLane("00000001").Info("test")
	raw, r := parseResult(setup, t)

	if r.Module != "core.race" || r.LaneID != "00000001" {
		t.Fatalf("mismatch attributes: %s", raw)
	}
}

func TestInitLoggerInvalid(t *testing.T) {
	if err := InitLogger("VERBOSE", "json", "stdout", false); err == nil {
		t.Fatal("invalid level is accepted")
	}
	if err := InitLogger("INFO", "xml", "stdout", false); err == nil {
		t.Fatal("invalid format is accepted")
	}
	if err := InitLogger("INFO", "json", "file", false); err == nil {
		t.Fatal("invalid output is accepted")
	}
}
