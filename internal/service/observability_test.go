package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestLogUseCaseObserver_LevelsByOutcome(t *testing.T) {
	var buf bytes.Buffer
	obs := service.NewLogUseCaseObserver(logging.NewWithWriter(&buf, slog.LevelDebug, logging.FormatJSON))

	obs.ObserveUseCase(context.Background(), service.UseCaseEvent{
		Name:    "create-plan",
		Success: true,
		Fields:  map[string]any{"topic": "Go"},
	})
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
	assert.Contains(t, buf.String(), `"use_case":"create-plan"`)
	assert.Contains(t, buf.String(), `"topic":"Go"`)

	buf.Reset()
	obs.ObserveUseCase(context.Background(), service.UseCaseEvent{
		Name: "delete-plan",
		Err:  errors.New("boom"),
	})
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"err":"boom"`)
}

func TestNewLogUseCaseObserver_NilLogger(t *testing.T) {
	assert.IsType(t, service.NoopUseCaseObserver{}, service.NewLogUseCaseObserver(nil))
}

func TestMultiUseCaseObserver_ForwardsToEach(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	multi := service.MultiUseCaseObserver{a, nil, b}

	multi.ObserveUseCase(context.Background(), service.UseCaseEvent{Name: "login"})
	assert.Equal(t, "login", a.last().Name)
	assert.Equal(t, "login", b.last().Name)
}
