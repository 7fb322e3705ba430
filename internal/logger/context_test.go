package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test"})

	ctx := base.WithContext(context.Background())
	ctx = SetJobID(ctx, "job-42")
	ctx = SetPhase(ctx, "law_analysis")
	ctx = SetRequestID(ctx, "req-1")

	assert.Equal(t, "job-42", GetJobID(ctx))
	assert.Equal(t, "law_analysis", GetPhase(ctx))

	WithCount(7).WithDuration(12).Info(ctx, "phase %s done", "law_analysis")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "job-42", line[FieldJobID])
	assert.Equal(t, "law_analysis", line[FieldPhase])
	assert.Equal(t, "req-1", line[FieldRequestID])
	assert.Equal(t, float64(7), line[FieldCount])
	assert.Equal(t, float64(12), line[FieldDurationMs])
	assert.Equal(t, "phase law_analysis done", line["message"])
	assert.Equal(t, "test", line["service"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, GetDefault(), FromContext(context.Background()))
	assert.Empty(t, GetJobID(context.Background()))
}
