package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	sink.Emit(Start("deploy", "promptpack", "project", 4))
	sink.Emit(Compiled("deploy", 7))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "start", first["event"])
	assert.Equal(t, "deploy", first["command"])
	assert.Equal(t, "promptpack", first["source"])
	assert.Equal(t, float64(4), first["asset_count"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "compiled", second["event"])
	assert.Equal(t, float64(7), second["output_count"])
}

func TestCompleteStatusSuccessWhenNoErrors(t *testing.T) {
	e := Complete("deploy", 5, 1, 0, 0)
	assert.Equal(t, "success", e.Status)
}

func TestCompleteStatusPartialWithErrors(t *testing.T) {
	e := Complete("deploy", 5, 1, 2, 0)
	assert.Equal(t, "partial", e.Status)
}

func TestOmitEmptyHidesUnusedFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)
	sink.Emit(ItemWritten("deploy", 0, "a.md"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	_, hasReason := m["reason"]
	_, hasError := m["error"]
	assert.False(t, hasReason)
	assert.False(t, hasError)
}

func TestJSONSinkIsSafeForConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink.Emit(ItemWritten("deploy", i, "a.md"))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 50)
}

func TestNoopSinkDiscardsEvents(t *testing.T) {
	assert.NotPanics(t, func() {
		NoopSink{}.Emit(Start("deploy", "a", "b", 1))
	})
}
