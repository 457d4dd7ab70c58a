package instance

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(lines *[]string) *LogObserver {
	log := funcr.New(func(prefix, args string) {
		*lines = append(*lines, args)
	}, funcr.Options{Verbosity: 1})
	return NewLogObserver(log)
}

func TestLogObserver_Event(t *testing.T) {
	t.Parallel()
	var lines []string
	obs := captureLogger(&lines).WithFields(map[string]string{"node": "web_1"})

	LogResourceCreated(obs, OpCreate, "i-123")

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg"="Created instance i-123"`)
	assert.Contains(t, lines[0], `"event"="resource.created"`)
	assert.Contains(t, lines[0], `"operation"="create"`)
	assert.Contains(t, lines[0], `"resource"="i-123"`)
	assert.Contains(t, lines[0], `"node"="web_1"`)
}

func TestLogObserver_Failure(t *testing.T) {
	t.Parallel()
	var lines []string
	obs := captureLogger(&lines)

	LogOperationFailed(obs, OpStop, errors.New("boom"))

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg"="stop failed: boom"`)
	assert.Contains(t, lines[0], `"error"="boom"`)
}

func TestLogObserver_ProgressIsVerbose(t *testing.T) {
	t.Parallel()
	var lines []string
	quiet := NewLogObserver(funcr.New(func(_, args string) { lines = append(lines, args) }, funcr.Options{}))

	quiet.Progress(OpCreate, 1, 5)
	assert.Empty(t, lines)

	verbose := captureLogger(&lines)
	verbose.Progress(OpCreate, 2, 5)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "poll 2/5")
}

func TestLogObserver_WithFieldsDoesNotLeak(t *testing.T) {
	t.Parallel()
	var lines []string
	base := captureLogger(&lines)
	_ = base.WithFields(map[string]string{"extra": "1"})

	LogOperationStart(base, OpDelete)
	require.Len(t, lines, 1)
	assert.False(t, strings.Contains(lines[0], "extra"))
}

func TestLogOperationComplete(t *testing.T) {
	t.Parallel()
	obs := &mockObserver{}
	LogOperationComplete(obs, OpCreate, 1500*time.Millisecond)

	msgs := obs.messages(EventOperationCompleted)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Completed create in 1.5s", msgs[0])
}
