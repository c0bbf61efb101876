package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogBufferKeepsLastLines(t *testing.T) {
	t.Parallel()

	buf := NewLogBuffer(2)
	for _, line := range []string{"a", "b", "c"} {
		_, err := buf.Write([]byte(line))
		require.NoError(t, err)
	}

	require.Equal(t, []string{"b", "c"}, buf.Lines())
}

func TestNewTeesIntoExtraWriter(t *testing.T) {
	t.Parallel()

	buf := NewLogBuffer(10)
	logger, err := New(Options{JSON: true, Extra: buf})
	require.NoError(t, err)

	logger.Info("job completed", zap.String("job_id", "j1"))
	logger.Debug("not at info level")

	lines := buf.Lines()
	require.Len(t, lines, 1)
	require.True(t, strings.Contains(lines[0], `"job_id":"j1"`), lines[0])
}
