package enginelog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/enginelog"
)

func TestThresholdFiltersBelowAndRecordsAtOrAbove(t *testing.T) {
	l := enginelog.New(16)

	// Default threshold is LevelWarn.
	l.Logf(enginelog.ComponentArena, enginelog.LevelInfo, "filtered")
	l.Logf(enginelog.ComponentArena, enginelog.LevelWarn, "recorded")

	var entries [4]enginelog.Entry
	n := l.Recent(entries[:])
	require.Equal(t, 1, n)
	require.Equal(t, "recorded", entries[0].Message())
	require.Equal(t, uint64(1), l.Filtered())

	l.SetThreshold(enginelog.ComponentArena, enginelog.LevelTrace)
	l.Logf(enginelog.ComponentArena, enginelog.LevelTrace, "now visible")
	n = l.Recent(entries[:])
	require.Equal(t, 2, n)
	require.Equal(t, "now visible", entries[0].Message(), "Recent returns newest first")
	require.Equal(t, "recorded", entries[1].Message())
}

func TestRingWrapCountsOverwrites(t *testing.T) {
	l := enginelog.New(16) // raised to the minimum ring capacity
	l.SetThreshold(enginelog.ComponentMixer, enginelog.LevelTrace)

	for i := 0; i < 20; i++ {
		l.Logf(enginelog.ComponentMixer, enginelog.LevelTrace, "entry %d", i)
	}

	require.Equal(t, uint64(4), l.Overwritten())

	var entries [32]enginelog.Entry
	n := l.Recent(entries[:])
	require.Equal(t, 16, n, "only the ring's capacity is retained")
	require.Equal(t, "entry 19", entries[0].Message())
	require.Equal(t, "entry 4", entries[n-1].Message())
}

func TestLongMessagesAreCutAndFlagged(t *testing.T) {
	l := enginelog.New(16)

	long := strings.Repeat("x", enginelog.MessageBytes+40)
	l.Logf(enginelog.ComponentResources, enginelog.LevelError, "%s", long)

	var entries [1]enginelog.Entry
	require.Equal(t, 1, l.Recent(entries[:]))
	require.True(t, entries[0].Truncated)
	require.Len(t, entries[0].Message(), enginelog.MessageBytes)
}

func TestSinkReceivesWarningsAndErrorsOnly(t *testing.T) {
	l := enginelog.New(16)
	l.SetThreshold(enginelog.ComponentFrame, enginelog.LevelTrace)

	var lines []string
	l.SetSink(func(line string) { lines = append(lines, line) })

	l.Logf(enginelog.ComponentFrame, enginelog.LevelTrace, "quiet")
	l.Logf(enginelog.ComponentFrame, enginelog.LevelError, "loud")

	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "loud")
	require.Contains(t, lines[0], "ERROR")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *enginelog.Logger
	l.Logf(enginelog.ComponentPool, enginelog.LevelError, "into the void")
	l.SetThreshold(enginelog.ComponentPool, enginelog.LevelTrace)
	l.SetSink(func(string) {})
	require.Equal(t, 0, l.Recent(make([]enginelog.Entry, 4)))
	require.Zero(t, l.Overwritten())
	require.Zero(t, l.Filtered())
}
