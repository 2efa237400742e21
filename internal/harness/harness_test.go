package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestScenariosGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunResolvesMessages(t *testing.T) {
	result, err := Run(loadScenario(t, "quote"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	msg, ok := result.Message("Quote")
	require.True(t, ok)
	assert.Len(t, msg.Hash, 64)
	require.Len(t, msg.Tokens, 11)
	assert.Equal(t, "BigEndian", msg.Tokens[8].ByteOrder)
	assert.Equal(t, "optional", msg.Tokens[8].Constraints.Presence)
}

func TestRunIsDeterministic(t *testing.T) {
	first, err := Run(loadScenario(t, "quote"))
	require.NoError(t, err)
	second, err := Run(loadScenario(t, "quote"))
	require.NoError(t, err)

	assert.Equal(t, first.Messages[0].Hash, second.Messages[0].Hash)
	assert.Equal(t, Snapshot("quote", first), Snapshot("quote", second))
}

func TestRunRecordsFailures(t *testing.T) {
	result, err := Run(loadScenario(t, "duplicate_id"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, []string{"E105"}, result.ValidationCodes)
	assert.Empty(t, result.Messages)

	result, err = Run(loadScenario(t, "unknown_type"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Contains(t, result.CompileError, `unknown type "int128"`)
}

func TestRunFailingAssertions(t *testing.T) {
	scenario := loadScenario(t, "ping")
	scenario.Assertions = []Assertion{
		{Type: AssertTokenCount, Message: "Ping", Count: 4},
		{Type: AssertOffset, Message: "Ping", Index: 2, Offset: 4},
		{Type: AssertSignal, Message: "Pong", Index: 0, Signal: "BEGIN_MESSAGE"},
		{Type: AssertValidationError, Code: "E101"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "assertion 0:")
	assert.Contains(t, result.Errors[0], "Expected: 4 token(s)")
	assert.Contains(t, result.Errors[1], "Actual: token 2: 0")
	assert.Contains(t, result.Errors[2], "no such message")
	assert.Contains(t, result.Errors[3], "no validation errors")
}
