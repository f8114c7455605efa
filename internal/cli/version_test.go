package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailsmith/internal/version"
)

func TestVersionCommand(t *testing.T) {
	info := version.GetInfo()

	t.Run("human", func(t *testing.T) {
		stdout, _, err := executeCommand("version")
		require.NoError(t, err)
		assert.Equal(t, info.String()+"\n", stdout)
	})

	t.Run("short", func(t *testing.T) {
		stdout, _, err := executeCommand("version", "--short")
		require.NoError(t, err)
		assert.Equal(t, info.Short(), strings.TrimSpace(stdout))
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := executeCommand("version", "--json")
		require.NoError(t, err)

		var parsed version.Info
		require.NoError(t, json.Unmarshal([]byte(stdout), &parsed))
		assert.Equal(t, info, parsed)
	})

	t.Run("json and short conflict", func(t *testing.T) {
		_, _, err := executeCommand("version", "--json", "--short")
		require.Error(t, err)
	})

	t.Run("no args", func(t *testing.T) {
		_, _, err := executeCommand("version", "extra")
		require.Error(t, err)
	})

	t.Run("ignores bad config", func(t *testing.T) {
		_, _, err := executeCommand("--log-level", "trace", "version")
		require.NoError(t, err)
	})
}

func TestCompletionCommand(t *testing.T) {
	for shell := range completionGenerators {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := executeCommand("completion", shell)
			require.NoError(t, err)
			assert.Contains(t, stdout, "mailsmith")
		})
	}

	_, _, err := executeCommand("completion", "tcsh")
	require.Error(t, err)
}
