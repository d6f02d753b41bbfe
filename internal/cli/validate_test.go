package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBundledScenarios(t *testing.T) {
	dir := filepath.Join("..", "scenario", "testdata", "scenarios")

	out, _, err := execute(NewValidateCommand(textOpts()), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios valid")
	assert.Contains(t, out, "counter.cue")
}

func TestValidateSingleFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterYAML)

	out, _, err := execute(NewValidateCommand(jsonOpts()), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, 1)
	assert.Equal(t, "counter", resp.Data.Files[0].Name)
}

func TestValidateReportsEveryError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "invalid.yaml", invalidYAML)

	out, _, err := execute(NewValidateCommand(jsonOpts()), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidScenario, resp.Error.Code)
	require.Len(t, resp.Data.Files, 1)
	// unknown op and a step with both dispatch and dispose
	assert.GreaterOrEqual(t, len(resp.Data.Files[0].Errors), 2)
}

func TestValidateMixedDirectoryText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterYAML)
	writeFile(t, dir, "invalid.yaml", invalidYAML)
	writeFile(t, dir, "broken.yaml", "name: [unterminated")

	out, _, err := execute(NewValidateCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✓ "+filepath.Join(dir, "counter.yaml"))
	assert.Contains(t, out, "✗ "+filepath.Join(dir, "invalid.yaml"))
	assert.Contains(t, out, "failed to parse YAML")
	assert.Contains(t, out, "2 of 3 scenario(s) invalid")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, _, err := execute(NewValidateCommand(textOpts()), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := execute(NewValidateCommand(textOpts()), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no scenario files found")
}
