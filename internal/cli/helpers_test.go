package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const counterYAML = `name: counter
stores:
  - name: CountStore
    initial: 0
    on:
      INC: add
      DEC: subtract
steps:
  - dispatch: INC
  - dispatch: INC
  - dispatch: DEC
assertions:
  - type: final_state
    store: CountStore
    expect: 1
`

const failingYAML = `name: failing
stores:
  - name: CountStore
    initial: 0
    on:
      INC: add
steps:
  - dispatch: INC
assertions:
  - type: final_state
    store: CountStore
    expect: 5
`

const invalidYAML = `name: invalid
stores:
  - name: CountStore
    on:
      INC: frobnicate
steps:
  - dispatch: INC
    dispose: CountStore
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func textOpts() *RootOptions {
	return &RootOptions{Format: "text"}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json"}
}
