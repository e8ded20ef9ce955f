package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/margo/pipeline-trigger/shared-lib/git/gittest"
	"github.com/margo/pipeline-trigger/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, staging, target string) string {
	t.Helper()
	content := strings.Join([]string{
		"staging:",
		"  url: " + staging,
		"target:",
		"  url: " + target,
		"workspace:",
		"  root: " + filepath.Join(t.TempDir(), "work"),
		"log:",
		"  level: error",
	}, "\n") + "\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	staging := gittest.Remote(t, "main", nil)
	target := gittest.EmptyRemote(t)
	config := writeTestConfig(t, staging, target)

	out, err := execute(t, `{"Yaml": "service-a"}`, "run", "--config", config, "--event", "-", "--invocation-id", "cli-1")
	require.NoError(t, err)

	var result trigger.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "cli-1", result.InvocationID)
	assert.Equal(t, "service-a.yaml", result.File)
	assert.Equal(t, result.Commit, gittest.HeadCommit(t, target, "pipeline").Hash.String())

	out, err = execute(t, "", "status", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, result.Commit)
	assert.Contains(t, out, "pipeline has 1 commit(s) not on main")
}

func TestStatusCommand_EmptyTarget(t *testing.T) {
	config := writeTestConfig(t, gittest.Remote(t, "main", nil), gittest.EmptyRemote(t))

	out, err := execute(t, "", "status", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "(missing)")
	assert.Contains(t, out, "pipeline has 0 commit(s) not on main")
}

func TestRunCommand_MissingPayload(t *testing.T) {
	config := writeTestConfig(t, gittest.Remote(t, "main", nil), gittest.EmptyRemote(t))
	_, err := execute(t, `{"other": 1}`, "run", "--config", config, "--event", "-", "--invocation-id", "cli-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode-event")
}

func TestPrintResult(t *testing.T) {
	result := &trigger.Result{InvocationID: "x", File: "a.yaml", Message: "code-added-03072023090502"}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, result, "pretty"))
	assert.Contains(t, buf.String(), "code-added-03072023090502")

	buf.Reset()
	require.NoError(t, printResult(&buf, result, "json"))
	assert.Contains(t, buf.String(), `"file": "a.yaml"`)

	require.Error(t, printResult(&buf, result, "xml"))
}

func TestReadEvent(t *testing.T) {
	data, err := readEvent(strings.NewReader("Yaml: a\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, "Yaml: a\n", string(data))

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Yaml": "b"}`), 0o644))
	data, err = readEvent(nil, path)
	require.NoError(t, err)
	assert.Equal(t, `{"Yaml": "b"}`, string(data))

	_, err = readEvent(nil, filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
