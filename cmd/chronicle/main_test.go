package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/chronicle/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	a := &app{v: config.New()}
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "schema", "score")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "score")
	assert.Contains(t, props, "causalChain")

	_, err = run(t, "schema", "teleport")
	assert.ErrorContains(t, err, "unknown operation")
}

func TestSimulateOffline(t *testing.T) {
	t.Setenv("CHRONICLE_ADVANCE_DELAY", "10ms")
	out, err := run(t, "simulate", "--mock", "--save=false", "--city", "hemudu")
	require.NoError(t, err)
	assert.Contains(t, out, "Playing from Hemudu Culture")
	assert.Contains(t, out, "score 50/100")
}
