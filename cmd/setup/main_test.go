package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_HelpExitsClean(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, run(strings.NewReader(""), &out, &errOut, []string{"--help"}))
	assert.Contains(t, errOut.String(), "windsurf-setup")
	assert.Empty(t, out.String())
}

func TestRun_EmitsDocumentToStdout(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, run(strings.NewReader(""), &out, &errOut, nil))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	assert.Contains(t, parsed, "models")
	assert.Contains(t, errOut.String(), "Which model cores")
}

func TestRun_OutputFlagWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windsurf.json")
	var out, errOut bytes.Buffer

	require.NoError(t, run(strings.NewReader(""), &out, &errOut, []string{"--output", path}))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Contains(t, parsed, "regimes")
}
