package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

const workspace = "mem://localhost/cli"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestToolsCmd(t *testing.T) {
	out, err := run(t, "", "tools")
	require.NoError(t, err)
	var tools []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	require.Len(t, tools, 5)
	assert.EqualValues(t, "apply-patch", tools[0]["name"])
}

func TestExecCmd(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	defer func() { _ = fs.Delete(ctx, workspace) }()
	require.NoError(t, fs.Upload(ctx, workspace+"/a.js", 0644, strings.NewReader("a\n")))

	out, err := run(t, "", "exec", "--base-url", workspace, "diff-patch", `{"file":"a.js","patch":"@@ -1,1 +1,1 @@\n-a\n+b\n"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"file":"b\n"}`, out)

	out, err = run(t, `{"patch":"*** Begin Patch\n*** Delete File: missing.js\n*** End Patch"}`, "exec", "-b", workspace, "apply-patch")
	assert.ErrorIs(t, err, errToolFailed)
	assert.Contains(t, out, `"ok":false`)

	_, err = run(t, "", "exec")
	assert.Error(t, err)
}

func TestDiffCmd(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	defer func() { _ = fs.Delete(ctx, workspace) }()
	require.NoError(t, fs.Upload(ctx, workspace+"/old/model.js", 0644, strings.NewReader("a\nb\nc\n")))
	require.NoError(t, fs.Upload(ctx, workspace+"/new/model.js", 0644, strings.NewReader("a\nB\nc\n")))

	out, err := run(t, "", "diff", "-U", "1", workspace+"/old/model.js", workspace+"/new/model.js")
	require.NoError(t, err)
	assert.EqualValues(t, "diff --git a/model.js b/model.js\n--- a/model.js\n+++ b/model.js\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", out)

	applied, err := run(t, "", "exec", "-b", workspace+"/old", "apply-unified-diff", mustJSON(t, map[string]string{"patch": out}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"file":"a\nB\nc\n"}`, applied)
}

func mustJSON(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
