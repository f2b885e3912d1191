package patch_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/sourcepatch/policy"
	"github.com/viant/sourcepatch/service/action/system/patch"
)

const baseURL = "mem://localhost/patch"

func strPtr(s string) *string { return &s }

func upload(t *testing.T, fs afs.Service, files map[string]string) {
	for name, content := range files {
		require.NoError(t, fs.Upload(context.Background(), baseURL+"/"+name, 0644, strings.NewReader(content)))
	}
}

func download(t *testing.T, fs afs.Service, name string) (string, bool) {
	ctx := context.Background()
	ok, err := fs.Exists(ctx, baseURL+"/"+name)
	require.NoError(t, err)
	if !ok {
		return "", false
	}
	data, err := fs.DownloadWithURL(ctx, baseURL+"/"+name)
	require.NoError(t, err)
	return string(data), true
}

func cleanup(t *testing.T, fs afs.Service) {
	_ = fs.Delete(context.Background(), baseURL)
}

func execute(t *testing.T, service *patch.Service, method string, input interface{}) (*patch.Output, error) {
	exec, err := service.Method(method)
	require.NoError(t, err)
	output := &patch.Output{}
	err = exec(context.Background(), input, output)
	return output, err
}

func TestService_Apply(t *testing.T) {
	testCases := []struct {
		name     string
		existing map[string]string
		patch    string
		expect   *patch.Output
		files    map[string]string
		missing  []string
		wantErr  error
	}{
		{
			name:     "update single file",
			existing: map[string]string{"model.jscad": "line1\nline2\nline3\n"},
			patch:    "*** Begin Patch\n*** Update File: model.jscad\n@@\n line1\n-line2\n+line2b\n line3\n*** End Patch",
			expect:   &patch.Output{OK: true, File: strPtr("line1\nline2b\nline3\n")},
			files:    map[string]string{"model.jscad": "line1\nline2b\nline3\n"},
		},
		{
			name:   "add file",
			patch:  "*** Begin Patch\n*** Add File: added.jscad\n+alpha\n+beta\n*** End Patch",
			expect: &patch.Output{OK: true, File: strPtr("alpha\nbeta\n")},
			files:  map[string]string{"added.jscad": "alpha\nbeta\n"},
		},
		{
			name:     "multi file with delete",
			existing: map[string]string{"a.js": "a\n", "b.js": "b\n"},
			patch:    "*** Begin Patch\n*** Add File: lib/c.js\n+c\n*** Update File: a.js\n-a\n+A\n*** Delete File: b.js\n*** End Patch",
			expect: &patch.Output{OK: true,
				Files:   map[string]string{"lib/c.js": "c\n", "a.js": "A\n"},
				Deleted: []string{"b.js"},
			},
			files:   map[string]string{"lib/c.js": "c\n", "a.js": "A\n"},
			missing: []string{"b.js"},
		},
		{
			name:     "move file",
			existing: map[string]string{"old.js": "x\ny\n"},
			patch:    "*** Begin Patch\n*** Update File: old.js\n*** Move to: new.js\n@@\n-y\n+z\n*** End Patch",
			expect:   &patch.Output{OK: true, File: strPtr("x\nz\n")},
			files:    map[string]string{"new.js": "x\nz\n"},
			missing:  []string{"old.js"},
		},
		{
			name:     "add existing fails",
			existing: map[string]string{"added.jscad": "alpha\nbeta\n"},
			patch:    "*** Begin Patch\n*** Add File: added.jscad\n+alpha\n+beta\n*** End Patch",
			files:    map[string]string{"added.jscad": "alpha\nbeta\n"},
			wantErr:  patch.ErrAlreadyExists,
		},
		{
			name:    "delete missing fails",
			patch:   "*** Begin Patch\n*** Delete File: nothing.js\n*** End Patch",
			wantErr: patch.ErrNotFound,
		},
		{
			name:    "update missing fails",
			patch:   "*** Begin Patch\n*** Update File: nothing.js\n-a\n+b\n*** End Patch",
			wantErr: patch.ErrNotFound,
		},
		{
			name:     "mismatch leaves file unchanged",
			existing: map[string]string{"model.jscad": "line1\nline2\n"},
			patch:    "*** Begin Patch\n*** Update File: model.jscad\n-line9\n+line10\n*** End Patch",
			files:    map[string]string{"model.jscad": "line1\nline2\n"},
			wantErr:  patch.ErrContextMismatch,
		},
		{
			name:     "failure rolls back earlier directives",
			existing: map[string]string{"a.js": "a\n", "b.js": "b\n"},
			patch:    "*** Begin Patch\n*** Update File: a.js\n-a\n+A\n*** Delete File: b.js\n*** Add File: fresh.js\n+f\n*** Update File: b.js\n-b\n+B\n*** End Patch",
			files:    map[string]string{"a.js": "a\n", "b.js": "b\n"},
			missing:  []string{"fresh.js"},
			wantErr:  patch.ErrNotFound,
		},
		{
			name:    "malformed",
			patch:   "*** Begin Patch\n*** Update File: a.js\n*** End Patch",
			wantErr: patch.ErrMalformed,
		},
	}

	fs := afs.New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup(t, fs)
			upload(t, fs, tc.existing)
			service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL))
			output, err := execute(t, service, "apply", &patch.ApplyInput{Patch: tc.patch})
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "%v", err)
			} else if assert.NoError(t, err) {
				assert.EqualValues(t, tc.expect, output)
			}
			for name, content := range tc.files {
				actual, ok := download(t, fs, name)
				assert.True(t, ok, name)
				assert.EqualValues(t, content, actual, name)
			}
			for _, name := range tc.missing {
				_, ok := download(t, fs, name)
				assert.False(t, ok, name)
			}
		})
	}
}

func TestService_Apply_WithoutRollback(t *testing.T) {
	fs := afs.New()
	cleanup(t, fs)
	upload(t, fs, map[string]string{"a.js": "a\n"})
	service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL), patch.WithRollback(false))
	_, err := execute(t, service, "apply", &patch.ApplyInput{Patch: "*** Begin Patch\n*** Update File: a.js\n-a\n+A\n*** Update File: b.js\n-b\n+B\n*** End Patch"})
	assert.True(t, errors.Is(err, patch.ErrNotFound))
	actual, _ := download(t, fs, "a.js")
	assert.EqualValues(t, "A\n", actual)
}

func TestService_Apply_AddTwice(t *testing.T) {
	fs := afs.New()
	cleanup(t, fs)
	service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL))
	input := &patch.ApplyInput{Patch: "*** Begin Patch\n*** Add File: added.jscad\n+alpha\n+beta\n*** End Patch"}
	output, err := execute(t, service, "apply", input)
	require.NoError(t, err)
	assert.EqualValues(t, "alpha\nbeta\n", *output.File)

	_, err = execute(t, service, "apply", input)
	assert.True(t, errors.Is(err, patch.ErrAlreadyExists))
	assert.EqualValues(t, `Unable to add file: "added.jscad" already exists.`, err.Error())
}

func TestService_Apply_Policy(t *testing.T) {
	fs := afs.New()
	cleanup(t, fs)
	service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL))
	exec, err := service.Method("apply")
	require.NoError(t, err)
	ctx := policy.WithPolicy(context.Background(), &policy.Policy{AllowedPaths: []string{baseURL + "/sandbox"}})
	err = exec(ctx, &patch.ApplyInput{Patch: "*** Begin Patch\n*** Add File: outside.js\n+x\n*** End Patch"}, &patch.Output{})
	assert.True(t, errors.Is(err, policy.ErrDenied))
	_, ok := download(t, fs, "outside.js")
	assert.False(t, ok)

	err = exec(ctx, &patch.ApplyInput{Patch: "*** Begin Patch\n*** Add File: sandbox/inside.js\n+x\n*** End Patch"}, &patch.Output{})
	assert.NoError(t, err)
}

func TestService_DiffPatch(t *testing.T) {
	testCases := []struct {
		name     string
		existing map[string]string
		input    *patch.DiffPatchInput
		expect   string
		wantErr  string
	}{
		{
			name:     "line addressed",
			existing: map[string]string{"m.jscad": "1\n2\n3\n"},
			input:    &patch.DiffPatchInput{File: "m.jscad", Patch: strPtr("@@ -2,1 +2,1 @@\n-2\n+two")},
			expect:   "1\ntwo\n3\n",
		},
		{
			name:   "missing file treated as empty",
			input:  &patch.DiffPatchInput{File: "new.jscad", Patch: strPtr("@@ -0,0 +1,1 @@\n+// line 1")},
			expect: "// line 1",
		},
		{
			name:    "missing file input",
			input:   &patch.DiffPatchInput{File: " ", Patch: strPtr("")},
			wantErr: `Invalid tool input: "file" must be a non-empty string.`,
		},
		{
			name:    "missing patch input",
			input:   &patch.DiffPatchInput{File: "m.jscad"},
			wantErr: `Invalid tool input: "patch" must be a string.`,
		},
		{
			name:     "out of order",
			existing: map[string]string{"m.jscad": "1\n2\n3\n4\n5\n6\n"},
			input:    &patch.DiffPatchInput{File: "m.jscad", Patch: strPtr("@@ -5,1 +5,1 @@\n-5\n+five\n@@ -3,1 +3,1 @@\n-3\n+three\n")},
			wantErr:  "Invalid patch: overlapping hunk or out-of-order line numbers.",
		},
	}
	fs := afs.New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup(t, fs)
			upload(t, fs, tc.existing)
			service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL))
			output, err := execute(t, service, "diffPatch", tc.input)
			if tc.wantErr != "" {
				if assert.Error(t, err) {
					assert.EqualValues(t, tc.wantErr, err.Error())
				}
				for name, content := range tc.existing {
					actual, _ := download(t, fs, name)
					assert.EqualValues(t, content, actual)
				}
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, tc.expect, *output.File)
			actual, _ := download(t, fs, tc.input.File)
			assert.EqualValues(t, tc.expect, actual)
		})
	}
}

func TestService_DiffPatch_StrictMissing(t *testing.T) {
	fs := afs.New()
	cleanup(t, fs)
	service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL), patch.WithTolerateMissing(false))
	_, err := execute(t, service, "diffPatch", &patch.DiffPatchInput{File: "none.js", Patch: strPtr("@@ -0,0 +1 @@\n+x")})
	assert.True(t, errors.Is(err, patch.ErrNotFound))
}

func TestService_Write(t *testing.T) {
	fs := afs.New()
	cleanup(t, fs)
	service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL))

	output, err := execute(t, service, "write", &patch.WriteInput{Before: strPtr(""), After: strPtr("const a = 1\n"), Path: "nested/out.js"})
	require.NoError(t, err)
	assert.EqualValues(t, &patch.Output{OK: true, File: strPtr("const a = 1\n")}, output)

	_, err = execute(t, service, "write", &patch.WriteInput{Before: strPtr(""), After: strPtr("x")})
	assert.EqualValues(t, "No file path provided for diff-write.", err.Error())

	_, err = execute(t, service, "write", &patch.WriteInput{After: strPtr("x"), Path: "a.js"})
	assert.EqualValues(t, `Invalid tool input: "before" must be a string.`, err.Error())
}

func TestService_ApplyUnified(t *testing.T) {
	fs := afs.New()
	cleanup(t, fs)
	upload(t, fs, map[string]string{"src/x.js": "a\nb\n", "src/old.js": "gone\n"})
	service := patch.New(patch.WithFS(fs), patch.WithBaseURL(baseURL))
	patchText := "diff --git a/src/x.js b/src/x.js\n--- a/src/x.js\n+++ b/src/x.js\n@@ -1,2 +1,2 @@\n a\n-b\n+c\n" +
		"diff --git a/src/new.js b/src/new.js\nnew file mode 100644\n--- /dev/null\n+++ b/src/new.js\n@@ -0,0 +1,2 @@\n+n1\n+n2\n" +
		"diff --git a/src/old.js b/src/old.js\ndeleted file mode 100644\n--- a/src/old.js\n+++ /dev/null\n@@ -1,1 +0,0 @@\n-gone\n"
	output, err := execute(t, service, "applyUnified", &patch.ApplyInput{Patch: patchText})
	require.NoError(t, err)
	assert.EqualValues(t, &patch.Output{OK: true,
		Files:   map[string]string{"src/x.js": "a\nc\n", "src/new.js": "n1\nn2\n"},
		Deleted: []string{"src/old.js"},
	}, output)
	_, ok := download(t, fs, "src/old.js")
	assert.False(t, ok)
}

func TestService_Methods(t *testing.T) {
	service := patch.New()
	for _, signature := range service.Methods() {
		exec, err := service.Method(signature.Name)
		assert.NoError(t, err, signature.Name)
		assert.NotNil(t, exec, signature.Name)
		assert.NotEmpty(t, signature.Tool)
		assert.EqualValues(t, "object", signature.Parameters["type"])
	}
	_, err := service.Method("commit")
	assert.Error(t, err)
}
