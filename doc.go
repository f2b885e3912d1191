// Package sourcepatch applies machine-proposed edits to source files.
//
// The Service facade exposes the file editing tools used by an automated
// editing loop:
//
//   - apply-patch: "*** Begin Patch" multi-file envelopes
//   - diff-patch: line-addressed hunks against a single file
//   - apply-unified-diff: git style multi-file unified diffs
//   - diff-write: direct overwrite
//   - js-change-property: structural JavaScript/TypeScript replacement
//
// Tools are invoked by name with JSON arguments and always answer with a JSON
// document:
//
//	srv := sourcepatch.New(sourcepatch.WithBaseURL("file:///workspace"))
//	out := srv.Execute(ctx, "apply-patch", []byte(`{"patch":"*** Begin Patch\n..."}`))
//
// Configuration can be loaded from YAML with LoadConfig and passed to
// NewFromConfig.
package sourcepatch
