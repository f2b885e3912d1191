// Package patch applies machine-proposed text patches to files.
//
// Three dialects are supported: the "*** Begin Patch" envelope whose hunks are
// located by context search, single-file line-addressed hunks
// ("@@ -a,b +c,d @@"), and git style multi-file unified diffs. All mutations of
// one call share a Session whose journal restores touched files on failure.
package patch
