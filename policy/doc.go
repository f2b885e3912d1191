// Package policy provides optional declarative rules applied before a tool
// mutates storage, for example restricting edits to selected directories or
// requiring approval for selected tools.
package policy
