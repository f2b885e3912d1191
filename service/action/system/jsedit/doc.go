// Package jsedit replaces functions, class members, variables, object
// members and property assignments in JavaScript and TypeScript sources.
//
// Targets are dotted paths such as "main", "MyClass.constructor" or
// "module.exports.main"; the special target "file" replaces the whole file.
// A replacement either swaps the full node or only its block body.
package jsedit
