package jsedit

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultExtensions lists the file extensions accepted for structural edits.
var DefaultExtensions = []string{".js", ".jscad", ".ts", ".mjs", ".cjs"}

// LanguageFor returns the grammar used for location: TypeScript for ".ts",
// JavaScript otherwise.
func LanguageFor(location string) *sitter.Language {
	if strings.EqualFold(path.Ext(location), ".ts") {
		return typescript.GetLanguage()
	}
	return javascript.GetLanguage()
}

// Document is a parsed source file.
type Document struct {
	Source []byte
	tree   *sitter.Tree
}

// Parse parses source with lang.
func Parse(ctx context.Context, source []byte, lang *sitter.Language) (*Document, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	return &Document{Source: source, tree: tree}, nil
}

// Root returns the program node.
func (d *Document) Root() *sitter.Node {
	return d.tree.RootNode()
}

// HasError reports whether the tree contains syntax errors.
func (d *Document) HasError() bool {
	return d.Root().HasError()
}

// Close releases the tree.
func (d *Document) Close() {
	d.tree.Close()
}
