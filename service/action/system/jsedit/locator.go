package jsedit

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TargetPath is a dotted identifier chain such as MyClass.constructor.
type TargetPath []string

// ParseTarget splits target on dots, dropping empty segments.
func ParseTarget(target string) TargetPath {
	var result TargetPath
	for _, part := range strings.Split(target, ".") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// IsFile reports whether the path is the whole-file sentinel.
func (p TargetPath) IsFile() bool {
	return len(p) == 1 && p[0] == "file"
}

func (p TargetPath) String() string {
	return strings.Join(p, ".")
}

// MatchKind identifies the construct a target resolved to.
type MatchKind int

const (
	ClassMember MatchKind = iota + 1
	FunctionDeclaration
	VariableInitializer
	ObjectMember
	PropertyAssignment
)

func (k MatchKind) String() string {
	switch k {
	case ClassMember:
		return "classMember"
	case FunctionDeclaration:
		return "functionDeclaration"
	case VariableInitializer:
		return "variableInitializer"
	case ObjectMember:
		return "objectMember"
	case PropertyAssignment:
		return "propertyAssignment"
	}
	return "unknown"
}

// Range is a byte range [Start, End) in the source.
type Range struct {
	Start int
	End   int
}

func nodeRange(node *sitter.Node) Range {
	return Range{Start: int(node.StartByte()), End: int(node.EndByte())}
}

// fieldRange covers a class field and its terminating semicolon, which the
// grammar keeps as a separate class body token.
func fieldRange(member *sitter.Node) Range {
	r := nodeRange(member)
	if next := member.NextSibling(); next != nil && next.Type() == ";" {
		r.End = int(next.EndByte())
	}
	return r
}

// MatchedNode is a resolved target.
type MatchedNode struct {
	Kind MatchKind
	// Range is replaced by a full replacement.
	Range Range
	// Body is the block body range, nil when body-only replacement is not possible.
	Body *Range
	// Value is set when Range covers an initializer or assigned value rather than a declaration.
	Value bool
	// Shorthand is set for shorthand object properties, which cannot be replaced.
	Shorthand bool
}

// Locate walks the tree depth-first and returns the first node matching target.
func Locate(doc *Document, target TargetPath) (*MatchedNode, bool) {
	if len(target) == 0 {
		return nil, false
	}
	l := &locator{source: doc.Source, target: target}
	match := l.visit(doc.Root())
	return match, match != nil
}

type locator struct {
	source []byte
	target TargetPath
}

func (l *locator) visit(node *sitter.Node) *MatchedNode {
	if match := l.match(node); match != nil {
		return match
	}
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		if match := l.visit(node.NamedChild(i)); match != nil {
			return match
		}
	}
	return nil
}

func (l *locator) match(node *sitter.Node) *MatchedNode {
	target := l.target
	switch node.Type() {
	case "class_declaration", "abstract_class_declaration":
		if len(target) >= 2 && l.name(node, "name") == target[0] {
			return l.classMember(node.ChildByFieldName("body"), target[1])
		}
	case "function_declaration", "generator_function_declaration":
		if len(target) == 1 && l.name(node, "name") == target[0] && isTopLevel(node) {
			return &MatchedNode{Kind: FunctionDeclaration, Range: nodeRange(node), Body: blockBody(node)}
		}
	case "variable_declarator":
		value := node.ChildByFieldName("value")
		if value == nil || !isTopLevel(node) || l.identifier(node.ChildByFieldName("name")) != target[0] {
			return nil
		}
		if len(target) == 1 {
			return &MatchedNode{Kind: VariableInitializer, Range: nodeRange(value), Body: functionBody(value), Value: true}
		}
		if len(target) == 2 && value.Type() == "object" {
			return l.objectMember(value, target[1])
		}
	case "assignment_expression":
		if len(target) >= 2 && l.assignmentMatches(node.ChildByFieldName("left")) {
			right := node.ChildByFieldName("right")
			return &MatchedNode{Kind: PropertyAssignment, Range: nodeRange(right), Body: functionBody(right), Value: true}
		}
	}
	return nil
}

func (l *locator) classMember(body *sitter.Node, name string) *MatchedNode {
	if body == nil {
		return nil
	}
	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			if l.identifier(member.ChildByFieldName("name")) == name {
				return &MatchedNode{Kind: ClassMember, Range: nodeRange(member), Body: blockBody(member)}
			}
		case "field_definition":
			if l.identifier(member.ChildByFieldName("property")) == name {
				return &MatchedNode{Kind: ClassMember, Range: nodeRange(member)}
			}
		case "public_field_definition":
			if l.identifier(member.ChildByFieldName("name")) == name {
				return &MatchedNode{Kind: ClassMember, Range: nodeRange(member)}
			}
		}
	}
	return nil
}

func (l *locator) objectMember(object *sitter.Node, name string) *MatchedNode {
	count := int(object.NamedChildCount())
	for i := 0; i < count; i++ {
		member := object.NamedChild(i)
		switch member.Type() {
		case "pair":
			if l.propertyKey(member.ChildByFieldName("key")) == name {
				value := member.ChildByFieldName("value")
				return &MatchedNode{Kind: ObjectMember, Range: nodeRange(value), Body: functionBody(value), Value: true}
			}
		case "method_definition":
			if l.propertyKey(member.ChildByFieldName("name")) == name {
				return &MatchedNode{Kind: ObjectMember, Range: nodeRange(member), Body: blockBody(member)}
			}
		case "shorthand_property_identifier":
			if member.Content(l.source) == name {
				return &MatchedNode{Kind: ObjectMember, Range: nodeRange(member), Shorthand: true}
			}
		}
	}
	return nil
}

// assignmentMatches reports whether left is an identifier rooted member chain equal to the target.
func (l *locator) assignmentMatches(left *sitter.Node) bool {
	var parts []string
	current := left
	for current != nil && current.Type() == "member_expression" {
		property := current.ChildByFieldName("property")
		if property == nil || property.Type() != "property_identifier" {
			return false
		}
		parts = append([]string{property.Content(l.source)}, parts...)
		current = current.ChildByFieldName("object")
	}
	if current == nil || current.Type() != "identifier" {
		return false
	}
	parts = append([]string{current.Content(l.source)}, parts...)
	if len(parts) != len(l.target) {
		return false
	}
	for i, part := range parts {
		if part != l.target[i] {
			return false
		}
	}
	return true
}

func (l *locator) name(node *sitter.Node, field string) string {
	return l.identifier(node.ChildByFieldName(field))
}

// identifier returns the text of a plain identifier node, or "" for computed,
// private or destructured names.
func (l *locator) identifier(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier", "property_identifier", "type_identifier":
		return node.Content(l.source)
	}
	return ""
}

func (l *locator) propertyKey(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "string":
		return strings.Trim(node.Content(l.source), "\"'`")
	case "number":
		return node.Content(l.source)
	}
	return l.identifier(node)
}

// isTopLevel reports whether a declaration belongs to the program scope.
func isTopLevel(node *sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Type() {
		case "program":
			return true
		case "export_statement", "lexical_declaration", "variable_declaration":
			continue
		default:
			return false
		}
	}
	return false
}

func blockBody(node *sitter.Node) *Range {
	body := node.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return nil
	}
	r := nodeRange(body)
	return &r
}

// functionBody returns the block body of a function valued expression.
func functionBody(value *sitter.Node) *Range {
	if value == nil {
		return nil
	}
	switch value.Type() {
	case "arrow_function", "function_expression", "function", "generator_function":
		return blockBody(value)
	}
	return nil
}
