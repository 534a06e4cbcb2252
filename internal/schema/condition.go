package schema

import (
	"fmt"
	"strings"
)

// CondKind enumerates the closed set of rule condition variants. The
// vocabulary is deliberately small: tree shape and attribute tests, not
// a general query language.
type CondKind uint8

const (
	// CondMissingAttribute is true iff the node lacks the named
	// attribute (case-sensitive).
	CondMissingAttribute CondKind = iota
	// CondNoChildren is true iff the node has zero child elements.
	CondNoChildren
	// CondCountChildren counts direct children with a tag and compares.
	CondCountChildren
	// CondExpression evaluates a constrained path predicate.
	CondExpression
	// CondMissingReference is true iff an attribute value does not
	// resolve to a known identifier of the target kind.
	CondMissingReference
)

func (k CondKind) String() string {
	switch k {
	case CondMissingAttribute:
		return "missing_attribute"
	case CondNoChildren:
		return "no_children"
	case CondCountChildren:
		return "count_children"
	case CondExpression:
		return "expression"
	case CondMissingReference:
		return "missing_reference"
	}
	return "unknown"
}

// CmpOp is a comparison operator for count_children.
type CmpOp uint8

const (
	OpLT CmpOp = iota
	OpLE
	OpEQ
	OpGE
	OpGT
)

// Compare applies the operator to (count, value).
func (op CmpOp) Compare(count, value int) bool {
	switch op {
	case OpLT:
		return count < value
	case OpLE:
		return count <= value
	case OpEQ:
		return count == value
	case OpGE:
		return count >= value
	case OpGT:
		return count > value
	}
	return false
}

func parseCmpOp(s string) (CmpOp, error) {
	switch s {
	case "<":
		return OpLT, nil
	case "<=":
		return OpLE, nil
	case "=", "==":
		return OpEQ, nil
	case ">=":
		return OpGE, nil
	case ">":
		return OpGT, nil
	}
	return 0, fmt.Errorf("unknown comparison operator %q", s)
}

// Condition is the compiled form of a rule predicate. Which fields are
// meaningful depends on Kind.
type Condition struct {
	Kind    CondKind
	Attr    string // missing_attribute, missing_reference
	Tag     string // count_children
	Op      CmpOp  // count_children
	Value   int    // count_children
	Expr    *Expr  // expression
	RefKind string // missing_reference: target element tag
}

// ExprOp enumerates path-predicate node kinds.
type ExprOp uint8

const (
	ExprAnd ExprOp = iota
	ExprOr
	ExprNot
	ExprAttrExists     // attr.Name
	ExprAttrEquals     // attr.Name=value
	ExprChildExists    // child.Tag
	ExprChildAttrMatch // child.Tag.attr.Name=value
)

// Expr is one node of a compiled path predicate. Evaluation
// short-circuits on And/Or and touches only the node, its attributes
// and its direct children.
type Expr struct {
	Op    ExprOp
	Left  *Expr
	Right *Expr
	Attr  string
	Tag   string
	Value string
}

// ParseExpr compiles the constrained predicate language:
//
//	attr.Id                     attribute exists
//	attr.Type=raw               attribute equals
//	child.File                  direct child exists
//	child.File.attr.Vital=yes   some direct child has the attribute value
//	!P, P && Q, P || Q, (P)     combinators, short-circuit
func ParseExpr(input string) (*Expr, error) {
	p := &exprParser{src: input}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected trailing input %q", p.src[p.pos:])
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.consume("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Op: ExprOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.consume("&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Expr{Op: ExprAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (*Expr, error) {
	p.skipSpace()
	if p.consume("!") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Op: ExprNot, Left: inner}, nil
	}
	if p.consume("(") {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(")") {
			return nil, fmt.Errorf("missing ')' at offset %d", p.pos)
		}
		return inner, nil
	}
	return p.parsePath()
}

func (p *exprParser) parsePath() (*Expr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !isExprBoundary(p.src[p.pos]) {
		p.pos++
	}
	token := strings.TrimSpace(p.src[start:p.pos])
	if token == "" {
		return nil, fmt.Errorf("expected a path predicate at offset %d", start)
	}

	path, value, hasValue := strings.Cut(token, "=")
	path = strings.TrimSpace(path)
	value = strings.TrimSpace(strings.Trim(value, `"'`))

	switch {
	case strings.HasPrefix(path, "attr."):
		name := strings.TrimPrefix(path, "attr.")
		if name == "" {
			return nil, fmt.Errorf("empty attribute name in %q", token)
		}
		if hasValue {
			return &Expr{Op: ExprAttrEquals, Attr: name, Value: value}, nil
		}
		return &Expr{Op: ExprAttrExists, Attr: name}, nil

	case strings.HasPrefix(path, "child."):
		rest := strings.TrimPrefix(path, "child.")
		if tag, attrPath, ok := strings.Cut(rest, ".attr."); ok {
			if tag == "" || attrPath == "" {
				return nil, fmt.Errorf("malformed child predicate %q", token)
			}
			if !hasValue {
				return nil, fmt.Errorf("child attribute predicate %q needs a value", token)
			}
			return &Expr{Op: ExprChildAttrMatch, Tag: tag, Attr: attrPath, Value: value}, nil
		}
		if rest == "" {
			return nil, fmt.Errorf("empty child tag in %q", token)
		}
		if hasValue {
			return nil, fmt.Errorf("child existence predicate %q cannot take a value", token)
		}
		return &Expr{Op: ExprChildExists, Tag: rest}, nil
	}
	return nil, fmt.Errorf("unknown path %q: expected attr.* or child.*", token)
}

func (p *exprParser) consume(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isExprBoundary(c byte) bool {
	return c == '&' || c == '|' || c == ')' || c == '('
}
