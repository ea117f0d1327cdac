// Package query implements the restricted SELECT grammar spec.md
// §4.I names: a lexer/parser producing a Plan, and an Executor that
// streams matching records through a bounded channel filled by one
// background producer per active query, mirroring the teacher's own
// single-producer-pool convert_gsf_list pattern in cmd/main.go.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sixy6e/go-ffdb/schema"
)

var (
	ErrInvalidQuery   = errors.New("query: malformed query")
	ErrUnknownTable   = errors.New("query: unknown table")
	ErrUnknownColumn  = errors.New("query: unknown column")
	ErrUnknownAlias   = errors.New("query: unknown alias")
)

// Op is a WHERE-term comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
	OpIn
)

var opText = map[string]Op{
	"=": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLte,
	">": OpGt, ">=": OpGte, "LIKE": OpLike, "IN": OpIn,
}

// PlanTable is one `schema alias` entry of the FROM clause.
type PlanTable struct {
	Schema *schema.Schema
	Alias  string
}

// Constraint is one bound WHERE term: alias.col OP value, where value
// is either a literal (Value != nil), another alias.col reference
// (RefAlias/RefColumn set, for a cross-table equality join), or a
// comma list (for IN).
type Constraint struct {
	Alias     string
	Column    string
	Op        Op
	Value     any
	ValueList []any
	RefAlias  string
	RefColumn string
}

// Plan is the parsed, schema-bound query ready for execution.
type Plan struct {
	Distinct    bool
	SelectCols  []ColumnRef
	Tables      []PlanTable
	Constraints []Constraint
}

// ColumnRef is one alias.col of the SELECT list.
type ColumnRef struct {
	Alias  string
	Column string
}

// Parse lexes and parses text against registry, producing a fully
// bound Plan, or ErrInvalidQuery/ErrUnknownTable/ErrUnknownColumn
// before any file is touched, per spec.md §4.I step 1-2 and §7's
// "a malformed query yields InvalidQuery before any file is touched".
func Parse(text string, registry *schema.Registry) (*Plan, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	p := &parser{toks: toks, registry: registry}
	return p.parseSelect()
}

type parser struct {
	toks     []string
	pos      int
	registry *schema.Registry
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expectUpper(word string) error {
	t := p.next()
	if strings.ToUpper(t) != word {
		return fmt.Errorf("%w: expected %s, got %q", ErrInvalidQuery, word, t)
	}
	return nil
}

func (p *parser) parseSelect() (*Plan, error) {
	if err := p.expectUpper("SELECT"); err != nil {
		return nil, err
	}
	plan := &Plan{}
	if strings.ToUpper(p.peek()) == "DISTINCT" {
		p.next()
		plan.Distinct = true
	}

	for {
		ref, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		plan.SelectCols = append(plan.SelectCols, ref)
		if p.peek() != "," {
			break
		}
		p.next()
	}

	if err := p.expectUpper("FROM"); err != nil {
		return nil, err
	}
	aliasToSchema := map[string]*schema.Schema{}
	for {
		tableName := p.next()
		sch, err := p.registry.Lookup(tableName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableName)
		}
		alias := tableName
		if p.peek() != "," && strings.ToUpper(p.peek()) != "WHERE" && p.peek() != "" {
			alias = p.next()
		}
		plan.Tables = append(plan.Tables, PlanTable{Schema: sch, Alias: alias})
		aliasToSchema[alias] = sch
		if p.peek() != "," {
			break
		}
		p.next()
	}

	// bind the SELECT list's aliases now that FROM is parsed.
	for _, ref := range plan.SelectCols {
		sch, ok := aliasToSchema[ref.Alias]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAlias, ref.Alias)
		}
		if _, ok := sch.ColumnByName(ref.Column); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, ref.Alias, ref.Column)
		}
	}

	if strings.ToUpper(p.peek()) == "WHERE" {
		p.next()
		for {
			c, err := p.parseTerm(aliasToSchema)
			if err != nil {
				return nil, err
			}
			plan.Constraints = append(plan.Constraints, c)
			if strings.ToUpper(p.peek()) != "AND" {
				break
			}
			p.next()
		}
	}

	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%w: trailing tokens after %q", ErrInvalidQuery, p.peek())
	}
	return plan, nil
}

func (p *parser) parseColumnRef() (ColumnRef, error) {
	tok := p.next()
	parts := strings.SplitN(tok, ".", 2)
	if len(parts) != 2 {
		return ColumnRef{}, fmt.Errorf("%w: expected alias.col, got %q", ErrInvalidQuery, tok)
	}
	return ColumnRef{Alias: parts[0], Column: parts[1]}, nil
}

func (p *parser) parseTerm(aliasToSchema map[string]*schema.Schema) (Constraint, error) {
	left, err := p.parseColumnRef()
	if err != nil {
		return Constraint{}, err
	}
	sch, ok := aliasToSchema[left.Alias]
	if !ok {
		return Constraint{}, fmt.Errorf("%w: %s", ErrUnknownAlias, left.Alias)
	}
	if _, ok := sch.ColumnByName(left.Column); !ok {
		return Constraint{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, left.Alias, left.Column)
	}

	opTok := strings.ToUpper(p.next())
	op, ok := opText[opTok]
	if !ok {
		return Constraint{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, opTok)
	}

	c := Constraint{Alias: left.Alias, Column: left.Column, Op: op}

	if op == OpIn {
		var values []any
		for {
			v, err := p.parseScalar()
			if err != nil {
				return Constraint{}, err
			}
			values = append(values, v)
			if p.peek() != "," {
				break
			}
			p.next()
		}
		c.ValueList = values
		return c, nil
	}

	rhs := p.peek()
	if strings.Contains(rhs, ".") && !isNumeric(rhs) {
		ref, err := p.parseColumnRef()
		if err != nil {
			return Constraint{}, err
		}
		refSchema, ok := aliasToSchema[ref.Alias]
		if !ok {
			return Constraint{}, fmt.Errorf("%w: %s", ErrUnknownAlias, ref.Alias)
		}
		if _, ok := refSchema.ColumnByName(ref.Column); !ok {
			return Constraint{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, ref.Alias, ref.Column)
		}
		c.RefAlias = ref.Alias
		c.RefColumn = ref.Column
		return c, nil
	}

	v, err := p.parseScalar()
	if err != nil {
		return Constraint{}, err
	}
	c.Value = v
	return c, nil
}

func (p *parser) parseScalar() (any, error) {
	tok := p.next()
	if tok == "" {
		return nil, fmt.Errorf("%w: unexpected end of query", ErrInvalidQuery)
	}
	if strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'") {
		return strings.Trim(tok, "'"), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, nil
	}
	return tok, nil
}

func isNumeric(tok string) bool {
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

// lex splits text into tokens: quoted strings stay whole, and
// `,`, `(`, `)` are always their own token.
func lex(text string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '\'':
			cur.WriteRune(r)
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		case r == ',' || r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quoted string")
	}
	flush()
	return toks, nil
}
