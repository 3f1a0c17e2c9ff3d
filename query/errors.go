package query

import "fmt"

// LexError reports an unrecognized character or an unterminated string
// literal, with its position in the source text.
type LexError struct {
	Line    int  // 1-based line number
	Column  int  // 0-based column offset
	Char    rune // offending character (opening quote for unterminated strings)
	Message string
}

func (e *LexError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("unexpected character %q at line %d, column %d", e.Char, e.Line, e.Column)
}

// ParseError reports a grammar violation: what the parser expected and what
// it found, with the position of the offending token.
type ParseError struct {
	Expected string
	Found    string
	Line     int
	Column   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expected %s, found %s at line %d, column %d", e.Expected, e.Found, e.Line, e.Column)
}

// SemanticError reports an AST shape the plan generator cannot represent.
// It indicates a defect in an earlier stage rather than bad user input.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string {
	return e.Message
}

// ExecErrorKind classifies execution failures.
type ExecErrorKind int

const (
	// ErrUnknownTable means a FROM or JOIN table is not bound.
	ErrUnknownTable ExecErrorKind = iota
	// ErrUnknownColumn means a referenced column does not exist.
	ErrUnknownColumn
	// ErrTypeMismatch means two values cannot be compared or coerced.
	ErrTypeMismatch
	// ErrAmbiguousColumn means an unqualified name matches more than one
	// join side.
	ErrAmbiguousColumn
	// ErrAggregateShape means an aggregate or scalar subquery produced the
	// wrong shape (non-1x1 subquery, bare column outside GROUP BY, arity
	// mismatch in a set operation).
	ErrAggregateShape
	// ErrRecursionLimit means nested subquery or set-operation execution
	// exceeded the depth bound.
	ErrRecursionLimit
)

// ExecError is a typed execution failure.
type ExecError struct {
	Kind    ExecErrorKind
	Table   string
	Column  string
	Message string
}

func (e *ExecError) Error() string {
	switch e.Kind {
	case ErrUnknownTable:
		return fmt.Sprintf("unknown table %q", e.Table)
	case ErrUnknownColumn:
		return fmt.Sprintf("unknown column %q", e.Column)
	case ErrAmbiguousColumn:
		return fmt.Sprintf("ambiguous column %q: present on more than one join side, qualify it with a table alias", e.Column)
	case ErrTypeMismatch:
		return "type mismatch: " + e.Message
	case ErrRecursionLimit:
		return "recursion limit exceeded: " + e.Message
	}
	return e.Message
}

func unknownTable(name string) *ExecError {
	return &ExecError{Kind: ErrUnknownTable, Table: name}
}

func unknownColumn(name string) *ExecError {
	return &ExecError{Kind: ErrUnknownColumn, Column: name}
}

func ambiguousColumn(name string) *ExecError {
	return &ExecError{Kind: ErrAmbiguousColumn, Column: name}
}

func typeMismatch(format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: ErrTypeMismatch, Message: fmt.Sprintf(format, args...)}
}

func aggregateShape(format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: ErrAggregateShape, Message: fmt.Sprintf(format, args...)}
}

func recursionLimit(format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: ErrRecursionLimit, Message: fmt.Sprintf(format, args...)}
}
