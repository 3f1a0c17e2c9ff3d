package query

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenAs
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenIn
	TokenLike
	TokenBetween
	TokenIs
	TokenNull
	TokenDistinct
	TokenCase
	TokenWhen
	TokenThen
	TokenElse
	TokenEnd
	TokenJoin
	TokenInner
	TokenLeft
	TokenRight
	TokenFull
	TokenOuter
	TokenCross
	TokenOn
	TokenUnion
	TokenIntersect
	TokenExcept
	TokenAll
	TokenCount
	TokenSum
	TokenAvg
	TokenMin
	TokenMax
	TokenInsert
	TokenUpdate
	TokenDelete

	// Operators
	TokenEqual        // =
	TokenNotEqual     // != or <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenPlus         // +
	TokenMinus        // -
	TokenSlash        // /

	// Literals
	TokenString
	TokenNumber
	TokenBool
	TokenIdent

	// Delimiters
	TokenComma      // ,
	TokenSemicolon  // ;
	TokenLeftParen  // (
	TokenRightParen // )
	TokenStar       // * (wildcard and multiply)
	TokenDot        // .

	// Special
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenSelect:       "SELECT",
	TokenFrom:         "FROM",
	TokenWhere:        "WHERE",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenAs:           "AS",
	TokenGroup:        "GROUP",
	TokenBy:           "BY",
	TokenHaving:       "HAVING",
	TokenOrder:        "ORDER",
	TokenAsc:          "ASC",
	TokenDesc:         "DESC",
	TokenLimit:        "LIMIT",
	TokenOffset:       "OFFSET",
	TokenIn:           "IN",
	TokenLike:         "LIKE",
	TokenBetween:      "BETWEEN",
	TokenIs:           "IS",
	TokenNull:         "NULL",
	TokenDistinct:     "DISTINCT",
	TokenCase:         "CASE",
	TokenWhen:         "WHEN",
	TokenThen:         "THEN",
	TokenElse:         "ELSE",
	TokenEnd:          "END",
	TokenJoin:         "JOIN",
	TokenInner:        "INNER",
	TokenLeft:         "LEFT",
	TokenRight:        "RIGHT",
	TokenFull:         "FULL",
	TokenOuter:        "OUTER",
	TokenCross:        "CROSS",
	TokenOn:           "ON",
	TokenUnion:        "UNION",
	TokenIntersect:    "INTERSECT",
	TokenExcept:       "EXCEPT",
	TokenAll:          "ALL",
	TokenCount:        "COUNT",
	TokenSum:          "SUM",
	TokenAvg:          "AVG",
	TokenMin:          "MIN",
	TokenMax:          "MAX",
	TokenInsert:       "INSERT",
	TokenUpdate:       "UPDATE",
	TokenDelete:       "DELETE",
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenGreater:      ">",
	TokenLessEqual:    "<=",
	TokenGreaterEqual: ">=",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenSlash:        "/",
	TokenString:       "string literal",
	TokenNumber:       "number",
	TokenBool:         "boolean",
	TokenIdent:        "identifier",
	TokenComma:        ",",
	TokenSemicolon:    ";",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenStar:         "*",
	TokenDot:          ".",
	TokenEOF:          "end of input",
}

// String returns the spelling used in error messages.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown token"
}

// Token represents a lexical token with its position in the source text
type Token struct {
	Type   TokenType
	Value  string
	Line   int // 1-based line number
	Column int // 0-based column offset within the line
}

// SelectStatement is the parsed form of one SELECT query, possibly chained
// with set operations.
type SelectStatement struct {
	Distinct bool
	Columns  []Column
	From     *FromClause
	Where    Condition
	GroupBy  []ColumnRef
	Having   Condition
	OrderBy  []OrderColumn
	Limit    *LimitClause
	SetOps   []SetOperation
}

// Column is one entry of the SELECT list. Plain columns use Name, optionally
// qualified by TableAlias; aggregate calls additionally set Function;
// computed columns (CASE, scalar functions) carry Expr instead of a name.
type Column struct {
	Name             string
	Alias            string
	Function         string // aggregate name as written (COUNT, SUM, ...)
	FunctionDistinct bool   // COUNT(DISTINCT col) form
	TableAlias       string
	Expr             Expression
}

// ColumnRef names a column, optionally qualified by a table name or alias.
type ColumnRef struct {
	Qualifier string
	Name      string
}

// String returns the reference as written, with its qualifier if any.
func (r ColumnRef) String() string {
	if r.Qualifier != "" {
		return r.Qualifier + "." + r.Name
	}
	return r.Name
}

// FromClause names the base table and any joins.
type FromClause struct {
	Table string
	Alias string
	Joins []Join
}

// JoinType represents the type of join operation
type JoinType int

const (
	JoinInner JoinType = iota // INNER JOIN (default)
	JoinLeft                  // LEFT JOIN / LEFT OUTER JOIN
	JoinRight                 // RIGHT JOIN / RIGHT OUTER JOIN
	JoinFull                  // FULL JOIN / FULL OUTER JOIN
	JoinCross                 // CROSS JOIN
)

// Join represents a JOIN clause. Cross joins carry no condition.
type Join struct {
	Type  JoinType
	Table string
	Alias string
	On    Condition
}

// OrderColumn is one ORDER BY key.
type OrderColumn struct {
	Column    ColumnRef
	Ascending bool
}

// LimitClause holds LIMIT and its optional OFFSET.
type LimitClause struct {
	Count  int64
	Offset int64
}

// SetOpType identifies a set operation.
type SetOpType int

const (
	SetUnion SetOpType = iota
	SetIntersect
	SetExcept
)

// String returns the SQL spelling of the set operation.
func (t SetOpType) String() string {
	switch t {
	case SetUnion:
		return "UNION"
	case SetIntersect:
		return "INTERSECT"
	case SetExcept:
		return "EXCEPT"
	}
	return "UNKNOWN"
}

// SetOperation chains another complete SELECT onto a query.
type SetOperation struct {
	Type  SetOpType
	All   bool
	Right *SelectStatement
}

// Condition is a node of a boolean condition tree: a logical AND/OR node or
// one of the comparison leaves.
type Condition interface {
	conditionNode()
}

// LogicalCond combines two conditions with AND or OR.
type LogicalCond struct {
	Op    TokenType // TokenAnd or TokenOr
	Left  Condition
	Right Condition
}

// CompareCond compares a column against a literal, another column, or a
// scalar subquery with one of = != < > <= >=. Exactly one of Value, Column,
// and Subquery is set.
type CompareCond struct {
	Left     ColumnRef
	Op       TokenType
	Value    *Value
	Column   *ColumnRef
	Subquery *SelectStatement
}

// InCond represents col [NOT] IN (values) or col [NOT] IN (SELECT ...).
type InCond struct {
	Left     ColumnRef
	Values   []Value
	Subquery *SelectStatement
	Negate   bool
}

// LikeCond represents col [NOT] LIKE 'pattern'.
type LikeCond struct {
	Left    ColumnRef
	Pattern string
	Negate  bool
}

// BetweenCond represents col [NOT] BETWEEN lower AND upper.
type BetweenCond struct {
	Left   ColumnRef
	Lower  Value
	Upper  Value
	Negate bool
}

// NullCond represents col IS [NOT] NULL.
type NullCond struct {
	Left   ColumnRef
	Negate bool
}

func (*LogicalCond) conditionNode() {}
func (*CompareCond) conditionNode() {}
func (*InCond) conditionNode()      {}
func (*LikeCond) conditionNode()    {}
func (*BetweenCond) conditionNode() {}
func (*NullCond) conditionNode()    {}

// Expression is a computed SELECT-list expression: a literal, a column
// reference, a function call, or a CASE expression.
type Expression interface {
	exprNode()
}

// LiteralExpr is a literal value in expression position.
type LiteralExpr struct {
	Value Value
}

// ColumnExpr references a column in expression position.
type ColumnExpr struct {
	Ref ColumnRef
}

// FunctionExpr is a function call with nested expression arguments. The
// name may be a scalar function or an aggregate; the plan generator and
// executor decide which by name.
type FunctionExpr struct {
	Name string
	Args []Expression
}

// CaseExpr represents a CASE expression. Subject is nil for the searched
// form (CASE WHEN cond THEN ...) and set for the simple form
// (CASE subject WHEN match THEN ...).
type CaseExpr struct {
	Subject Expression
	Whens   []WhenClause
	Else    Expression
}

// WhenClause is one WHEN arm. Exactly one of Match (simple form) and Cond
// (searched form) is set.
type WhenClause struct {
	Match Expression
	Cond  Condition
	Then  Expression
}

func (*LiteralExpr) exprNode()  {}
func (*ColumnExpr) exprNode()   {}
func (*FunctionExpr) exprNode() {}
func (*CaseExpr) exprNode()     {}
