package query

import (
	"fmt"
	"strconv"
)

// Parser parses a token stream into a SelectStatement
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *ExpressionDepthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:       tokens,
		pos:          0,
		depthCounter: NewExpressionDepthCounter(),
	}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks that the current token matches the expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return p.errorf(tokType.String())
	}
	p.advance()
	return nil
}

// errorf builds a ParseError describing what was expected at the current token
func (p *Parser) errorf(expected string) error {
	tok := p.current()
	return &ParseError{
		Expected: expected,
		Found:    describeToken(tok),
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// describeToken renders a token for an error message. Identifiers and
// literals show their text, keywords and operators their spelling.
func describeToken(tok Token) string {
	switch tok.Type {
	case TokenIdent, TokenNumber, TokenBool:
		return fmt.Sprintf("%q", tok.Value)
	case TokenString:
		return "'" + tok.Value + "'"
	default:
		return tok.Type.String()
	}
}

// aggregateTokens maps aggregate keyword tokens to their canonical names.
var aggregateTokens = map[TokenType]string{
	TokenCount: "COUNT",
	TokenSum:   "SUM",
	TokenAvg:   "AVG",
	TokenMin:   "MIN",
	TokenMax:   "MAX",
}

// Parse tokenizes and parses a SQL query
func Parse(query string) (*SelectStatement, error) {
	// Validate query length
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	tokens, err := Tokenize(query)
	if err != nil {
		return nil, err
	}

	// Validate token count
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}

	return ParseTokens(tokens)
}

// ParseTokens parses an already tokenized query
func ParseTokens(tokens []Token) (*SelectStatement, error) {
	parser := NewParser(tokens)

	stmt, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}

	// A single trailing semicolon is allowed before the end of input
	if parser.current().Type == TokenSemicolon {
		parser.advance()
	}
	if parser.current().Type != TokenEOF {
		return nil, parser.errorf("end of query")
	}

	return stmt, nil
}

// parseStatement parses a complete statement: a SELECT query optionally
// followed by chained set operations
func (p *Parser) parseStatement() (*SelectStatement, error) {
	switch p.current().Type {
	case TokenInsert, TokenUpdate, TokenDelete:
		return nil, p.errorf("SELECT (INSERT, UPDATE, and DELETE are not supported)")
	}

	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}

	// Chain UNION/INTERSECT/EXCEPT operands left-associatively
	for {
		var op SetOpType
		switch p.current().Type {
		case TokenUnion:
			op = SetUnion
		case TokenIntersect:
			op = SetIntersect
		case TokenExcept:
			op = SetExcept
		default:
			return stmt, nil
		}
		p.advance()

		all := false
		if p.current().Type == TokenAll {
			all = true
			p.advance()
		}

		right, err := p.parseSelect()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s operand: %w", op, err)
		}

		stmt.SetOps = append(stmt.SetOps, SetOperation{Type: op, All: all, Right: right})
	}
}

// parseSelect parses one SELECT query with its optional clauses
func (p *Parser) parseSelect() (*SelectStatement, error) {
	if err := p.expect(TokenSelect); err != nil {
		return nil, err
	}

	stmt := &SelectStatement{}

	// Check for DISTINCT
	if p.current().Type == TokenDistinct {
		stmt.Distinct = true
		p.advance()
	}

	columns, err := p.parseSelectList()
	if err != nil {
		return nil, fmt.Errorf("failed to parse SELECT list: %w", err)
	}
	stmt.Columns = columns

	if err := p.expect(TokenFrom); err != nil {
		return nil, err
	}

	from, err := p.parseFrom()
	if err != nil {
		return nil, fmt.Errorf("failed to parse FROM clause: %w", err)
	}
	stmt.From = from

	if p.current().Type == TokenWhere {
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, fmt.Errorf("failed to parse WHERE clause: %w", err)
		}
		stmt.Where = cond
	}

	if p.current().Type == TokenGroup {
		groupBy, err := p.parseGroupBy()
		if err != nil {
			return nil, fmt.Errorf("failed to parse GROUP BY clause: %w", err)
		}
		stmt.GroupBy = groupBy
	}

	if p.current().Type == TokenHaving {
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, fmt.Errorf("failed to parse HAVING clause: %w", err)
		}
		stmt.Having = cond
	}

	if p.current().Type == TokenOrder {
		orderBy, err := p.parseOrderBy()
		if err != nil {
			return nil, fmt.Errorf("failed to parse ORDER BY clause: %w", err)
		}
		stmt.OrderBy = orderBy
	}

	if p.current().Type == TokenLimit {
		limit, err := p.parseLimit()
		if err != nil {
			return nil, fmt.Errorf("failed to parse LIMIT clause: %w", err)
		}
		stmt.Limit = limit
	}

	return stmt, nil
}

// parseSelectList parses the comma-separated SELECT column list
func (p *Parser) parseSelectList() ([]Column, error) {
	var columns []Column

	for {
		col, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)

		// Check for comma (more columns)
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return columns, nil
}

// parseColumn parses a single SELECT list item with its optional alias
func (p *Parser) parseColumn() (Column, error) {
	var col Column

	switch {
	case p.current().Type == TokenStar:
		col.Name = "*"
		p.advance()
		// * takes no alias
		return col, nil

	case p.current().Type == TokenCase:
		expr, err := p.parseCaseExpr()
		if err != nil {
			return col, err
		}
		col.Expr = expr

	case aggregateTokens[p.current().Type] != "" && p.peek().Type == TokenLeftParen:
		c, err := p.parseAggregateColumn(aggregateTokens[p.current().Type])
		if err != nil {
			return col, err
		}
		col = c

	case p.current().Type == TokenIdent && p.peek().Type == TokenLeftParen:
		expr, err := p.parseFunctionCall()
		if err != nil {
			return col, err
		}
		col.Expr = expr

	case p.current().Type == TokenIdent:
		ref, err := p.parseColumnRef()
		if err != nil {
			return col, err
		}
		col.Name = ref.Name
		col.TableAlias = ref.Qualifier

	default:
		return col, p.errorf("column name, *, or expression")
	}

	// Alias: AS name, or a bare trailing identifier. Clause keywords lex as
	// keyword tokens, so any identifier here is an alias.
	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return col, p.errorf("alias name after AS")
		}
		col.Alias = p.current().Value
		p.advance()
	} else if p.current().Type == TokenIdent {
		col.Alias = p.current().Value
		p.advance()
	}

	return col, nil
}

// parseAggregateColumn parses an aggregate call in the SELECT list:
// FUNC(*), FUNC([DISTINCT] column), or FUNC(expression)
func (p *Parser) parseAggregateColumn(fn string) (Column, error) {
	p.advance() // function keyword
	p.advance() // (

	col := Column{Function: fn}

	switch {
	case p.current().Type == TokenStar:
		col.Name = "*"
		p.advance()

	case p.current().Type == TokenDistinct:
		col.FunctionDistinct = true
		p.advance()
		ref, err := p.parseColumnRef()
		if err != nil {
			return col, err
		}
		col.Name = ref.Name
		col.TableAlias = ref.Qualifier

	case p.current().Type == TokenIdent && (p.peek().Type == TokenRightParen || p.peek().Type == TokenDot):
		ref, err := p.parseColumnRef()
		if err != nil {
			return col, err
		}
		col.Name = ref.Name
		col.TableAlias = ref.Qualifier

	default:
		// Aggregate over a computed expression, e.g. AVG(CASE ... END).
		// Recorded as an expression column so the executor materializes the
		// argument per row before aggregating.
		arg, err := p.parseExpression()
		if err != nil {
			return col, err
		}
		col = Column{Expr: &FunctionExpr{Name: fn, Args: []Expression{arg}}}
	}

	if err := p.expect(TokenRightParen); err != nil {
		return col, err
	}

	return col, nil
}

// parseColumnRef parses an optionally qualified column name (alias.column)
func (p *Parser) parseColumnRef() (ColumnRef, error) {
	var ref ColumnRef

	if p.current().Type != TokenIdent {
		return ref, p.errorf("column name")
	}
	ref.Name = p.current().Value
	p.advance()

	if p.current().Type == TokenDot {
		p.advance()
		if p.current().Type != TokenIdent {
			return ref, p.errorf("column name after '.'")
		}
		ref.Qualifier = ref.Name
		ref.Name = p.current().Value
		p.advance()
	}

	return ref, nil
}

// parseAggregateRef parses an aggregate call used as a column reference in
// HAVING or ORDER BY and returns a ColumnRef naming its canonical spelling,
// e.g. COUNT(*) or SUM(amount). These resolve against the column names the
// aggregation step synthesizes.
func (p *Parser) parseAggregateRef(fn string) (ColumnRef, error) {
	p.advance() // function keyword
	p.advance() // (

	var arg string
	switch {
	case p.current().Type == TokenStar:
		arg = "*"
		p.advance()
	case p.current().Type == TokenDistinct:
		p.advance()
		ref, err := p.parseColumnRef()
		if err != nil {
			return ColumnRef{}, err
		}
		arg = "DISTINCT " + ref.String()
	default:
		ref, err := p.parseColumnRef()
		if err != nil {
			return ColumnRef{}, err
		}
		arg = ref.String()
	}

	if err := p.expect(TokenRightParen); err != nil {
		return ColumnRef{}, err
	}

	return ColumnRef{Name: fn + "(" + arg + ")"}, nil
}

// parseFrom parses the FROM clause: a base table with optional alias
// followed by zero or more joins
func (p *Parser) parseFrom() (*FromClause, error) {
	if p.current().Type != TokenIdent {
		return nil, p.errorf("table name")
	}
	from := &FromClause{Table: p.current().Value}
	p.advance()

	// Optional alias
	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return nil, p.errorf("alias name after AS")
		}
		from.Alias = p.current().Value
		p.advance()
	} else if p.current().Type == TokenIdent {
		from.Alias = p.current().Value
		p.advance()
	}

	for isJoinStart(p.current().Type) {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		from.Joins = append(from.Joins, *join)
	}

	return from, nil
}

// isJoinStart reports whether a token type can begin a join clause
func isJoinStart(t TokenType) bool {
	switch t {
	case TokenJoin, TokenInner, TokenLeft, TokenRight, TokenFull, TokenCross:
		return true
	}
	return false
}

// parseJoin parses one join clause
func (p *Parser) parseJoin() (*Join, error) {
	join := &Join{}

	// Determine join type
	switch p.current().Type {
	case TokenCross:
		join.Type = JoinCross
		p.advance()
		if err := p.expect(TokenJoin); err != nil {
			return nil, err
		}
	case TokenInner:
		join.Type = JoinInner
		p.advance()
		if err := p.expect(TokenJoin); err != nil {
			return nil, err
		}
	case TokenLeft:
		join.Type = JoinLeft
		p.advance()
		// Optional OUTER keyword
		if p.current().Type == TokenOuter {
			p.advance()
		}
		if err := p.expect(TokenJoin); err != nil {
			return nil, err
		}
	case TokenRight:
		join.Type = JoinRight
		p.advance()
		// Optional OUTER keyword
		if p.current().Type == TokenOuter {
			p.advance()
		}
		if err := p.expect(TokenJoin); err != nil {
			return nil, err
		}
	case TokenFull:
		join.Type = JoinFull
		p.advance()
		// Optional OUTER keyword
		if p.current().Type == TokenOuter {
			p.advance()
		}
		if err := p.expect(TokenJoin); err != nil {
			return nil, err
		}
	case TokenJoin:
		// Plain JOIN defaults to INNER JOIN
		join.Type = JoinInner
		p.advance()
	}

	if p.current().Type != TokenIdent {
		return nil, p.errorf("table name after JOIN")
	}
	join.Table = p.current().Value
	p.advance()

	// Optional alias
	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return nil, p.errorf("alias name after AS")
		}
		join.Alias = p.current().Value
		p.advance()
	} else if p.current().Type == TokenIdent {
		join.Alias = p.current().Value
		p.advance()
	}

	// CROSS JOIN takes no ON condition; every other join requires one
	if join.Type == JoinCross {
		if p.current().Type == TokenOn {
			return nil, p.errorf("no ON condition after CROSS JOIN")
		}
		return join, nil
	}

	if err := p.expect(TokenOn); err != nil {
		return nil, err
	}

	cond, err := p.parseCondition()
	if err != nil {
		return nil, fmt.Errorf("failed to parse JOIN condition: %w", err)
	}
	join.On = cond

	return join, nil
}

// parseGroupBy parses the GROUP BY clause
func (p *Parser) parseGroupBy() ([]ColumnRef, error) {
	p.advance() // GROUP
	if err := p.expect(TokenBy); err != nil {
		return nil, err
	}

	var columns []ColumnRef

	for {
		ref, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		columns = append(columns, ref)

		// Check for comma (more columns)
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return columns, nil
}

// parseOrderBy parses the ORDER BY clause. Keys may be plain columns,
// aliases, or aggregate calls spelled inline.
func (p *Parser) parseOrderBy() ([]OrderColumn, error) {
	p.advance() // ORDER
	if err := p.expect(TokenBy); err != nil {
		return nil, err
	}

	var items []OrderColumn

	for {
		var ref ColumnRef
		if fn, ok := aggregateTokens[p.current().Type]; ok && p.peek().Type == TokenLeftParen {
			r, err := p.parseAggregateRef(fn)
			if err != nil {
				return nil, err
			}
			ref = r
		} else {
			r, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			ref = r
		}

		item := OrderColumn{Column: ref, Ascending: true}

		// Check for ASC/DESC modifier
		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			item.Ascending = false
			p.advance()
		}

		items = append(items, item)

		// Check for comma (more keys)
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return items, nil
}

// parseLimit parses the LIMIT clause with its optional OFFSET
func (p *Parser) parseLimit() (*LimitClause, error) {
	p.advance() // LIMIT

	if p.current().Type != TokenNumber {
		return nil, p.errorf("row count after LIMIT")
	}
	count, err := strconv.ParseInt(p.current().Value, 10, 64)
	if err != nil {
		return nil, p.errorf("integer row count after LIMIT")
	}
	p.advance()

	limit := &LimitClause{Count: count}

	if p.current().Type == TokenOffset {
		p.advance()
		if p.current().Type != TokenNumber {
			return nil, p.errorf("row count after OFFSET")
		}
		offset, err := strconv.ParseInt(p.current().Value, 10, 64)
		if err != nil {
			return nil, p.errorf("integer row count after OFFSET")
		}
		limit.Offset = offset
		p.advance()
	}

	return limit, nil
}
