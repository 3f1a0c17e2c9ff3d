package query

import (
	"fmt"
	"strconv"
	"strings"
)

// parseCondition parses a boolean condition tree as used by WHERE, HAVING,
// JOIN ON, and searched CASE arms.
func (p *Parser) parseCondition() (Condition, error) {
	return p.parseOr()
}

// parseOr parses OR conditions (lowest precedence)
func (p *Parser) parseOr() (Condition, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalCond{
			Op:    TokenOr,
			Left:  left,
			Right: right,
		}
	}

	return left, nil
}

// parseAnd parses AND conditions (higher precedence than OR)
func (p *Parser) parseAnd() (Condition, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &LogicalCond{
			Op:    TokenAnd,
			Left:  left,
			Right: right,
		}
	}

	return left, nil
}

// parseComparison parses one comparison leaf, a NOT-negated leaf, or a
// parenthesized condition
func (p *Parser) parseComparison() (Condition, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	// Parenthesized conditions recurse to the top of the grammar
	if p.current().Type == TokenLeftParen {
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return cond, nil
	}

	// Leading NOT folds into the following comparison
	if p.current().Type == TokenNot {
		p.advance()
		return p.parseNegatedComparison()
	}

	left, err := p.parseComparisonLeft()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenIn:
		return p.parseInCond(left, false)
	case TokenLike:
		return p.parseLikeCond(left, false)
	case TokenBetween:
		return p.parseBetweenCond(left, false)
	case TokenIs:
		return p.parseNullCond(left)
	case TokenNot:
		// col NOT IN / NOT LIKE / NOT BETWEEN
		p.advance()
		switch p.current().Type {
		case TokenIn:
			return p.parseInCond(left, true)
		case TokenLike:
			return p.parseLikeCond(left, true)
		case TokenBetween:
			return p.parseBetweenCond(left, true)
		}
		return nil, p.errorf("IN, LIKE, or BETWEEN after NOT")
	}

	return p.parseCompareOp(left)
}

// parseNegatedComparison parses the comparison following a leading NOT and
// folds the negation into it. NOT applies to a single comparison leaf, not
// to a parenthesized subtree.
func (p *Parser) parseNegatedComparison() (Condition, error) {
	if p.current().Type == TokenLeftParen {
		return nil, p.errorf("comparison after NOT")
	}

	left, err := p.parseComparisonLeft()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenIn:
		return p.parseInCond(left, true)
	case TokenLike:
		return p.parseLikeCond(left, true)
	case TokenBetween:
		return p.parseBetweenCond(left, true)
	case TokenIs:
		cond, err := p.parseNullCond(left)
		if err != nil {
			return nil, err
		}
		// NOT x IS NULL means x IS NOT NULL and vice versa
		nullCond := cond.(*NullCond)
		nullCond.Negate = !nullCond.Negate
		return nullCond, nil
	}

	return nil, p.errorf("IN, LIKE, BETWEEN, or IS after NOT")
}

// parseComparisonLeft parses the left side of a comparison: a column
// reference or an inline aggregate call (used in HAVING)
func (p *Parser) parseComparisonLeft() (ColumnRef, error) {
	if fn, ok := aggregateTokens[p.current().Type]; ok && p.peek().Type == TokenLeftParen {
		return p.parseAggregateRef(fn)
	}
	return p.parseColumnRef()
}

// parseCompareOp parses the six relational operators with a literal, a
// column, or a scalar subquery on the right side
func (p *Parser) parseCompareOp(left ColumnRef) (Condition, error) {
	op := p.current().Type
	switch op {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		p.advance()
	default:
		return nil, p.errorf("comparison operator")
	}

	cond := &CompareCond{Left: left, Op: op}

	switch p.current().Type {
	case TokenString, TokenNumber, TokenBool, TokenNull:
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		cond.Value = &v
	case TokenIdent:
		// Column-to-column comparison, as in JOIN ON clauses
		ref, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		cond.Column = &ref
	case TokenLeftParen:
		sub, err := p.parseSubquery()
		if err != nil {
			return nil, err
		}
		cond.Subquery = sub
	default:
		return nil, p.errorf("value, column, or subquery")
	}

	return cond, nil
}

// parseInCond parses col [NOT] IN (v1, v2, ...) or col [NOT] IN (SELECT ...)
func (p *Parser) parseInCond(left ColumnRef, negate bool) (Condition, error) {
	p.advance() // IN
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	cond := &InCond{Left: left, Negate: negate}

	if p.current().Type == TokenSelect {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, fmt.Errorf("failed to parse IN subquery: %w", err)
		}
		cond.Subquery = stmt
	} else {
		for {
			v, err := p.parseLiteralValue()
			if err != nil {
				return nil, err
			}
			cond.Values = append(cond.Values, v)

			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	return cond, nil
}

// parseLikeCond parses col [NOT] LIKE 'pattern'
func (p *Parser) parseLikeCond(left ColumnRef, negate bool) (Condition, error) {
	p.advance() // LIKE

	if p.current().Type != TokenString {
		return nil, p.errorf("string pattern after LIKE")
	}
	pattern := p.current().Value
	p.advance()

	return &LikeCond{Left: left, Pattern: pattern, Negate: negate}, nil
}

// parseBetweenCond parses col [NOT] BETWEEN lower AND upper
func (p *Parser) parseBetweenCond(left ColumnRef, negate bool) (Condition, error) {
	p.advance() // BETWEEN

	lower, err := p.parseLiteralValue()
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenAnd); err != nil {
		return nil, err
	}

	upper, err := p.parseLiteralValue()
	if err != nil {
		return nil, err
	}

	return &BetweenCond{Left: left, Lower: lower, Upper: upper, Negate: negate}, nil
}

// parseNullCond parses col IS [NOT] NULL
func (p *Parser) parseNullCond(left ColumnRef) (Condition, error) {
	p.advance() // IS

	negate := false
	if p.current().Type == TokenNot {
		negate = true
		p.advance()
	}

	if err := p.expect(TokenNull); err != nil {
		return nil, err
	}

	return &NullCond{Left: left, Negate: negate}, nil
}

// parseLiteralValue consumes a literal token and converts it to a Value
func (p *Parser) parseLiteralValue() (Value, error) {
	tok := p.current()
	switch tok.Type {
	case TokenString:
		p.advance()
		return TextValue(tok.Value), nil
	case TokenNumber:
		p.advance()
		if i, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return IntValue(i), nil
		}
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return Value{}, &ParseError{
				Expected: "numeric literal",
				Found:    fmt.Sprintf("%q", tok.Value),
				Line:     tok.Line,
				Column:   tok.Column,
			}
		}
		return FloatValue(f), nil
	case TokenBool:
		p.advance()
		return BoolValue(strings.EqualFold(tok.Value, "true")), nil
	case TokenNull:
		p.advance()
		return NullValue(), nil
	}
	return Value{}, p.errorf("literal value")
}

// parseSubquery parses a parenthesized SELECT used as a scalar subquery
func (p *Parser) parseSubquery() (*SelectStatement, error) {
	p.advance() // (

	if p.current().Type != TokenSelect {
		return nil, p.errorf("SELECT")
	}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, fmt.Errorf("failed to parse subquery: %w", err)
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	return stmt, nil
}
