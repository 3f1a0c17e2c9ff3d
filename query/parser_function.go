package query

import (
	"fmt"
)

// parseExpression parses a computed expression usable in a SELECT list or
// as a function argument: a literal, a column reference, a function call,
// an aggregate call, or a CASE expression.
func (p *Parser) parseExpression() (Expression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	switch {
	case p.current().Type == TokenCase:
		return p.parseCaseExpr()

	case aggregateTokens[p.current().Type] != "" && p.peek().Type == TokenLeftParen:
		return p.parseAggregateExpr(aggregateTokens[p.current().Type])

	case p.current().Type == TokenIdent && p.peek().Type == TokenLeftParen:
		return p.parseFunctionCall()

	case p.current().Type == TokenIdent:
		ref, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		return &ColumnExpr{Ref: ref}, nil

	case p.current().Type == TokenString, p.current().Type == TokenNumber,
		p.current().Type == TokenBool, p.current().Type == TokenNull:
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Value: v}, nil
	}

	return nil, p.errorf("expression")
}

// parseFunctionCall parses a scalar function call with expression arguments
func (p *Parser) parseFunctionCall() (Expression, error) {
	fn := &FunctionExpr{Name: p.current().Value}
	p.advance() // function name
	p.advance() // (

	// Check for empty argument list
	if p.current().Type == TokenRightParen {
		p.advance()
		return fn, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	return fn, nil
}

// parseAggregateExpr parses an aggregate call nested inside an expression,
// e.g. the AVG in round(AVG(price), 2). The argument is a single expression;
// * and DISTINCT are only valid in the flat SELECT list form.
func (p *Parser) parseAggregateExpr(fn string) (Expression, error) {
	p.advance() // function keyword
	p.advance() // (

	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	return &FunctionExpr{Name: fn, Args: []Expression{arg}}, nil
}

// parseCaseExpr parses both CASE forms. The simple form compares a subject
// expression against each WHEN value, the searched form evaluates each WHEN
// condition in turn.
func (p *Parser) parseCaseExpr() (Expression, error) {
	p.advance() // CASE

	expr := &CaseExpr{}

	// Simple form carries a subject expression before the first WHEN
	if p.current().Type != TokenWhen {
		subject, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse CASE subject: %w", err)
		}
		expr.Subject = subject
	}

	for p.current().Type == TokenWhen {
		p.advance()

		var when WhenClause
		if expr.Subject != nil {
			match, err := p.parseExpression()
			if err != nil {
				return nil, fmt.Errorf("failed to parse WHEN value: %w", err)
			}
			when.Match = match
		} else {
			cond, err := p.parseCondition()
			if err != nil {
				return nil, fmt.Errorf("failed to parse WHEN condition: %w", err)
			}
			when.Cond = cond
		}

		if err := p.expect(TokenThen); err != nil {
			return nil, err
		}

		then, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse THEN result: %w", err)
		}
		when.Then = then

		expr.Whens = append(expr.Whens, when)
	}

	if len(expr.Whens) == 0 {
		return nil, p.errorf("WHEN")
	}

	if p.current().Type == TokenElse {
		p.advance()
		elseExpr, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse ELSE result: %w", err)
		}
		expr.Else = elseExpr
	}

	if err := p.expect(TokenEnd); err != nil {
		return nil, err
	}

	return expr, nil
}
