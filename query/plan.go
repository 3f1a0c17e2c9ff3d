package query

import (
	"fmt"
	"strings"
)

// CompareOp is the canonical comparison tag used in plans. Operator
// spellings from the source text do not survive plan generation.
type CompareOp string

const (
	OpEq         CompareOp = "eq"
	OpNe         CompareOp = "ne"
	OpLt         CompareOp = "lt"
	OpGt         CompareOp = "gt"
	OpLe         CompareOp = "le"
	OpGe         CompareOp = "ge"
	OpIn         CompareOp = "in"
	OpNotIn      CompareOp = "not_in"
	OpLike       CompareOp = "like"
	OpNotLike    CompareOp = "not_like"
	OpBetween    CompareOp = "between"
	OpNotBetween CompareOp = "not_between"
	OpIsNull     CompareOp = "is_null"
	OpIsNotNull  CompareOp = "is_not_null"
)

// LogicalOp combines two plan conditions.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "and"
	LogicalOr  LogicalOp = "or"
)

// OperandKind tags the right-hand side of a plan comparison.
type OperandKind string

const (
	OperandInteger  OperandKind = "integer"
	OperandFloat    OperandKind = "float"
	OperandString   OperandKind = "string"
	OperandBool     OperandKind = "bool"
	OperandNull     OperandKind = "null"
	OperandList     OperandKind = "list"
	OperandColumn   OperandKind = "column"
	OperandSubquery OperandKind = "subquery"
)

// Operand is the classified right-hand side of a comparison. The payload
// field depends on Kind: Value for scalar literals, List for IN and BETWEEN,
// Qualifier/Name for column comparisons, Subquery for nested plans.
type Operand struct {
	Kind      OperandKind
	Value     Value
	List      []Value
	Qualifier string
	Name      string
	Subquery  *Plan
}

// PlanCond is a node of a lowered condition tree. Logical is set for AND/OR
// nodes, in which case Left and Right are the operands and the leaf fields
// are unused. Leaves carry a column reference, a canonical operator, and a
// classified operand (is_null and is_not_null carry no operand).
type PlanCond struct {
	Logical LogicalOp
	Left    *PlanCond
	Right   *PlanCond

	Column    string
	Qualifier string
	Op        CompareOp
	Operand   Operand
}

// PlanExprKind tags a lowered expression node.
type PlanExprKind string

const (
	ExprLiteral  PlanExprKind = "literal"
	ExprColumn   PlanExprKind = "column"
	ExprFunction PlanExprKind = "function"
	ExprCase     PlanExprKind = "case"
)

// PlanExpr is a lowered SELECT-list expression. Name holds the column name
// for column nodes and the lower-cased function name for function nodes.
type PlanExpr struct {
	Kind      PlanExprKind
	Literal   Value
	Qualifier string
	Name      string
	Args      []*PlanExpr
	Subject   *PlanExpr
	Whens     []PlanWhen
	Else      *PlanExpr
}

// PlanWhen is one lowered CASE arm. Exactly one of Match and Cond is set.
type PlanWhen struct {
	Match *PlanExpr
	Cond  *PlanCond
	Then  *PlanExpr
}

// PlanColumn is one lowered output column. Function holds the lower-cased
// aggregate name for aggregate columns; Expr is set for computed columns.
type PlanColumn struct {
	Name             string
	Alias            string
	Function         string
	FunctionDistinct bool
	TableAlias       string
	Expr             *PlanExpr
}

// PlanFrom names the base table and lowered joins.
type PlanFrom struct {
	Table string
	Alias string
	Joins []PlanJoin
}

// PlanJoin is one lowered join.
type PlanJoin struct {
	Type  JoinType
	Table string
	Alias string
	On    *PlanCond
}

// PlanOrder is one lowered ORDER BY key.
type PlanOrder struct {
	Column    string
	Qualifier string
	Ascending bool
}

// PlanLimit bounds the result rows.
type PlanLimit struct {
	Count  int
	Offset int
}

// PlanSetOp chains another plan onto a query result.
type PlanSetOp struct {
	Type  SetOpType
	All   bool
	Right *Plan
}

// Plan is the canonical execution form of one query. The executor consumes
// plans only and never sees parser syntax.
type Plan struct {
	Distinct bool
	Columns  []PlanColumn
	From     PlanFrom
	Filter   *PlanCond
	GroupBy  []string
	Having   *PlanCond
	OrderBy  []PlanOrder
	Limit    *PlanLimit
	SetOps   []PlanSetOp
}

// Compile tokenizes, parses, and lowers a query into an executable plan.
func Compile(sql string) (*Plan, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	return GeneratePlan(stmt)
}

// GeneratePlan lowers a parsed statement into a Plan. It fails only with a
// SemanticError on AST shapes it cannot classify, which indicates a defect
// in the parser rather than bad input.
func GeneratePlan(stmt *SelectStatement) (*Plan, error) {
	if stmt == nil {
		return nil, &SemanticError{Message: "cannot plan a nil statement"}
	}

	plan := &Plan{Distinct: stmt.Distinct}

	for _, col := range stmt.Columns {
		pc, err := lowerColumn(col)
		if err != nil {
			return nil, err
		}
		plan.Columns = append(plan.Columns, pc)
	}

	if stmt.From == nil {
		return nil, &SemanticError{Message: "statement has no FROM clause"}
	}
	plan.From = PlanFrom{Table: stmt.From.Table, Alias: stmt.From.Alias}
	for _, join := range stmt.From.Joins {
		pj := PlanJoin{Type: join.Type, Table: join.Table, Alias: join.Alias}
		if join.On != nil {
			on, err := lowerCondition(join.On)
			if err != nil {
				return nil, err
			}
			pj.On = on
		}
		plan.From.Joins = append(plan.From.Joins, pj)
	}

	if stmt.Where != nil {
		filter, err := lowerCondition(stmt.Where)
		if err != nil {
			return nil, err
		}
		plan.Filter = filter
	}

	for _, ref := range stmt.GroupBy {
		plan.GroupBy = append(plan.GroupBy, ref.String())
	}

	if stmt.Having != nil {
		having, err := lowerCondition(stmt.Having)
		if err != nil {
			return nil, err
		}
		plan.Having = having
	}

	for _, item := range stmt.OrderBy {
		plan.OrderBy = append(plan.OrderBy, PlanOrder{
			Column:    item.Column.Name,
			Qualifier: item.Column.Qualifier,
			Ascending: item.Ascending,
		})
	}

	if stmt.Limit != nil {
		plan.Limit = &PlanLimit{
			Count:  int(stmt.Limit.Count),
			Offset: int(stmt.Limit.Offset),
		}
	}

	for _, op := range stmt.SetOps {
		right, err := GeneratePlan(op.Right)
		if err != nil {
			return nil, err
		}
		plan.SetOps = append(plan.SetOps, PlanSetOp{Type: op.Type, All: op.All, Right: right})
	}

	return plan, nil
}

// lowerColumn flattens one SELECT list column.
func lowerColumn(col Column) (PlanColumn, error) {
	pc := PlanColumn{
		Name:             col.Name,
		Alias:            col.Alias,
		FunctionDistinct: col.FunctionDistinct,
		TableAlias:       col.TableAlias,
	}

	if col.Function != "" {
		pc.Function = strings.ToLower(col.Function)
	}

	if col.Expr != nil {
		expr, err := lowerExpression(col.Expr)
		if err != nil {
			return pc, err
		}
		pc.Expr = expr
		return pc, nil
	}

	if col.Name == "" {
		return pc, &SemanticError{Message: "column has neither a name nor an expression"}
	}

	return pc, nil
}

// lowerCondition lowers a condition tree to plan form, normalizing operator
// spellings to canonical tags and classifying operands.
func lowerCondition(cond Condition) (*PlanCond, error) {
	switch c := cond.(type) {
	case *LogicalCond:
		left, err := lowerCondition(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := lowerCondition(c.Right)
		if err != nil {
			return nil, err
		}
		op := LogicalAnd
		if c.Op == TokenOr {
			op = LogicalOr
		} else if c.Op != TokenAnd {
			return nil, &SemanticError{Message: fmt.Sprintf("unexpected logical operator %v", c.Op)}
		}
		return &PlanCond{Logical: op, Left: left, Right: right}, nil

	case *CompareCond:
		return lowerCompare(c)

	case *InCond:
		leaf := &PlanCond{
			Column:    c.Left.Name,
			Qualifier: c.Left.Qualifier,
			Op:        OpIn,
		}
		if c.Negate {
			leaf.Op = OpNotIn
		}
		if c.Subquery != nil {
			sub, err := GeneratePlan(c.Subquery)
			if err != nil {
				return nil, err
			}
			leaf.Operand = Operand{Kind: OperandSubquery, Subquery: sub}
		} else {
			leaf.Operand = Operand{Kind: OperandList, List: c.Values}
		}
		return leaf, nil

	case *LikeCond:
		leaf := &PlanCond{
			Column:    c.Left.Name,
			Qualifier: c.Left.Qualifier,
			Op:        OpLike,
			Operand:   Operand{Kind: OperandString, Value: TextValue(c.Pattern)},
		}
		if c.Negate {
			leaf.Op = OpNotLike
		}
		return leaf, nil

	case *BetweenCond:
		leaf := &PlanCond{
			Column:    c.Left.Name,
			Qualifier: c.Left.Qualifier,
			Op:        OpBetween,
			Operand:   Operand{Kind: OperandList, List: []Value{c.Lower, c.Upper}},
		}
		if c.Negate {
			leaf.Op = OpNotBetween
		}
		return leaf, nil

	case *NullCond:
		leaf := &PlanCond{
			Column:    c.Left.Name,
			Qualifier: c.Left.Qualifier,
			Op:        OpIsNull,
		}
		if c.Negate {
			leaf.Op = OpIsNotNull
		}
		return leaf, nil
	}

	return nil, &SemanticError{Message: fmt.Sprintf("unsupported condition node %T", cond)}
}

// lowerCompare lowers a six-operator comparison leaf.
func lowerCompare(c *CompareCond) (*PlanCond, error) {
	var op CompareOp
	switch c.Op {
	case TokenEqual:
		op = OpEq
	case TokenNotEqual:
		op = OpNe
	case TokenLess:
		op = OpLt
	case TokenGreater:
		op = OpGt
	case TokenLessEqual:
		op = OpLe
	case TokenGreaterEqual:
		op = OpGe
	default:
		return nil, &SemanticError{Message: fmt.Sprintf("unexpected comparison operator %v", c.Op)}
	}

	leaf := &PlanCond{
		Column:    c.Left.Name,
		Qualifier: c.Left.Qualifier,
		Op:        op,
	}

	switch {
	case c.Value != nil:
		operand, err := classifyValue(*c.Value)
		if err != nil {
			return nil, err
		}
		leaf.Operand = operand
	case c.Column != nil:
		leaf.Operand = Operand{Kind: OperandColumn, Qualifier: c.Column.Qualifier, Name: c.Column.Name}
	case c.Subquery != nil:
		sub, err := GeneratePlan(c.Subquery)
		if err != nil {
			return nil, err
		}
		leaf.Operand = Operand{Kind: OperandSubquery, Subquery: sub}
	default:
		return nil, &SemanticError{Message: "comparison has no right-hand operand"}
	}

	return leaf, nil
}

// classifyValue tags a literal with its operand kind.
func classifyValue(v Value) (Operand, error) {
	switch v.Kind() {
	case KindInt64:
		return Operand{Kind: OperandInteger, Value: v}, nil
	case KindFloat64:
		return Operand{Kind: OperandFloat, Value: v}, nil
	case KindText:
		return Operand{Kind: OperandString, Value: v}, nil
	case KindBool:
		return Operand{Kind: OperandBool, Value: v}, nil
	case KindNull:
		return Operand{Kind: OperandNull, Value: v}, nil
	}
	return Operand{}, &SemanticError{Message: fmt.Sprintf("unclassifiable literal kind %v", v.Kind())}
}

// lowerExpression lowers a computed expression, lower-casing function names.
func lowerExpression(expr Expression) (*PlanExpr, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		return &PlanExpr{Kind: ExprLiteral, Literal: e.Value}, nil

	case *ColumnExpr:
		return &PlanExpr{Kind: ExprColumn, Qualifier: e.Ref.Qualifier, Name: e.Ref.Name}, nil

	case *FunctionExpr:
		pe := &PlanExpr{Kind: ExprFunction, Name: strings.ToLower(e.Name)}
		for _, arg := range e.Args {
			lowered, err := lowerExpression(arg)
			if err != nil {
				return nil, err
			}
			pe.Args = append(pe.Args, lowered)
		}
		return pe, nil

	case *CaseExpr:
		pe := &PlanExpr{Kind: ExprCase}
		if e.Subject != nil {
			subject, err := lowerExpression(e.Subject)
			if err != nil {
				return nil, err
			}
			pe.Subject = subject
		}
		for _, when := range e.Whens {
			var pw PlanWhen
			switch {
			case when.Match != nil:
				match, err := lowerExpression(when.Match)
				if err != nil {
					return nil, err
				}
				pw.Match = match
			case when.Cond != nil:
				cond, err := lowerCondition(when.Cond)
				if err != nil {
					return nil, err
				}
				pw.Cond = cond
			default:
				return nil, &SemanticError{Message: "CASE arm has neither a match value nor a condition"}
			}
			then, err := lowerExpression(when.Then)
			if err != nil {
				return nil, err
			}
			pw.Then = then
			pe.Whens = append(pe.Whens, pw)
		}
		if e.Else != nil {
			elseExpr, err := lowerExpression(e.Else)
			if err != nil {
				return nil, err
			}
			pe.Else = elseExpr
		}
		return pe, nil
	}

	return nil, &SemanticError{Message: fmt.Sprintf("unsupported expression node %T", expr)}
}
