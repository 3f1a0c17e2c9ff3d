package query

import (
	"fmt"
	"strings"
)

// needsAggregation reports whether the plan runs the grouping step: a
// GROUP BY clause, an aggregate column, or a selected expression
// containing an aggregate call.
func needsAggregation(plan *Plan) bool {
	if len(plan.GroupBy) > 0 {
		return true
	}
	for i := range plan.Columns {
		if plan.Columns[i].Function != "" {
			return true
		}
		if exprContainsAggregate(plan.Columns[i].Expr) {
			return true
		}
	}
	return false
}

func isAggregateName(name string) bool {
	switch name {
	case "count", "sum", "avg", "min", "max":
		return true
	}
	return false
}

func exprContainsAggregate(e *PlanExpr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ExprFunction:
		if isAggregateName(e.Name) {
			return true
		}
		for _, arg := range e.Args {
			if exprContainsAggregate(arg) {
				return true
			}
		}
	case ExprCase:
		if exprContainsAggregate(e.Subject) {
			return true
		}
		for _, when := range e.Whens {
			if exprContainsAggregate(when.Match) || exprContainsAggregate(when.Then) {
				return true
			}
		}
		return exprContainsAggregate(e.Else)
	}
	return false
}

type aggKind int

const (
	aggGroup aggKind = iota // pass-through grouping column
	aggFlat                 // plain aggregate over one column or *
	aggExpr                 // expression containing aggregate calls
)

// aggColumn is one resolved select-list entry of an aggregated query.
type aggColumn struct {
	kind     aggKind
	name     string
	origin   colOrigin
	groupIdx int       // aggGroup: working column index
	fn       string    // aggFlat: aggregate function
	argIdx   int       // aggFlat: argument column, -1 for *
	distinct bool      // aggFlat: DISTINCT inside the call
	expr     *PlanExpr // aggExpr: the expression tree
}

// aggregate runs the grouping step: resolve the grouping columns, validate
// the select list shape, partition the rows, and compute one output row
// per partition. Grouping columns keep their provenance so qualified
// HAVING and ORDER BY references still resolve; aggregate columns carry
// their canonical spelling as provenance so HAVING can use it even when
// the column is aliased.
func (env *execEnv) aggregate(plan *Plan, rel *relation) (*relation, error) {
	ev := &rowEval{env: env, rel: rel}

	groupIdxs := make([]int, 0, len(plan.GroupBy))
	groupSet := make(map[int]struct{}, len(plan.GroupBy))
	for _, entry := range plan.GroupBy {
		idx, err := resolveGroupRef(rel, entry)
		if err != nil {
			return nil, err
		}
		groupIdxs = append(groupIdxs, idx)
		groupSet[idx] = struct{}{}
	}

	specs, err := aggregateColumns(ev, plan, rel, groupSet)
	if err != nil {
		return nil, err
	}

	// Partition rows by group key in first-seen order. Without GROUP BY
	// the whole input is one partition, even when empty; with GROUP BY an
	// empty input yields no partitions.
	var parts [][][]Value
	if len(groupIdxs) == 0 {
		all := make([][]Value, rel.table.NumRows())
		for i := range all {
			all[i] = rel.table.Row(i)
		}
		parts = [][][]Value{all}
	} else {
		byKey := make(map[string]int)
		for i := 0; i < rel.table.NumRows(); i++ {
			row := rel.table.Row(i)
			key := rowKey(row, groupIdxs)
			pi, ok := byKey[key]
			if !ok {
				pi = len(parts)
				byKey[key] = pi
				parts = append(parts, nil)
			}
			parts[pi] = append(parts[pi], row)
		}
	}

	names := make([]string, len(specs))
	origins := make([]colOrigin, len(specs))
	for i := range specs {
		names[i] = specs[i].name
		origins[i] = specs[i].origin
	}

	outRows := make([][]Value, 0, len(parts))
	for _, part := range parts {
		row := make([]Value, len(specs))
		for i := range specs {
			v, err := env.aggregateValue(ev, &specs[i], part, rel.table.NumColumns())
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		outRows = append(outRows, row)
	}

	return &relation{table: newTable(names, outRows), origins: origins}, nil
}

// resolveGroupRef resolves one GROUP BY entry. The flattened spelling is
// tried as a working column name first, so headers containing dots keep
// working, then as a qualified reference.
func resolveGroupRef(rel *relation, entry string) (int, error) {
	if idx, ok := rel.table.ColumnIndex(entry); ok {
		return idx, nil
	}
	if dot := strings.IndexByte(entry, '.'); dot >= 0 {
		return rel.resolve(entry[:dot], entry[dot+1:])
	}
	return rel.resolve("", entry)
}

// aggregateColumns resolves and validates the select list of an aggregated
// query. Every non-aggregate column must be one of the grouping columns.
func aggregateColumns(ev *rowEval, plan *Plan, rel *relation, groupSet map[int]struct{}) ([]aggColumn, error) {
	var specs []aggColumn
	for i := range plan.Columns {
		col := &plan.Columns[i]
		switch {
		case col.Function != "":
			spec := aggColumn{kind: aggFlat, fn: col.Function, distinct: col.FunctionDistinct, argIdx: -1}
			arg := "*"
			if col.Name != "*" {
				idx, err := rel.resolve(col.TableAlias, col.Name)
				if err != nil {
					return nil, err
				}
				spec.argIdx = idx
				arg = refSpelling(col.TableAlias, col.Name)
			}
			canonical := aggregateDisplay(col.Function, col.FunctionDistinct, arg)
			spec.name = displayName(col.Alias, canonical)
			spec.origin = colOrigin{name: canonical}
			specs = append(specs, spec)

		case col.Expr != nil:
			if !exprContainsAggregate(col.Expr) {
				return nil, aggregateShape("expression %q must contain an aggregate function when grouping",
					spellPlanExpr(col.Expr))
			}
			if err := validateAggExpr(ev, col.Expr); err != nil {
				return nil, err
			}
			canonical := spellPlanExpr(col.Expr)
			specs = append(specs, aggColumn{
				kind:   aggExpr,
				expr:   col.Expr,
				name:   displayName(col.Alias, canonical),
				origin: colOrigin{name: canonical},
			})

		case col.Name == "*":
			for idx, n := range rel.table.Columns() {
				if _, grouped := groupSet[idx]; !grouped {
					return nil, aggregateShape("column %q must appear in the GROUP BY clause or be used in an aggregate function", n)
				}
				specs = append(specs, aggColumn{kind: aggGroup, groupIdx: idx, name: n, origin: rel.origins[idx]})
			}

		default:
			idx, err := rel.resolve(col.TableAlias, col.Name)
			if err != nil {
				return nil, err
			}
			if _, grouped := groupSet[idx]; !grouped {
				return nil, aggregateShape("column %q must appear in the GROUP BY clause or be used in an aggregate function",
					refSpelling(col.TableAlias, col.Name))
			}
			specs = append(specs, aggColumn{
				kind:     aggGroup,
				groupIdx: idx,
				name:     displayName(col.Alias, rel.table.Columns()[idx]),
				origin:   rel.origins[idx],
			})
		}
	}
	return specs, nil
}

// aggregateDisplay builds the canonical output spelling of an aggregate,
// e.g. COUNT(*) or SUM(DISTINCT t.amount).
func aggregateDisplay(fn string, distinct bool, arg string) string {
	prefix := ""
	if distinct {
		prefix = "DISTINCT "
	}
	return strings.ToUpper(fn) + "(" + prefix + arg + ")"
}

// validateAggExpr checks an aggregate-bearing expression ahead of per
// partition evaluation: aggregates take exactly one un-nested argument,
// scalar calls must exist in the registry, and column references must
// resolve.
func validateAggExpr(ev *rowEval, e *PlanExpr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprColumn:
		_, err := ev.resolveRef(e.Qualifier, e.Name)
		return err
	case ExprFunction:
		if isAggregateName(e.Name) {
			if len(e.Args) != 1 {
				return aggregateShape("%s takes exactly one argument in an expression", strings.ToUpper(e.Name))
			}
			if exprContainsAggregate(e.Args[0]) {
				return aggregateShape("aggregate calls cannot be nested")
			}
			return ev.validateExpr(e.Args[0])
		}
		for _, arg := range e.Args {
			if err := validateAggExpr(ev, arg); err != nil {
				return err
			}
		}
	case ExprCase:
		if err := validateAggExpr(ev, e.Subject); err != nil {
			return err
		}
		for _, when := range e.Whens {
			if err := validateAggExpr(ev, when.Match); err != nil {
				return err
			}
			if err := ev.validateCond(when.Cond); err != nil {
				return err
			}
			if err := validateAggExpr(ev, when.Then); err != nil {
				return err
			}
		}
		return validateAggExpr(ev, e.Else)
	}
	return nil
}

// aggregateValue computes one output cell for a partition.
func (env *execEnv) aggregateValue(ev *rowEval, spec *aggColumn, rows [][]Value, width int) (Value, error) {
	switch spec.kind {
	case aggGroup:
		if len(rows) == 0 {
			return NullValue(), nil
		}
		return rows[0][spec.groupIdx], nil
	case aggFlat:
		if spec.argIdx < 0 {
			if spec.fn != "count" {
				return Value{}, aggregateShape("%s cannot take * as its argument", strings.ToUpper(spec.fn))
			}
			return IntValue(int64(len(rows))), nil
		}
		vals := make([]Value, 0, len(rows))
		for _, row := range rows {
			vals = append(vals, row[spec.argIdx])
		}
		return computeAggregate(spec.fn, vals, spec.distinct)
	case aggExpr:
		return env.evalAggExpr(ev, rows, width, spec.expr)
	}
	return Value{}, &SemanticError{Message: "unresolved aggregate column"}
}

// computeAggregate folds the non-null values of one partition column.
// sum and count of an empty set are Int64 0; avg, min, and max are Null.
func computeAggregate(fn string, vals []Value, distinct bool) (Value, error) {
	nonNull := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsNull() {
			nonNull = append(nonNull, v)
		}
	}
	if distinct {
		nonNull = distinctValues(nonNull)
	}

	switch fn {
	case "count":
		return IntValue(int64(len(nonNull))), nil
	case "sum":
		return sumValues(fn, nonNull)
	case "avg":
		if len(nonNull) == 0 {
			return NullValue(), nil
		}
		sum, err := sumValues(fn, nonNull)
		if err != nil {
			return Value{}, err
		}
		total, _ := sum.asFloat()
		return FloatValue(total / float64(len(nonNull))), nil
	case "min", "max":
		if len(nonNull) == 0 {
			return NullValue(), nil
		}
		best := nonNull[0]
		for _, v := range nonNull[1:] {
			cmp, err := compareValues(v, best)
			if err != nil {
				return Value{}, err
			}
			if (fn == "min" && cmp < 0) || (fn == "max" && cmp > 0) {
				best = v
			}
		}
		return best, nil
	}
	return Value{}, &SemanticError{Message: fmt.Sprintf("unsupported aggregate function %q", fn)}
}

// sumValues adds numeric values, staying Int64 until a Float64 appears.
func sumValues(fn string, vals []Value) (Value, error) {
	var intSum int64
	var floatSum float64
	isFloat := false
	for _, v := range vals {
		switch v.Kind() {
		case KindInt64:
			if isFloat {
				floatSum += float64(v.Int())
			} else {
				intSum += v.Int()
			}
		case KindFloat64:
			if !isFloat {
				isFloat = true
				floatSum = float64(intSum)
			}
			floatSum += v.Float()
		default:
			return Value{}, typeMismatch("%s requires numeric values, got %s", fn, v.Kind())
		}
	}
	if isFloat {
		return FloatValue(floatSum), nil
	}
	return IntValue(intSum), nil
}

// distinctValues keeps the first occurrence of each value by canonical key.
func distinctValues(vals []Value) []Value {
	seen := make(map[string]struct{}, len(vals))
	out := make([]Value, 0, len(vals))
	var sb strings.Builder
	for _, v := range vals {
		sb.Reset()
		v.writeKey(&sb)
		key := sb.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// evalAggExpr evaluates an expression containing aggregate calls for one
// partition. Each aggregate call materializes its argument per row and
// folds the result; the surrounding expression evaluates once per
// partition, with bare column references reading the representative row.
func (env *execEnv) evalAggExpr(ev *rowEval, rows [][]Value, width int, e *PlanExpr) (Value, error) {
	switch e.Kind {
	case ExprLiteral:
		return e.Literal, nil
	case ExprColumn:
		idx, err := ev.resolveRef(e.Qualifier, e.Name)
		if err != nil {
			return Value{}, err
		}
		return repRow(rows, width)[idx], nil
	case ExprFunction:
		if isAggregateName(e.Name) {
			if len(e.Args) != 1 {
				return Value{}, aggregateShape("%s takes exactly one argument in an expression", strings.ToUpper(e.Name))
			}
			vals := make([]Value, 0, len(rows))
			for _, row := range rows {
				v, err := ev.evalExpr(row, e.Args[0])
				if err != nil {
					return Value{}, err
				}
				vals = append(vals, v)
			}
			return computeAggregate(e.Name, vals, false)
		}
		args := make([]Value, len(e.Args))
		for i, arg := range e.Args {
			v, err := env.evalAggExpr(ev, rows, width, arg)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return GetGlobalRegistry().Call(e.Name, args)
	case ExprCase:
		return env.evalAggCase(ev, rows, width, e)
	}
	return Value{}, fmt.Errorf("unsupported expression kind %q", string(e.Kind))
}

func (env *execEnv) evalAggCase(ev *rowEval, rows [][]Value, width int, e *PlanExpr) (Value, error) {
	if e.Subject != nil {
		subject, err := env.evalAggExpr(ev, rows, width, e.Subject)
		if err != nil {
			return Value{}, err
		}
		for _, when := range e.Whens {
			match, err := env.evalAggExpr(ev, rows, width, when.Match)
			if err != nil {
				return Value{}, err
			}
			if valuesEqual(subject, match) {
				return env.evalAggExpr(ev, rows, width, when.Then)
			}
		}
	} else {
		rep := repRow(rows, width)
		for _, when := range e.Whens {
			hit, err := ev.evalCond(rep, when.Cond)
			if err != nil {
				return Value{}, err
			}
			if hit {
				return env.evalAggExpr(ev, rows, width, when.Then)
			}
		}
	}
	if e.Else != nil {
		return env.evalAggExpr(ev, rows, width, e.Else)
	}
	return NullValue(), nil
}

// repRow picks the partition's representative row for the non-aggregate
// parts of an aggregate expression; an empty partition reads as all Nulls.
func repRow(rows [][]Value, width int) []Value {
	if len(rows) > 0 {
		return rows[0]
	}
	return make([]Value, width)
}
