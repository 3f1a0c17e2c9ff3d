package query

import (
	"fmt"
	"strings"
)

// MaxExecutionDepth bounds recursive execution of subqueries and set
// operation branches.
const MaxExecutionDepth = 100

// colOrigin records which source relation a working column came from and
// its name there, before any collision renaming.
type colOrigin struct {
	source string
	name   string
}

// relation pairs a working table with the provenance of each column.
type relation struct {
	table   *Table
	origins []colOrigin
}

// withRows rebuilds the relation around a new row set, keeping schema and
// provenance.
func (r *relation) withRows(rows [][]Value) *relation {
	return &relation{table: newTable(r.table.Columns(), rows), origins: r.origins}
}

// resolve finds the working column for a reference. Unqualified names match
// the working column name first and fall back to provenance; qualified
// names resolve through provenance.
func (r *relation) resolve(qualifier, name string) (int, error) {
	if qualifier == "" {
		if idx, ok := r.table.ColumnIndex(name); ok {
			return idx, nil
		}
	}
	return r.resolveStrict(qualifier, name)
}

// resolveStrict resolves through provenance only. Join ON conditions use
// this so an unqualified name present on both sides is ambiguous even
// though collision renaming keeps working names unique.
func (r *relation) resolveStrict(qualifier, name string) (int, error) {
	found := -1
	for i, origin := range r.origins {
		if origin.name != name {
			continue
		}
		if qualifier != "" && origin.source != qualifier {
			continue
		}
		if found >= 0 {
			return 0, ambiguousColumn(refSpelling(qualifier, name))
		}
		found = i
	}
	if found < 0 {
		return 0, unknownColumn(refSpelling(qualifier, name))
	}
	return found, nil
}

func refSpelling(qualifier, name string) string {
	if qualifier == "" {
		return name
	}
	return qualifier + "." + name
}

// execEnv carries the per-call execution state: source table bindings, the
// recursion depth, and the scalar subquery cache.
type execEnv struct {
	tables map[string]*Table
	depth  int
	subs   map[*Plan]*Table
}

// Execute runs a compiled plan against the given tables. Inputs are never
// mutated and all transient state lives in the per-call environment, so
// concurrent calls sharing one table map are safe.
func Execute(plan *Plan, tables map[string]*Table) (*Table, error) {
	env := &execEnv{
		tables: tables,
		subs:   make(map[*Plan]*Table),
	}
	return env.run(plan)
}

// run executes one plan: the core SELECT pipeline followed by any chained
// set operations, applied left to right.
func (env *execEnv) run(plan *Plan) (*Table, error) {
	if plan == nil {
		return nil, &SemanticError{Message: "cannot execute a nil plan"}
	}
	result, err := env.runSelect(plan)
	if err != nil {
		return nil, err
	}
	for i := range plan.SetOps {
		result, err = env.applySetOp(result, &plan.SetOps[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// runSelect executes the SELECT pipeline: bind FROM and joins, filter,
// aggregate, apply HAVING, project, then deduplicate, order, and limit.
func (env *execEnv) runSelect(plan *Plan) (*Table, error) {
	rel, err := env.bindFrom(&plan.From)
	if err != nil {
		return nil, err
	}

	if plan.Filter != nil {
		rel, err = env.applyFilter(rel, plan.Filter)
		if err != nil {
			return nil, err
		}
	}

	var p *projected
	if needsAggregation(plan) {
		rel, err = env.aggregate(plan, rel)
		if err != nil {
			return nil, err
		}
		if plan.Having != nil {
			rel, err = env.applyFilter(rel, plan.Having)
			if err != nil {
				return nil, err
			}
		}
		p = outputProjection(rel)
	} else {
		if plan.Having != nil {
			// HAVING without grouping filters the working rows like a
			// second WHERE
			rel, err = env.applyFilter(rel, plan.Having)
			if err != nil {
				return nil, err
			}
		}
		p, err = env.project(plan, rel)
		if err != nil {
			return nil, err
		}
	}

	return env.finishSelect(plan, p)
}

// bindFrom resolves the FROM table and folds each join onto it in order.
func (env *execEnv) bindFrom(from *PlanFrom) (*relation, error) {
	if from == nil {
		return nil, &SemanticError{Message: "plan has no FROM clause"}
	}
	rel, err := env.bindTable(from.Table, from.Alias)
	if err != nil {
		return nil, err
	}
	for i := range from.Joins {
		rel, err = env.applyJoin(rel, &from.Joins[i])
		if err != nil {
			return nil, err
		}
	}
	return rel, nil
}

// bindTable looks up a source table and labels its columns with the alias
// (or the table name) for qualified references.
func (env *execEnv) bindTable(name, alias string) (*relation, error) {
	t, ok := env.tables[name]
	if !ok {
		return nil, unknownTable(name)
	}
	source := alias
	if source == "" {
		source = name
	}
	origins := make([]colOrigin, t.NumColumns())
	for i, col := range t.Columns() {
		origins[i] = colOrigin{source: source, name: col}
	}
	return &relation{table: t, origins: origins}, nil
}

// applyFilter keeps the rows for which the condition evaluates true.
// References are validated up front so resolution errors surface even over
// zero rows.
func (env *execEnv) applyFilter(rel *relation, cond *PlanCond) (*relation, error) {
	ev := &rowEval{env: env, rel: rel}
	if err := ev.validateCond(cond); err != nil {
		return nil, err
	}
	kept := make([][]Value, 0, rel.table.NumRows())
	for i := 0; i < rel.table.NumRows(); i++ {
		row := rel.table.Row(i)
		ok, err := ev.evalCond(row, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, row)
		}
	}
	return rel.withRows(kept), nil
}

// joinKeyPair is one resolved ON equality; leftCol indexes the left
// relation's columns, rightCol the right's.
type joinKeyPair struct {
	leftCol  int
	rightCol int
}

// equiLeaf is one ON equality between two column references, before the
// sides are assigned to relations.
type equiLeaf struct {
	aQualifier, aName string
	bQualifier, bName string
}

// applyJoin joins the accumulated relation with one more table. Pure
// AND-of-equality ON conditions take the hash path; anything else is
// evaluated as a predicate over the row product.
func (env *execEnv) applyJoin(left *relation, join *PlanJoin) (*relation, error) {
	right, err := env.bindTable(join.Table, join.Alias)
	if err != nil {
		return nil, err
	}

	combined := combineSchema(left, right)

	if join.Type == JoinCross {
		rows := make([][]Value, 0, left.table.NumRows()*right.table.NumRows())
		for li := 0; li < left.table.NumRows(); li++ {
			for ri := 0; ri < right.table.NumRows(); ri++ {
				rows = append(rows, joinRow(left.table.Row(li), right.table.Row(ri)))
			}
		}
		return combined.withRows(rows), nil
	}

	if join.On == nil {
		return nil, &SemanticError{Message: "join has no ON condition"}
	}

	if leaves, pure := extractEquiKeys(join.On); pure {
		pairs, usable, err := resolveEquiKeys(leaves, combined, left.table.NumColumns())
		if err != nil {
			return nil, err
		}
		if usable {
			return hashJoin(left, right, combined, join.Type, pairs), nil
		}
	}

	return env.predicateJoin(left, right, combined, join.Type, join.On)
}

// combineSchema builds the joined column layout: left columns keep their
// names, right columns take a _y suffix (repeated until unique) on
// collision. Provenance carries over unchanged from both sides.
func combineSchema(left, right *relation) *relation {
	names := make([]string, 0, left.table.NumColumns()+right.table.NumColumns())
	names = append(names, left.table.Columns()...)
	taken := make(map[string]struct{}, len(names))
	for _, n := range names {
		taken[n] = struct{}{}
	}

	origins := make([]colOrigin, 0, cap(names))
	origins = append(origins, left.origins...)
	for i, n := range right.table.Columns() {
		for {
			if _, dup := taken[n]; !dup {
				break
			}
			n += "_y"
		}
		taken[n] = struct{}{}
		names = append(names, n)
		origins = append(origins, right.origins[i])
	}
	return &relation{table: newTable(names, nil), origins: origins}
}

// extractEquiKeys walks an ON tree and returns its equality pairs when the
// whole tree is AND-ed column-to-column equalities, enabling the hash path.
func extractEquiKeys(cond *PlanCond) ([]equiLeaf, bool) {
	if cond == nil {
		return nil, false
	}
	if cond.Logical == LogicalAnd {
		left, ok := extractEquiKeys(cond.Left)
		if !ok {
			return nil, false
		}
		right, ok := extractEquiKeys(cond.Right)
		if !ok {
			return nil, false
		}
		return append(left, right...), true
	}
	if cond.Logical != "" {
		return nil, false
	}
	if cond.Op != OpEq || cond.Operand.Kind != OperandColumn {
		return nil, false
	}
	return []equiLeaf{{
		aQualifier: cond.Qualifier, aName: cond.Column,
		bQualifier: cond.Operand.Qualifier, bName: cond.Operand.Name,
	}}, true
}

// resolveEquiKeys resolves each equality side against the combined schema
// and assigns sides. Unknown or ambiguous references are hard errors; a
// pair whose sides land on the same relation disables the hash path
// instead, since it is a filter rather than a join key.
func resolveEquiKeys(leaves []equiLeaf, combined *relation, leftWidth int) ([]joinKeyPair, bool, error) {
	pairs := make([]joinKeyPair, 0, len(leaves))
	for _, leaf := range leaves {
		a, err := combined.resolveStrict(leaf.aQualifier, leaf.aName)
		if err != nil {
			return nil, false, err
		}
		b, err := combined.resolveStrict(leaf.bQualifier, leaf.bName)
		if err != nil {
			return nil, false, err
		}
		switch {
		case a < leftWidth && b >= leftWidth:
			pairs = append(pairs, joinKeyPair{leftCol: a, rightCol: b - leftWidth})
		case b < leftWidth && a >= leftWidth:
			pairs = append(pairs, joinKeyPair{leftCol: b, rightCol: a - leftWidth})
		default:
			return nil, false, nil
		}
	}
	return pairs, true, nil
}

// hashJoin matches rows on the canonical encoding of the key tuple. Rows
// with a Null in any key column never match. Right joins iterate the right
// side so its row order drives the output.
func hashJoin(left, right *relation, combined *relation, kind JoinType, keys []joinKeyPair) *relation {
	var rows [][]Value

	if kind == JoinRight {
		leftIdx := make(map[string][]int)
		for li := 0; li < left.table.NumRows(); li++ {
			if key, ok := joinKey(left.table.Row(li), keys, true); ok {
				leftIdx[key] = append(leftIdx[key], li)
			}
		}
		for ri := 0; ri < right.table.NumRows(); ri++ {
			rrow := right.table.Row(ri)
			var matches []int
			if key, ok := joinKey(rrow, keys, false); ok {
				matches = leftIdx[key]
			}
			if len(matches) == 0 {
				rows = append(rows, nullPadded(rrow, left.table.NumColumns(), false))
				continue
			}
			for _, li := range matches {
				rows = append(rows, joinRow(left.table.Row(li), rrow))
			}
		}
		return combined.withRows(rows)
	}

	rightIdx := make(map[string][]int)
	for ri := 0; ri < right.table.NumRows(); ri++ {
		if key, ok := joinKey(right.table.Row(ri), keys, false); ok {
			rightIdx[key] = append(rightIdx[key], ri)
		}
	}

	matchedRight := make([]bool, right.table.NumRows())
	for li := 0; li < left.table.NumRows(); li++ {
		lrow := left.table.Row(li)
		var matches []int
		if key, ok := joinKey(lrow, keys, true); ok {
			matches = rightIdx[key]
		}
		if len(matches) == 0 {
			if kind == JoinLeft || kind == JoinFull {
				rows = append(rows, nullPadded(lrow, right.table.NumColumns(), true))
			}
			continue
		}
		for _, ri := range matches {
			matchedRight[ri] = true
			rows = append(rows, joinRow(lrow, right.table.Row(ri)))
		}
	}
	if kind == JoinFull {
		for ri, matched := range matchedRight {
			if !matched {
				rows = append(rows, nullPadded(right.table.Row(ri), left.table.NumColumns(), false))
			}
		}
	}
	return combined.withRows(rows)
}

// predicateJoin evaluates the ON condition over the row product with
// matched-row bookkeeping for the outer kinds. Correct for any condition,
// at O(n*m) cost.
func (env *execEnv) predicateJoin(left, right *relation, combined *relation, kind JoinType, on *PlanCond) (*relation, error) {
	ev := &rowEval{env: env, rel: combined, strict: true}
	if err := ev.validateCond(on); err != nil {
		return nil, err
	}

	leftWidth := left.table.NumColumns()
	rightWidth := right.table.NumColumns()
	var rows [][]Value

	if kind == JoinRight {
		for ri := 0; ri < right.table.NumRows(); ri++ {
			rrow := right.table.Row(ri)
			matched := false
			for li := 0; li < left.table.NumRows(); li++ {
				row := joinRow(left.table.Row(li), rrow)
				ok, err := ev.evalCond(row, on)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					rows = append(rows, row)
				}
			}
			if !matched {
				rows = append(rows, nullPadded(rrow, leftWidth, false))
			}
		}
		return combined.withRows(rows), nil
	}

	matchedRight := make([]bool, right.table.NumRows())
	for li := 0; li < left.table.NumRows(); li++ {
		lrow := left.table.Row(li)
		matched := false
		for ri := 0; ri < right.table.NumRows(); ri++ {
			row := joinRow(lrow, right.table.Row(ri))
			ok, err := ev.evalCond(row, on)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				matchedRight[ri] = true
				rows = append(rows, row)
			}
		}
		if !matched && (kind == JoinLeft || kind == JoinFull) {
			rows = append(rows, nullPadded(lrow, rightWidth, true))
		}
	}
	if kind == JoinFull {
		for ri, m := range matchedRight {
			if !m {
				rows = append(rows, nullPadded(right.table.Row(ri), leftWidth, false))
			}
		}
	}
	return combined.withRows(rows), nil
}

// joinKey encodes the key tuple for one side's row. The second result is
// false when any key value is Null, which never matches.
func joinKey(row []Value, keys []joinKeyPair, leftSide bool) (string, bool) {
	var sb strings.Builder
	for i, k := range keys {
		col := k.rightCol
		if leftSide {
			col = k.leftCol
		}
		v := row[col]
		if v.IsNull() {
			return "", false
		}
		if i > 0 {
			sb.WriteByte(0)
		}
		v.writeKey(&sb)
	}
	return sb.String(), true
}

func joinRow(lrow, rrow []Value) []Value {
	row := make([]Value, 0, len(lrow)+len(rrow))
	row = append(row, lrow...)
	return append(row, rrow...)
}

// nullPadded extends one side's row with Nulls for the missing side.
func nullPadded(row []Value, pad int, padRight bool) []Value {
	out := make([]Value, 0, len(row)+pad)
	if padRight {
		out = append(out, row...)
		for i := 0; i < pad; i++ {
			out = append(out, NullValue())
		}
		return out
	}
	for i := 0; i < pad; i++ {
		out = append(out, NullValue())
	}
	return append(out, row...)
}

// projected carries the working rows plus the mapping from output columns
// to row indexes. Expression columns are appended past the source width so
// ORDER BY can reach both output and hidden source columns until the final
// prune.
type projected struct {
	rel    *relation
	rows   [][]Value
	outIdx []int
	names  []string
}

// project builds the output column layout for a non-aggregated select
// list: * passes every working column, plain columns resolve through the
// relation, and expression columns evaluate into appended values.
func (env *execEnv) project(plan *Plan, rel *relation) (*projected, error) {
	ev := &rowEval{env: env, rel: rel}
	width := rel.table.NumColumns()

	var outIdx []int
	var names []string
	var exprs []*PlanExpr
	for i := range plan.Columns {
		col := &plan.Columns[i]
		switch {
		case col.Name == "*":
			for idx, n := range rel.table.Columns() {
				outIdx = append(outIdx, idx)
				names = append(names, n)
			}
		case col.Expr != nil:
			if err := ev.validateExpr(col.Expr); err != nil {
				return nil, err
			}
			outIdx = append(outIdx, width+len(exprs))
			names = append(names, displayName(col.Alias, spellPlanExpr(col.Expr)))
			exprs = append(exprs, col.Expr)
		default:
			idx, err := rel.resolve(col.TableAlias, col.Name)
			if err != nil {
				return nil, err
			}
			outIdx = append(outIdx, idx)
			names = append(names, displayName(col.Alias, rel.table.Columns()[idx]))
		}
	}

	rows := make([][]Value, rel.table.NumRows())
	for i := range rows {
		row := rel.table.Row(i)
		if len(exprs) == 0 {
			rows[i] = row
			continue
		}
		extended := make([]Value, 0, width+len(exprs))
		extended = append(extended, row...)
		for _, e := range exprs {
			v, err := ev.evalExpr(row, e)
			if err != nil {
				return nil, err
			}
			extended = append(extended, v)
		}
		rows[i] = extended
	}

	return &projected{rel: rel, rows: rows, outIdx: outIdx, names: names}, nil
}

// outputProjection wraps an aggregated relation whose columns already are
// the output columns.
func outputProjection(rel *relation) *projected {
	outIdx := make([]int, rel.table.NumColumns())
	names := make([]string, rel.table.NumColumns())
	for i, n := range rel.table.Columns() {
		outIdx[i] = i
		names[i] = n
	}
	rows := make([][]Value, rel.table.NumRows())
	for i := range rows {
		rows[i] = rel.table.Row(i)
	}
	return &projected{rel: rel, rows: rows, outIdx: outIdx, names: names}
}

func displayName(alias, fallback string) string {
	if alias != "" {
		return alias
	}
	return fallback
}

// spellPlanExpr synthesizes the display name for an expression column:
// function calls keep the canonical uppercase spelling, CASE expressions
// collapse to "CASE".
func spellPlanExpr(e *PlanExpr) string {
	switch e.Kind {
	case ExprColumn:
		return refSpelling(e.Qualifier, e.Name)
	case ExprLiteral:
		return e.Literal.String()
	case ExprFunction:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = spellPlanExpr(arg)
		}
		return strings.ToUpper(e.Name) + "(" + strings.Join(args, ", ") + ")"
	case ExprCase:
		return "CASE"
	}
	return ""
}

// finishSelect runs the shared pipeline tail: DISTINCT, ORDER BY over the
// unpruned rows, LIMIT/OFFSET, and the final column prune.
func (env *execEnv) finishSelect(plan *Plan, p *projected) (*Table, error) {
	rows := p.rows

	if plan.Distinct {
		rows = distinctRows(rows, p.outIdx)
	}

	if len(plan.OrderBy) > 0 {
		keys, err := resolveOrderKeys(plan.OrderBy, p)
		if err != nil {
			return nil, err
		}
		sortRows(rows, keys)
	}

	rows = applyLimit(rows, plan.Limit)

	out := make([][]Value, len(rows))
	for i, row := range rows {
		pruned := make([]Value, len(p.outIdx))
		for j, idx := range p.outIdx {
			pruned[j] = row[idx]
		}
		out[i] = pruned
	}
	return newTable(p.names, out), nil
}

// resolveOrderKeys maps ORDER BY entries onto working row indexes. Output
// names and aliases win; otherwise the key resolves against the relation,
// which reaches pre-projection columns that the prune will drop.
func resolveOrderKeys(orderBy []PlanOrder, p *projected) ([]sortKey, error) {
	keys := make([]sortKey, 0, len(orderBy))
	for i := range orderBy {
		ord := &orderBy[i]
		idx, err := resolveOrderKey(ord, p)
		if err != nil {
			return nil, err
		}
		keys = append(keys, sortKey{index: idx, ascending: ord.Ascending})
	}
	return keys, nil
}

func resolveOrderKey(ord *PlanOrder, p *projected) (int, error) {
	if ord.Qualifier == "" {
		for i, name := range p.names {
			if name == ord.Column {
				return p.outIdx[i], nil
			}
		}
	}
	return p.rel.resolve(ord.Qualifier, ord.Column)
}

// applySetOp combines the accumulated result with one set operation
// operand. Arity must match; column names come from the left side.
func (env *execEnv) applySetOp(left *Table, op *PlanSetOp) (*Table, error) {
	right, err := env.runBranch(op.Right)
	if err != nil {
		return nil, err
	}
	if right.NumColumns() != left.NumColumns() {
		return nil, typeMismatch("%s requires operands with the same number of columns, got %d and %d",
			op.Type, left.NumColumns(), right.NumColumns())
	}

	cols := make([]int, left.NumColumns())
	for i := range cols {
		cols[i] = i
	}

	var rows [][]Value
	switch op.Type {
	case SetUnion:
		rows = make([][]Value, 0, left.NumRows()+right.NumRows())
		for i := 0; i < left.NumRows(); i++ {
			rows = append(rows, left.Row(i))
		}
		for i := 0; i < right.NumRows(); i++ {
			rows = append(rows, right.Row(i))
		}
	case SetIntersect, SetExcept:
		rightKeys := make(map[string]struct{}, right.NumRows())
		for i := 0; i < right.NumRows(); i++ {
			rightKeys[rowKey(right.Row(i), cols)] = struct{}{}
		}
		rows = make([][]Value, 0, left.NumRows())
		for i := 0; i < left.NumRows(); i++ {
			row := left.Row(i)
			_, present := rightKeys[rowKey(row, cols)]
			if (op.Type == SetIntersect) == present {
				rows = append(rows, row)
			}
		}
	default:
		return nil, &SemanticError{Message: fmt.Sprintf("unsupported set operation %v", op.Type)}
	}

	if !op.All {
		rows = distinctRows(rows, cols)
	}
	return newTable(left.Columns(), rows), nil
}

// runBranch executes a nested plan (subquery or set operation operand) one
// level deeper against the same source bindings.
func (env *execEnv) runBranch(plan *Plan) (*Table, error) {
	if env.depth >= MaxExecutionDepth {
		return nil, recursionLimit("execution nested deeper than %d levels", MaxExecutionDepth)
	}
	branch := &execEnv{tables: env.tables, depth: env.depth + 1, subs: env.subs}
	return branch.run(plan)
}

// scalarSubquery executes a subquery used as a comparison operand. The
// result must be exactly one row and one column. Subqueries are not
// correlated, so the result is cached per plan node.
func (env *execEnv) scalarSubquery(plan *Plan) (Value, error) {
	t, err := env.subqueryTable(plan)
	if err != nil {
		return Value{}, err
	}
	if t.NumRows() != 1 || t.NumColumns() != 1 {
		return Value{}, aggregateShape("scalar subquery must return exactly one value, got %d rows and %d columns",
			t.NumRows(), t.NumColumns())
	}
	return t.Value(0, 0), nil
}

// listSubquery executes a subquery used as an IN operand, which must
// produce a single column.
func (env *execEnv) listSubquery(plan *Plan) ([]Value, error) {
	t, err := env.subqueryTable(plan)
	if err != nil {
		return nil, err
	}
	if t.NumColumns() != 1 {
		return nil, aggregateShape("IN subquery must return a single column, got %d", t.NumColumns())
	}
	vals := make([]Value, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		vals[i] = t.Value(i, 0)
	}
	return vals, nil
}

func (env *execEnv) subqueryTable(plan *Plan) (*Table, error) {
	if cached, ok := env.subs[plan]; ok {
		return cached, nil
	}
	t, err := env.runBranch(plan)
	if err != nil {
		return nil, err
	}
	env.subs[plan] = t
	return t, nil
}
