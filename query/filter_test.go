package query

import (
	"errors"
	"testing"
)

func TestEvalCompareOp_NullSemantics(t *testing.T) {
	tests := []struct {
		name string
		left Value
		op   CompareOp
		rght Value
		want bool
	}{
		{name: "null equals null", left: NullValue(), op: OpEq, rght: NullValue(), want: true},
		{name: "null does not equal value", left: NullValue(), op: OpEq, rght: IntValue(1), want: false},
		{name: "value does not equal null", left: IntValue(1), op: OpEq, rght: NullValue(), want: false},
		{name: "ne with null is false", left: IntValue(1), op: OpNe, rght: NullValue(), want: false},
		{name: "ne with two nulls is false", left: NullValue(), op: OpNe, rght: NullValue(), want: false},
		{name: "lt with null is false", left: NullValue(), op: OpLt, rght: IntValue(1), want: false},
		{name: "ge with null is false", left: IntValue(1), op: OpGe, rght: NullValue(), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalCompareOp(tt.left, tt.rght, tt.op)
			if err != nil {
				t.Fatalf("evalCompareOp() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("evalCompareOp(%v %s %v) = %v, want %v", tt.left, tt.op, tt.rght, got, tt.want)
			}
		})
	}
}

func TestEvalCompareOp_Values(t *testing.T) {
	tests := []struct {
		name string
		left Value
		op   CompareOp
		rght Value
		want bool
	}{
		{name: "int equality", left: IntValue(5), op: OpEq, rght: IntValue(5), want: true},
		{name: "int float cross equality", left: IntValue(5), op: OpEq, rght: FloatValue(5.0), want: true},
		{name: "int less than float", left: IntValue(5), op: OpLt, rght: FloatValue(5.5), want: true},
		{name: "text comparison", left: TextValue("apple"), op: OpLt, rght: TextValue("banana"), want: true},
		{name: "text equality is case-sensitive", left: TextValue("A"), op: OpEq, rght: TextValue("a"), want: false},
		{name: "bool equality", left: BoolValue(true), op: OpEq, rght: BoolValue(true), want: true},
		{name: "false sorts before true", left: BoolValue(false), op: OpLt, rght: BoolValue(true), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalCompareOp(tt.left, tt.rght, tt.op)
			if err != nil {
				t.Fatalf("evalCompareOp() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("evalCompareOp(%v %s %v) = %v, want %v", tt.left, tt.op, tt.rght, got, tt.want)
			}
		})
	}
}

func TestCompareValues_TypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
	}{
		{name: "text and int", a: TextValue("5"), b: IntValue(5)},
		{name: "bool and int", a: BoolValue(true), b: IntValue(1)},
		{name: "bool and text", a: BoolValue(true), b: TextValue("true")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compareValues(tt.a, tt.b)
			if err == nil {
				t.Fatalf("compareValues(%v, %v) expected error", tt.a, tt.b)
			}
			var execErr *ExecError
			if !errors.As(err, &execErr) || execErr.Kind != ErrTypeMismatch {
				t.Errorf("error = %v, want ErrTypeMismatch", err)
			}
		})
	}
}

func TestMatchLikePattern(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		pattern string
		want    bool
	}{
		{name: "exact", s: "abc", pattern: "abc", want: true},
		{name: "exact mismatch", s: "abc", pattern: "abd", want: false},
		{name: "prefix", s: "abcdef", pattern: "abc%", want: true},
		{name: "suffix", s: "abcdef", pattern: "%def", want: true},
		{name: "contains", s: "abcdef", pattern: "%cd%", want: true},
		{name: "contains mismatch", s: "abcdef", pattern: "%xy%", want: false},
		{name: "underscore matches one character", s: "cat", pattern: "c_t", want: true},
		{name: "underscore needs a character", s: "ct", pattern: "c_t", want: false},
		{name: "percent matches empty run", s: "abc", pattern: "abc%", want: true},
		{name: "lone percent matches everything", s: "anything", pattern: "%", want: true},
		{name: "lone percent matches empty", s: "", pattern: "%", want: true},
		{name: "empty pattern only matches empty", s: "a", pattern: "", want: false},
		{name: "anchored at both ends", s: "xabcx", pattern: "abc", want: false},
		{name: "case-sensitive", s: "ABC", pattern: "abc", want: false},
		{name: "multiple percents backtrack", s: "aXbXc", pattern: "a%b%c", want: true},
		{name: "repeated prefix backtracks", s: "aababc", pattern: "a%abc", want: true},
		{name: "unicode underscore", s: "héllo", pattern: "h_llo", want: true},
		{name: "mixed wildcards", s: "report_2024.csv", pattern: "report%.csv", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchLikePattern(tt.s, tt.pattern); got != tt.want {
				t.Errorf("matchLikePattern(%q, %q) = %v, want %v", tt.s, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestApplyLimit(t *testing.T) {
	rows := [][]Value{
		{IntValue(1)}, {IntValue(2)}, {IntValue(3)}, {IntValue(4)}, {IntValue(5)},
	}

	tests := []struct {
		name  string
		limit *PlanLimit
		want  []int64
	}{
		{name: "nil passes everything", limit: nil, want: []int64{1, 2, 3, 4, 5}},
		{name: "count only", limit: &PlanLimit{Count: 2}, want: []int64{1, 2}},
		{name: "count and offset", limit: &PlanLimit{Count: 2, Offset: 2}, want: []int64{3, 4}},
		{name: "count past end", limit: &PlanLimit{Count: 10}, want: []int64{1, 2, 3, 4, 5}},
		{name: "offset past end", limit: &PlanLimit{Count: 2, Offset: 9}, want: []int64{}},
		{name: "zero count", limit: &PlanLimit{Count: 0}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyLimit(rows, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, row := range got {
				if row[0].Int() != tt.want[i] {
					t.Errorf("row %d = %v, want %d", i, row[0], tt.want[i])
				}
			}
		})
	}
}

func TestDistinctRows(t *testing.T) {
	rows := [][]Value{
		{IntValue(1), TextValue("keep")},
		{FloatValue(1.0), TextValue("dropped duplicate key")},
		{IntValue(2), TextValue("keep")},
		{NullValue(), TextValue("keep")},
		{NullValue(), TextValue("dropped duplicate null")},
	}

	got := distinctRows(rows, []int{0})
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	// First occurrence wins and input order is preserved
	if got[0][1].Text() != "keep" || got[1][0].Int() != 2 || !got[2][0].IsNull() {
		t.Errorf("rows = %v", got)
	}
}

func TestDistinctRows_KeySubset(t *testing.T) {
	rows := [][]Value{
		{IntValue(1), TextValue("a")},
		{IntValue(1), TextValue("b")},
		{IntValue(2), TextValue("a")},
	}

	// Keyed on both columns every row is distinct
	if got := distinctRows(rows, []int{0, 1}); len(got) != 3 {
		t.Errorf("two-column key kept %d rows, want 3", len(got))
	}
	// Keyed on the first column the second row collapses
	if got := distinctRows(rows, []int{0}); len(got) != 2 {
		t.Errorf("one-column key kept %d rows, want 2", len(got))
	}
}

func TestSortRows(t *testing.T) {
	rows := [][]Value{
		{TextValue("b"), IntValue(2)},
		{NullValue(), IntValue(0)},
		{TextValue("a"), IntValue(1)},
		{TextValue("a"), IntValue(3)},
	}

	sortRows(rows, []sortKey{{index: 0, ascending: true}})

	if !rows[0][0].IsNull() {
		t.Errorf("row 0 = %v, want null first ascending", rows[0])
	}
	if rows[1][0].Text() != "a" || rows[2][0].Text() != "a" || rows[3][0].Text() != "b" {
		t.Errorf("rows = %v", rows)
	}
	// Stable: equal keys keep input order
	if rows[1][1].Int() != 1 || rows[2][1].Int() != 3 {
		t.Errorf("equal keys reordered: %v", rows)
	}
}

func TestSortRows_DescendingAndMultiKey(t *testing.T) {
	rows := [][]Value{
		{TextValue("x"), IntValue(1), NullValue()},
		{TextValue("x"), IntValue(3), IntValue(7)},
		{TextValue("y"), IntValue(2), IntValue(5)},
	}

	sortRows(rows, []sortKey{
		{index: 0, ascending: false},
		{index: 1, ascending: true},
	})

	if rows[0][0].Text() != "y" {
		t.Errorf("row 0 = %v, want y first descending", rows[0])
	}
	if rows[1][1].Int() != 1 || rows[2][1].Int() != 3 {
		t.Errorf("secondary key order = %v, %v, want 1 then 3", rows[1][1], rows[2][1])
	}

	// Null trails on a descending key
	sortRows(rows, []sortKey{{index: 2, ascending: false}})
	if !rows[len(rows)-1][2].IsNull() {
		t.Errorf("last row = %v, want null last descending", rows[len(rows)-1])
	}
}
