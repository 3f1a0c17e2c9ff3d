package query

import (
	"testing"
)

func TestCase_Searched(t *testing.T) {
	got := runQuery(t,
		"select name, case when age >= 30 then 'senior' when age >= 18 then 'adult' else 'minor' end as bracket from users",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"name", "bracket"},
		[][]Value{
			{TextValue("Alice"), TextValue("senior")},
			{TextValue("Bob"), TextValue("minor")}, // null age fails every condition
			{TextValue("Carol"), TextValue("adult")},
			{TextValue("Dave"), TextValue("senior")},
		})
}

func TestCase_Simple(t *testing.T) {
	got := runQuery(t,
		"select case status when 'paid' then 1 else 0 end as done from orders",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"done"},
		[][]Value{
			{IntValue(1)}, {IntValue(1)}, {IntValue(0)}, {IntValue(1)}, {IntValue(1)},
		})
}

func TestCase_NoMatchNoElse(t *testing.T) {
	got := runQuery(t, "select case when age > 99 then 'old' end as c from users", fixtureTables(t))
	for i := 0; i < got.NumRows(); i++ {
		if !got.Value(i, 0).IsNull() {
			t.Errorf("row %d = %v, want null", i, got.Value(i, 0))
		}
	}
}

func TestCase_NullSubjectMatchesNullWhen(t *testing.T) {
	got := runQuery(t,
		"select case city when null then 'unknown' else city end as place from users",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"place"},
		[][]Value{
			{TextValue("Oslo")},
			{TextValue("Bergen")},
			{TextValue("Oslo")},
			{TextValue("unknown")},
		})
}

func TestCase_NumericMatchAcrossKinds(t *testing.T) {
	got := runQuery(t,
		"select case age when 25.0 then 'young' else 'other' end from users where id = 3",
		fixtureTables(t))
	if got.Value(0, 0).Text() != "young" {
		t.Errorf("got %v, want young: integer 25 matches 25.0", got.Value(0, 0))
	}
}

func TestCase_DisplayName(t *testing.T) {
	got := runQuery(t, "select case when id > 0 then 1 end from users limit 1", fixtureTables(t))
	if cols := got.Columns(); cols[0] != "CASE" {
		t.Errorf("column name = %q, want %q", cols[0], "CASE")
	}
}

func TestCase_ExpressionResults(t *testing.T) {
	got := runQuery(t,
		"select case when id = 1 then upper(name) else name end as display from users where id < 3",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"display"},
		[][]Value{
			{TextValue("ALICE")},
			{TextValue("Bob")},
		})
}

func TestCase_CompoundConditions(t *testing.T) {
	got := runQuery(t,
		"select id, case when city = 'Oslo' and age > 26 then 'target' else 'skip' end as tag from users",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"id", "tag"},
		[][]Value{
			{IntValue(1), TextValue("target")},
			{IntValue(2), TextValue("skip")},
			{IntValue(3), TextValue("skip")},
			{IntValue(4), TextValue("skip")},
		})
}

func TestCase_NotAllowedInWhere(t *testing.T) {
	if _, err := Compile("select id from users where case when id > 0 then 1 end = 1"); err == nil {
		t.Fatal("expected parse error for CASE in WHERE")
	}
}
