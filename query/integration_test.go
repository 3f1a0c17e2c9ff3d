package query

import (
	"testing"
)

func TestPipeline_JoinAggregateOrder(t *testing.T) {
	got := runQuery(t,
		"select u.city, count(*) as n, sum(o.amount) as total from users u join orders o on u.id = o.user_id group by u.city order by total desc",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"city", "n", "total"},
		[][]Value{
			{TextValue("Oslo"), IntValue(3), FloatValue(380.5)},
			{TextValue("Bergen"), IntValue(1), IntValue(80)},
		})
}

func TestPipeline_FullClauseChain(t *testing.T) {
	got := runQuery(t,
		"select u.name, sum(o.amount) as spent from users u left join orders o on u.id = o.user_id where u.id < 4 group by u.name having sum(o.amount) > 0 order by spent desc limit 1 offset 1",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"name", "spent"},
		[][]Value{{TextValue("Bob"), IntValue(80)}})
}

func TestPipeline_UnionOfFilteredSelects(t *testing.T) {
	got := runQuery(t,
		"select name from users where city = 'Oslo' union select name from users where age > 35",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"name"},
		[][]Value{
			{TextValue("Alice")},
			{TextValue("Carol")},
			{TextValue("Dave")},
		})
}

func TestPipeline_DistinctFunctionOrder(t *testing.T) {
	got := runQuery(t,
		"select distinct upper(status) as s from orders order by s",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"s"},
		[][]Value{{TextValue("PAID")}, {TextValue("PENDING")}})
}

func TestPipeline_DistinctAfterJoin(t *testing.T) {
	got := runQuery(t,
		"select distinct o.status from orders o join users u on o.user_id = u.id order by o.status desc",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"status"},
		[][]Value{{TextValue("pending")}, {TextValue("paid")}})
}

func TestPipeline_SubqueryWithPredicates(t *testing.T) {
	got := runQuery(t,
		"select name from users where id in (select user_id from orders where amount between 50 and 300) and name like '%o%'",
		fixtureTables(t))
	checkTable(t, got, []string{"name"}, [][]Value{{TextValue("Bob")}})
}

func TestPipeline_AggregatesInSetOperation(t *testing.T) {
	got := runQuery(t,
		"select max(amount) from orders union all select min(amount) from orders",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"MAX(amount)"},
		[][]Value{{FloatValue(250.5)}, {IntValue(30)}})
}

func TestPipeline_ConcatSkipsNulls(t *testing.T) {
	got := runQuery(t,
		"select concat(name, ' / ', city) as label from users where id = 4",
		fixtureTables(t))
	checkTable(t, got, []string{"label"}, [][]Value{{TextValue("Dave / ")}})
}

func TestPipeline_CaseOverJoinedRows(t *testing.T) {
	got := runQuery(t,
		"select o.id, case when o.amount >= 100 then 'large' else 'small' end as size from orders o join users u on o.user_id = u.id where u.city = 'Oslo' order by o.id",
		fixtureTables(t))
	checkTable(t, got,
		[]string{"id", "size"},
		[][]Value{
			{IntValue(10), TextValue("large")},
			{IntValue(11), TextValue("large")},
			{IntValue(13), TextValue("small")},
		})
}
