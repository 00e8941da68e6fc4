package account

type testRecord struct {
	table string
	owner string
	email string
}

func (r testRecord) Table() string     { return r.table }
func (r testRecord) OwnerID() string   { return r.owner }
func (r testRecord) Columns() []string { return []string{"id", "email"} }
func (r testRecord) Values() []any     { return []any{r.owner, r.email} }
