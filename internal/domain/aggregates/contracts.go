package aggregates

// Contract names an aggregate and the tables its write methods may touch.
// Every listed table is mutated only inside the aggregate's own transaction.
type Contract struct {
	Name   string
	Tables []string
	Notes  string
}

// Aggregate is implemented by every aggregate write surface.
type Aggregate interface {
	Contract() Contract
}

// Writes reports whether table belongs to the aggregate's write set.
func (c Contract) Writes(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}
