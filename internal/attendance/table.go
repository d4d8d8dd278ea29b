package attendance

// Table is an ordered record collection holding at most one record per Key.
// Upserting an existing key replaces the record in place (last write wins).
// The zero value is ready to use. Table is not safe for concurrent use.
type Table struct {
	records []Record
	index   map[Key]int
}

// NewTable creates a table and upserts records into it in order.
func NewTable(records ...Record) *Table {
	t := &Table{}
	t.UpsertAll(records)
	return t
}

// Upsert inserts r, or replaces the record with the same key.
func (t *Table) Upsert(r Record) {
	r = r.Normalize()
	if t.index == nil {
		t.index = make(map[Key]int)
	}
	k := r.Key()
	if i, ok := t.index[k]; ok {
		t.records[i] = r
		return
	}
	t.index[k] = len(t.records)
	t.records = append(t.records, r)
}

// UpsertAll upserts each record in order.
func (t *Table) UpsertAll(records []Record) {
	for _, r := range records {
		t.Upsert(r)
	}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of all records in insertion order.
func (t *Table) Records() []Record {
	return append([]Record(nil), t.records...)
}
