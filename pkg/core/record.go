package core

// SourceColumn is the reserved column carrying the originating document's base name.
const SourceColumn = "sourceFile"

// Value is a single cell value in a normalized record.
//
// The zero value is the absent marker: the column does not exist in the
// record's originating table. A present value may still be empty text.
type Value struct {
	Text    string
	Present bool
}

// Absent returns the absent-value marker.
func Absent() Value { return Value{} }

// Text returns a present value holding s.
func Text(s string) Value { return Value{Text: s, Present: true} }

// IsAbsent reports whether v is the absent marker.
func (v Value) IsAbsent() bool { return !v.Present }

// Field is a named value inside a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered, immutable mapping from column name to value.
// Methods that change a record return a modified copy.
type Record struct {
	fields []Field
}

// NewRecord builds a record from fields. A later field with the same name
// replaces an earlier one in place.
func NewRecord(fields ...Field) Record {
	r := Record{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		r = r.set(f.Name, f.Value)
	}
	return r
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the record's fields.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the value stored under name.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of r with name set to v.
func (r Record) With(name string, v Value) Record {
	cp := Record{fields: make([]Field, len(r.fields), len(r.fields)+1)}
	copy(cp.fields, r.fields)
	return cp.set(name, v)
}

// MapValues returns a copy of r with fn applied to every present value.
// Absent markers are left untouched.
func (r Record) MapValues(fn func(string) string) Record {
	cp := Record{fields: make([]Field, len(r.fields))}
	for i, f := range r.fields {
		if f.Value.Present {
			f.Value.Text = fn(f.Value.Text)
		}
		cp.fields[i] = f
	}
	return cp
}

func (r Record) set(name string, v Value) Record {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return r
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
	return r
}

// Dataset is the aggregated output of a run.
//
// Rows are aligned with Columns: Rows[i][j] is the value of Columns[j] in
// record i. Every row has exactly len(Columns) values.
type Dataset struct {
	Columns []string
	Rows    [][]Value
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Rows) }

// ColumnIndex returns the position of name in Columns, or -1.
func (d Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Record returns row i as a Record.
func (d Dataset) Record(i int) Record {
	fields := make([]Field, len(d.Columns))
	for j, c := range d.Columns {
		fields[j] = Field{Name: c, Value: d.Rows[i][j]}
	}
	return Record{fields: fields}
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	cp := Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([][]Value, len(d.Rows)),
	}
	for i, row := range d.Rows {
		cp.Rows[i] = append([]Value(nil), row...)
	}
	return cp
}
