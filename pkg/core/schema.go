package core

import "strings"

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string // type descriptor, including length where the backend reports one
	Nullable bool
	Position int
}

// Table is a user table and its ordered columns.
type Table struct {
	Name    string
	Columns []Column
}

// SchemaDescription is the ordered set of user tables visible to a target.
// It is built from a live introspection call and never cached across runs.
type SchemaDescription struct {
	Tables []Table
}

// String renders the schema in the prompt format:
//
//	Table: customers
//	  - id (INTEGER) NOT NULL
//	  - email (TEXT) NULL
//
// Tables are separated by a blank line.
func (s SchemaDescription) String() string {
	blocks := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		var b strings.Builder
		b.WriteString("Table: ")
		b.WriteString(table.Name)
		for _, col := range table.Columns {
			b.WriteString("\n  - ")
			b.WriteString(col.Name)
			if col.Type != "" {
				b.WriteString(" (")
				b.WriteString(col.Type)
				b.WriteString(")")
			}
			if col.Nullable {
				b.WriteString(" NULL")
			} else {
				b.WriteString(" NOT NULL")
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// TableNames returns the table names in introspection order.
func (s SchemaDescription) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}
