package models

import "time"

// ColumnDescription describes one column of a discovered table.
type ColumnDescription struct {
	Name      string `json:"name"`
	DataType  string `json:"type"`
	IsPrimary bool   `json:"isPrimary"`
	Nullable  bool   `json:"nullable"`
}

// TableDescription describes one discovered table with its columns in
// declaration order.
type TableDescription struct {
	Name     string              `json:"name"`
	Columns  []ColumnDescription `json:"columns"`
	RowCount int64               `json:"rowCount"`
}

// Relationship links a foreign-key-like column to the primary key it
// references. From and To use "table.column" notation.
type Relationship struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Cardinality string `json:"type"`
}

// SchemaDescription is the normalized result of introspecting a
// relational connection. It is immutable once produced; a later
// discovery run supersedes it wholesale.
type SchemaDescription struct {
	Tables        []TableDescription  `json:"tables"`
	Relationships []Relationship      `json:"relationships"`
	SynonymMap    map[string][]string `json:"synonymMap"`
}

// Table returns the named table description, or nil if absent.
func (s *SchemaDescription) Table(name string) *TableDescription {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// SchemaSnapshot is a stored discovery result together with the
// connection it was discovered from. Only the most recent snapshot is
// authoritative.
type SchemaSnapshot struct {
	Schema           SchemaDescription `json:"schema"`
	DatabaseType     string            `json:"database_type"`
	ConnectionString string            `json:"-"`
	CreatedAt        time.Time         `json:"discovered_at"`
}
