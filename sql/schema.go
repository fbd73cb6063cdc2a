package sql

import (
	"fmt"
	"strings"
)

// Schema is the list of idempotent statements that create the database
// layout. Scripts use "if not exists" so that re-applying on an existing
// database is a no-op.
type Schema struct {
	Script string
}

// Apply the schema to the database.
func (s *Schema) Apply(db *Database) error {
	if s == nil || len(strings.TrimSpace(s.Script)) == 0 {
		return nil
	}
	for _, stmt := range strings.Split(s.Script, ";") {
		stmt = strings.TrimSpace(stmt)
		if len(stmt) == 0 {
			continue
		}
		if _, err := db.Exec(stmt, nil, nil); err != nil {
			return fmt.Errorf("apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}
