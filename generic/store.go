/*
store.go - Persistence contract for a record's field map

PURPOSE:
  Defines the interface between the engine's field maps and the database.
  The engine itself never performs I/O; callers load a record's fields,
  run pure computations, and write back the resulting patch.

WRITE CONTRACT:
  WriteFields(ctx, id, values, owners):
  - values[f] == "2024-05-15" -> stored
  - values[f] == ""           -> stored as "no value" (cleared)
  - f absent from values      -> ignored; the stored value survives
  The same presence rule applies to owners.
  This is why every engine clear writes "" and never deletes a key.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - generic/store/memory.go: In-memory for testing

EXAMPLE:
  dates, own, err := store.LoadFields(ctx, caseID)
  out := deriver.Trigger(dates, own, "pwdDeterminationDate")
  err = store.WriteFields(ctx, caseID, out.Patch, out.Ownership)
*/
package generic

import "context"

// FieldStore persists the field map and ownership of records.
type FieldStore interface {
	// LoadFields returns the stored fields of a record. Cleared fields are
	// returned as "" so callers can tell them apart from never-written ones.
	LoadFields(ctx context.Context, recordID string) (Dates, Ownership, error)

	// WriteFields applies a patch under the write contract above.
	WriteFields(ctx context.Context, recordID string, values Dates, owners Ownership) error
}
