// Manifest is the compile-time enumerated list of record types a Database
// knows about. Every table's SCOPE byte is assigned at registration time,
// in the order the caller lists them — the registration order *is* the
// schema, and changing it changes every existing key's meaning, the same
// way reordering fields in a compile-time enum would.
package kivis

import "context"

// Manifest holds the fixed list of tables a Database operates over.
type Manifest struct {
	tables []tableDescriptor
}

// NewManifest assigns each table a SCOPE byte equal to its position in
// tables, then returns the resulting Manifest. Call Load once storage is
// available to populate each table's auto-increment watermark.
func NewManifest(tables ...tableDescriptor) *Manifest {
	m := &Manifest{tables: tables}
	for i, t := range tables {
		t.setScope(byte(i))
	}
	return m
}

// Load scans every registered table's Main subtable to recover its current
// auto-increment watermark. Called once when a Database is opened.
func (m *Manifest) Load(ctx context.Context, storage *Storage) error {
	for _, t := range m.tables {
		if err := t.loadWatermark(ctx, storage); err != nil {
			return err
		}
	}
	return nil
}

// Members returns the SCOPE byte assigned to each registered table, in
// registration order.
func (m *Manifest) Members() []byte {
	out := make([]byte, len(m.tables))
	for i, t := range m.tables {
		out[i] = t.scope()
	}
	return out
}
