package trajectory

import (
	"sync"

	"github.com/banshee-data/pedflow/internal/units"
)

// Snapshot is the read-only, metre-valued view of a table shared by all
// measurement workers.
type Snapshot struct {
	*frames
}

// Converter turns a centimetre table into a metre snapshot. The conversion
// runs on the first call to Snapshot and never again.
type Converter struct {
	once  sync.Once
	table *Table
	snap  *Snapshot
}

// NewConverter wraps t. The table must not be modified after the first call
// to Snapshot.
func NewConverter(t *Table) *Converter {
	return &Converter{table: t}
}

// Snapshot converts the table on first use and returns the shared snapshot.
func (c *Converter) Snapshot() *Snapshot {
	c.once.Do(func() {
		c.table.ScaleInPlace(units.CMToM)
		c.snap = &Snapshot{frames: c.table.frames}
	})
	return c.snap
}
