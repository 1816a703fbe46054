package results

import (
	"github.com/beholders/benchsweep/internal/metrics"
	"github.com/beholders/benchsweep/internal/monitoring"
)

// RowWriter accepts result rows.
type RowWriter interface {
	Write(r metrics.RunResult) error
}

// Mirror writes every row to Primary and, best effort, to Secondary. Only a
// Primary failure is returned; the CSV stays the record of truth even when
// the database is unavailable.
type Mirror struct {
	Primary   RowWriter
	Secondary RowWriter
}

// Write implements RowWriter.
func (m Mirror) Write(r metrics.RunResult) error {
	if err := m.Primary.Write(r); err != nil {
		return err
	}
	if m.Secondary != nil {
		if err := m.Secondary.Write(r); err != nil {
			monitoring.Warnf("results database: %v", err)
		}
	}
	return nil
}
