package bridge

import (
	"fmt"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
	"github.com/custodia-labs/sercha-engine/internal/logger"
	"github.com/custodia-labs/sercha-engine/internal/metrics"
)

var log = logger.Component("bridge")

// source is an engine object whose results can go stale.
type source interface {
	Revision() uint64
	IsClosed() bool
}

// lease records the revision of the source a page or cursor was produced
// from. Every dereference and move re-checks it, and its parent first.
type lease struct {
	kind   string
	src    source
	rev    uint64
	parent *lease
}

func newLease(kind string, src source, rev uint64) *lease {
	return &lease{kind: kind, src: src, rev: rev}
}

// docLease tracks doc and, for a document read from a database, the
// database at the revision it was read.
func docLease(kind string, doc *engine.Document) *lease {
	l := newLease(kind, doc, doc.Revision())
	if db, rev := doc.Source(); db != nil {
		l.parent = newLease(kind, db, rev)
	}
	return l
}

func (l *lease) check() error {
	if l == nil {
		return nil
	}
	if err := l.parent.check(); err != nil {
		return err
	}
	if l.src == nil {
		return nil
	}
	if l.src.IsClosed() {
		metrics.StaleHandles.WithLabelValues(l.kind).Inc()
		return fmt.Errorf("%s: %w: %w", l.kind, domain.ErrStaleHandle, domain.ErrDatabaseClosed)
	}
	if rev := l.src.Revision(); rev != l.rev {
		metrics.StaleHandles.WithLabelValues(l.kind).Inc()
		log.Debug("%s cursor from revision %d used at revision %d", l.kind, l.rev, rev)
		return fmt.Errorf("%s: %w: source modified", l.kind, domain.ErrStaleHandle)
	}
	return nil
}
