package domain

import "math"

// DocID identifies a document. Ids are assigned monotonically by the database,
// starting at 1. Zero is never a valid document id.
type DocID uint32

// TermPos is the position of a term occurrence within a document.
type TermPos uint32

// Slot is a value channel on a document, used for sorting, ranges and facets.
type Slot uint32

// BadSlot marks an unset value slot.
const BadSlot Slot = math.MaxUint32
