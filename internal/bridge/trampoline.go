package bridge

import (
	"fmt"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// A trampoline is the engine-facing half of one host callback. It
// implements the engine's dispatch interface for its role, checks that its
// handle is still live, forwards to the host and turns host failures into
// a *domain.CallbackError. It never substitutes a default decision.

// ExpandDeciderTrampoline forwards expansion-term decisions to the host.
type ExpandDeciderTrampoline struct {
	h    *CallbackHandle
	host ExpandDecider
}

var _ engine.ExpandDecider = (*ExpandDeciderTrampoline)(nil)

// KeepTerm implements engine.ExpandDecider.
func (t *ExpandDeciderTrampoline) KeepTerm(term string) (bool, error) {
	if err := t.h.enter(); err != nil {
		return false, err
	}
	keep, err := t.host.KeepTerm(term)
	if err != nil {
		return false, t.h.fail(err)
	}
	return keep, nil
}

// Handle returns the registration handle.
func (t *ExpandDeciderTrampoline) Handle() *CallbackHandle { return t.h }

// Upcast presents the trampoline as the engine's decider interface.
func (t *ExpandDeciderTrampoline) Upcast() engine.ExpandDecider { return t }

// FieldProcessorTrampoline forwards field text to the host.
type FieldProcessorTrampoline struct {
	h    *CallbackHandle
	host FieldProcessor
}

var _ engine.FieldProcessor = (*FieldProcessorTrampoline)(nil)

// ProcessField implements engine.FieldProcessor. A query the matcher could
// not evaluate is reported as a callback failure.
func (t *FieldProcessorTrampoline) ProcessField(text string) (*engine.Query, error) {
	if err := t.h.enter(); err != nil {
		return nil, err
	}
	q, err := t.host.ProcessField(text)
	if err != nil {
		return nil, t.h.fail(err)
	}
	if q != nil && q.Op() == engine.OpInvalid {
		return nil, t.h.fail(fmt.Errorf("%w: field processor returned an invalid query for %q",
			domain.ErrInvalidQuery, text))
	}
	return q, nil
}

// Handle returns the registration handle.
func (t *FieldProcessorTrampoline) Handle() *CallbackHandle { return t.h }

// Upcast presents the trampoline as the engine's field processor interface.
func (t *FieldProcessorTrampoline) Upcast() engine.FieldProcessor { return t }

// MatchDeciderTrampoline forwards candidate documents to the host.
type MatchDeciderTrampoline struct {
	h    *CallbackHandle
	host MatchDecider
}

var _ engine.MatchDecider = (*MatchDeciderTrampoline)(nil)

// AcceptDocument implements engine.MatchDecider.
func (t *MatchDeciderTrampoline) AcceptDocument(doc *engine.Document) (bool, error) {
	if err := t.h.enter(); err != nil {
		return false, err
	}
	ok, err := t.host.AcceptDocument(DocumentView{doc: doc})
	if err != nil {
		return false, t.h.fail(err)
	}
	return ok, nil
}

// Handle returns the registration handle.
func (t *MatchDeciderTrampoline) Handle() *CallbackHandle { return t.h }

// Upcast presents the trampoline as the engine's decider interface.
func (t *MatchDeciderTrampoline) Upcast() engine.MatchDecider { return t }

// MatchSpyTrampoline forwards observed documents to the host.
type MatchSpyTrampoline struct {
	h    *CallbackHandle
	host MatchSpy
	name string
}

var _ engine.MatchSpy = (*MatchSpyTrampoline)(nil)

// Name implements engine.MatchSpy.
func (t *MatchSpyTrampoline) Name() string { return t.name }

// Observe implements engine.MatchSpy.
func (t *MatchSpyTrampoline) Observe(doc *engine.Document, weight float64) error {
	if err := t.h.enter(); err != nil {
		return err
	}
	if err := t.host.Observe(DocumentView{doc: doc}, weight); err != nil {
		return t.h.fail(err)
	}
	return nil
}

// Handle returns the registration handle.
func (t *MatchSpyTrampoline) Handle() *CallbackHandle { return t.h }

// Upcast presents the trampoline as the engine's spy interface.
func (t *MatchSpyTrampoline) Upcast() engine.MatchSpy { return t }

// RangeProcessorTrampoline forwards range expressions carrying its marker
// to the host. The slot, marker and flags are fixed at registration.
type RangeProcessorTrampoline struct {
	h      *CallbackHandle
	host   RangeProcessor
	slot   domain.Slot
	marker string
	flags  engine.RangeFlags
}

var _ engine.RangeProcessor = (*RangeProcessorTrampoline)(nil)

// Slot implements engine.RangeProcessor.
func (t *RangeProcessorTrampoline) Slot() domain.Slot { return t.slot }

// Marker implements engine.RangeProcessor.
func (t *RangeProcessorTrampoline) Marker() string { return t.marker }

// Flags implements engine.RangeProcessor.
func (t *RangeProcessorTrampoline) Flags() engine.RangeFlags { return t.flags }

// ProcessRange implements engine.RangeProcessor. Expressions without the
// marker are declined without calling the host.
func (t *RangeProcessorTrampoline) ProcessRange(begin, end string) (*engine.Query, error) {
	b, e, ok := engine.StripMarker(begin, end, t.marker, t.flags)
	if !ok {
		return nil, nil
	}
	if err := t.h.enter(); err != nil {
		return nil, err
	}
	q, err := t.host.ProcessRange(b, e)
	if err != nil {
		return nil, t.h.fail(err)
	}
	return q, nil
}

// Handle returns the registration handle.
func (t *RangeProcessorTrampoline) Handle() *CallbackHandle { return t.h }

// Upcast presents the trampoline as the engine's range processor interface.
func (t *RangeProcessorTrampoline) Upcast() engine.RangeProcessor { return t }

// StopperTrampoline forwards stopword checks to the host.
type StopperTrampoline struct {
	h    *CallbackHandle
	host Stopper
}

var _ engine.Stopper = (*StopperTrampoline)(nil)

// IsStopword implements engine.Stopper.
func (t *StopperTrampoline) IsStopword(term string) (bool, error) {
	if err := t.h.enter(); err != nil {
		return false, err
	}
	stop, err := t.host.IsStopword(term)
	if err != nil {
		return false, t.h.fail(err)
	}
	return stop, nil
}

// Handle returns the registration handle.
func (t *StopperTrampoline) Handle() *CallbackHandle { return t.h }

// Upcast presents the trampoline as the engine's stopper interface.
func (t *StopperTrampoline) Upcast() engine.Stopper { return t }

func nilHost(role domain.CallbackRole) error {
	return fmt.Errorf("%w: nil %s host", domain.ErrInvalidInput, role)
}

// ExpandDecider registers host and returns its trampoline.
func (s *Scope) ExpandDecider(host ExpandDecider) (*ExpandDeciderTrampoline, error) {
	if host == nil {
		return nil, nilHost(domain.RoleExpandDecider)
	}
	h, err := s.register(domain.RoleExpandDecider)
	if err != nil {
		return nil, err
	}
	return &ExpandDeciderTrampoline{h: h, host: host}, nil
}

// FieldProcessor registers host and returns its trampoline.
func (s *Scope) FieldProcessor(host FieldProcessor) (*FieldProcessorTrampoline, error) {
	if host == nil {
		return nil, nilHost(domain.RoleFieldProcessor)
	}
	h, err := s.register(domain.RoleFieldProcessor)
	if err != nil {
		return nil, err
	}
	return &FieldProcessorTrampoline{h: h, host: host}, nil
}

// MatchDecider registers host and returns its trampoline.
func (s *Scope) MatchDecider(host MatchDecider) (*MatchDeciderTrampoline, error) {
	if host == nil {
		return nil, nilHost(domain.RoleMatchDecider)
	}
	h, err := s.register(domain.RoleMatchDecider)
	if err != nil {
		return nil, err
	}
	return &MatchDeciderTrampoline{h: h, host: host}, nil
}

// MatchSpy registers host and returns its trampoline. The spy is named
// after the host when it has a Name method, otherwise after the handle.
func (s *Scope) MatchSpy(host MatchSpy) (*MatchSpyTrampoline, error) {
	if host == nil {
		return nil, nilHost(domain.RoleMatchSpy)
	}
	h, err := s.register(domain.RoleMatchSpy)
	if err != nil {
		return nil, err
	}
	name := h.id
	if n, ok := host.(interface{ Name() string }); ok && n.Name() != "" {
		name = n.Name()
	}
	return &MatchSpyTrampoline{h: h, host: host, name: name}, nil
}

// RangeProcessor registers host for range expressions over slot that
// carry marker, and returns its trampoline.
func (s *Scope) RangeProcessor(slot domain.Slot, marker string, flags engine.RangeFlags, host RangeProcessor) (*RangeProcessorTrampoline, error) {
	if host == nil {
		return nil, nilHost(domain.RoleRangeProcessor)
	}
	if slot == domain.BadSlot {
		return nil, fmt.Errorf("%w: range processor slot unset", domain.ErrInvalidInput)
	}
	h, err := s.register(domain.RoleRangeProcessor)
	if err != nil {
		return nil, err
	}
	return &RangeProcessorTrampoline{h: h, host: host, slot: slot, marker: marker, flags: flags}, nil
}

// Stopper registers host and returns its trampoline.
func (s *Scope) Stopper(host Stopper) (*StopperTrampoline, error) {
	if host == nil {
		return nil, nilHost(domain.RoleStopper)
	}
	h, err := s.register(domain.RoleStopper)
	if err != nil {
		return nil, err
	}
	return &StopperTrampoline{h: h, host: host}, nil
}

// AddFieldProcessor registers host and attaches it to qp for field.
func (s *Scope) AddFieldProcessor(qp *engine.QueryParser, field string, host FieldProcessor) (*FieldProcessorTrampoline, error) {
	t, err := s.FieldProcessor(host)
	if err != nil {
		return nil, err
	}
	if err := qp.AddFieldProcessor(field, t.Upcast()); err != nil {
		return nil, err
	}
	return t, nil
}

// AddBooleanFieldProcessor registers host and attaches it to qp as a
// boolean filter for field.
func (s *Scope) AddBooleanFieldProcessor(qp *engine.QueryParser, field string, host FieldProcessor, grouping string) (*FieldProcessorTrampoline, error) {
	t, err := s.FieldProcessor(host)
	if err != nil {
		return nil, err
	}
	if err := qp.AddBooleanFieldProcessor(field, t.Upcast(), grouping); err != nil {
		return nil, err
	}
	return t, nil
}

// AddRangeProcessor registers host and attaches it to qp.
func (s *Scope) AddRangeProcessor(qp *engine.QueryParser, slot domain.Slot, marker string, flags engine.RangeFlags, host RangeProcessor, grouping string) (*RangeProcessorTrampoline, error) {
	t, err := s.RangeProcessor(slot, marker, flags, host)
	if err != nil {
		return nil, err
	}
	qp.AddRangeProcessor(t.Upcast(), grouping)
	return t, nil
}

// SetParserStopper registers host as the stopper of qp.
func (s *Scope) SetParserStopper(qp *engine.QueryParser, host Stopper) (*StopperTrampoline, error) {
	t, err := s.Stopper(host)
	if err != nil {
		return nil, err
	}
	qp.SetStopper(t.Upcast())
	return t, nil
}

// SetGeneratorStopper registers host as the stopper of tg.
func (s *Scope) SetGeneratorStopper(tg *engine.TermGenerator, host Stopper) (*StopperTrampoline, error) {
	t, err := s.Stopper(host)
	if err != nil {
		return nil, err
	}
	tg.SetStopper(t.Upcast())
	return t, nil
}

// AddMatchSpy registers host and attaches it to the searcher's enquire.
func (s *Scope) AddMatchSpy(sr *Searcher, host MatchSpy) (*MatchSpyTrampoline, error) {
	t, err := s.MatchSpy(host)
	if err != nil {
		return nil, err
	}
	sr.enq.AddMatchSpy(t.Upcast())
	return t, nil
}
