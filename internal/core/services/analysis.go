package services

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/sercha-engine/internal/bridge"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// parseFlags is the query syntax accepted from users.
const parseFlags = engine.FlagDefault | engine.FlagWildcard | engine.FlagBooleanAnyCase

// uniquePrefix marks the term that identifies a document by caller id.
const uniquePrefix = "Q"

// analyzer carries the text analysis settings shared by indexing and search.
type analyzer struct {
	settings domain.SearchSettings
	stem     *engine.Stem
	stopper  *engine.SimpleStopper
}

func newAnalyzer(settings domain.SearchSettings) (*analyzer, error) {
	stem, err := engine.NewStem(settings.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: language %q", domain.ErrInvalidInput, settings.Language)
	}
	return &analyzer{
		settings: settings,
		stem:     stem,
		stopper:  engine.NewSimpleStopper(settings.Stopwords...),
	}, nil
}

// parser returns a query parser configured from settings. Its stopper and
// range processors are registered in scope and die with it.
func (a *analyzer) parser(scope *bridge.Scope, db *engine.Database) (*engine.QueryParser, error) {
	qp := engine.NewQueryParser()
	qp.SetDatabase(db)
	qp.SetStemmer(a.stem)
	qp.SetStemmingStrategy(a.settings.StemStrategy)

	if a.stopper.Len() > 0 {
		if _, err := scope.SetParserStopper(qp, a.stopper); err != nil {
			return nil, err
		}
	}
	for _, field := range sortedKeys(a.settings.Prefixes) {
		if err := qp.AddPrefix(field, a.settings.Prefixes[field]); err != nil {
			return nil, err
		}
	}
	for _, field := range sortedKeys(a.settings.BooleanPrefixes) {
		if err := qp.AddBooleanPrefix(field, a.settings.BooleanPrefixes[field], ""); err != nil {
			return nil, err
		}
	}
	for _, spec := range a.settings.Ranges {
		if _, err := scope.AddRangeProcessor(qp, spec.Slot, spec.Marker, rangeFlags(spec), builtinRange(spec), ""); err != nil {
			return nil, err
		}
	}
	return qp, nil
}

// generator returns a term generator for doc. Its stopper is registered
// in scope.
func (a *analyzer) generator(scope *bridge.Scope, doc *engine.Document) (*engine.TermGenerator, error) {
	tg := engine.NewTermGenerator()
	tg.SetDocument(doc)
	tg.SetStemmer(a.stem)
	tg.SetStemmingStrategy(a.settings.StemStrategy)
	if a.stopper.Len() > 0 {
		if _, err := scope.SetGeneratorStopper(tg, a.stopper); err != nil {
			return nil, err
		}
		tg.SetStopperStrategy(domain.StopStemmed)
	}
	return tg, nil
}

// rangeSpec returns the configured range for slot, if any.
func (a *analyzer) rangeSpec(slot domain.Slot) (domain.RangeSpec, bool) {
	for _, spec := range a.settings.Ranges {
		if spec.Slot == slot {
			return spec, true
		}
	}
	return domain.RangeSpec{}, false
}

// encodeValue converts a user-supplied value for slot into its stored form.
func (a *analyzer) encodeValue(slot domain.Slot, raw string) ([]byte, error) {
	spec, ok := a.rangeSpec(slot)
	if !ok {
		return []byte(raw), nil
	}
	switch spec.Kind {
	case domain.RangeNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d value %q is not a number", domain.ErrInvalidInput, slot, raw)
		}
		return domain.SortableSerialise(v), nil
	case domain.RangeDate:
		t, err := engine.NewDateRangeProcessor(slot, "", rangeFlags(spec), 0).ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		return []byte(t.Format("20060102")), nil
	case domain.RangeDateTime:
		t, err := engine.ParseDateTime(raw)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		return []byte(t.Format(engine.DateTimeLayout)), nil
	default:
		return []byte(raw), nil
	}
}

// decodeValue renders a stored value of slot for display.
func (a *analyzer) decodeValue(slot domain.Slot, stored []byte) string {
	if spec, ok := a.rangeSpec(slot); ok && spec.Kind == domain.RangeNumber {
		return strconv.FormatFloat(domain.SortableUnserialise(stored), 'g', -1, 64)
	}
	return string(stored)
}

func rangeFlags(spec domain.RangeSpec) engine.RangeFlags {
	var flags engine.RangeFlags
	if spec.Suffix {
		flags |= engine.RangeSuffix
	}
	if spec.Repeated {
		flags |= engine.RangeRepeated
	}
	if spec.PreferMDY {
		flags |= engine.RangeDatePreferMDY
	}
	return flags
}

// builtinRange returns the engine's processor for the range kind. The marker
// is stripped by the trampoline, so the processor is built without one.
func builtinRange(spec domain.RangeSpec) bridge.RangeProcessor {
	flags := rangeFlags(spec)
	switch spec.Kind {
	case domain.RangeNumber:
		return engine.NewNumberRangeProcessor(spec.Slot, "", flags)
	case domain.RangeDate:
		return engine.NewDateRangeProcessor(spec.Slot, "", flags, 0)
	case domain.RangeDateTime:
		return engine.NewDateTimeRangeProcessor(spec.Slot, "", flags)
	default:
		return engine.NewStringRangeProcessor(spec.Slot, "", flags)
	}
}
