package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

func TestScope_Lifetime(t *testing.T) {
	scope := NewScope()
	assert.NotEmpty(t, scope.ID())

	stop, err := scope.Stopper(StopperFunc(func(string) (bool, error) { return false, nil }))
	require.NoError(t, err)
	filter, err := scope.MatchDecider(MatchDeciderFunc(func(DocumentView) (bool, error) { return true, nil }))
	require.NoError(t, err)
	assert.Equal(t, 2, scope.Len())
	assert.NotEqual(t, stop.Handle().ID(), filter.Handle().ID())

	h, ok := scope.Handle(stop.Handle().ID())
	require.True(t, ok)
	assert.Same(t, stop.Handle(), h)
	assert.Equal(t, domain.RoleStopper, h.Role())
	assert.Same(t, scope, h.Scope())
	assert.False(t, h.Released())

	require.NoError(t, scope.Close())
	require.NoError(t, scope.Close())
	assert.True(t, scope.Closed())
	assert.Equal(t, 0, scope.Len())
	assert.True(t, stop.Handle().Released())

	_, err = stop.IsStopword("the")
	assert.ErrorIs(t, err, domain.ErrHandleReleased)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = scope.Stopper(StopperFunc(func(string) (bool, error) { return false, nil }))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestScope_ReleasedFilterFailsExecute(t *testing.T) {
	s := newSearcher(t, newIndex(t, uniformTexts(3)...))
	scope := NewScope()
	filter, err := scope.MatchDecider(MatchDeciderFunc(func(DocumentView) (bool, error) { return true, nil }))
	require.NoError(t, err)
	require.NoError(t, scope.Close())

	_, err = s.Execute(context.Background(), engine.NewTerm("common"), 0, 10, 0, nil, filter)
	assert.ErrorIs(t, err, domain.ErrHandleReleased)
}

func TestScope_RejectsNilHosts(t *testing.T) {
	scope := NewScope()
	defer scope.Close()

	_, err := scope.ExpandDecider(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = scope.FieldProcessor(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = scope.MatchDecider(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = scope.MatchSpy(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = scope.RangeProcessor(0, "", 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = scope.Stopper(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, scope.Len())
}

func TestTrampolines_UpcastIsSameInstance(t *testing.T) {
	scope := NewScope()
	defer scope.Close()

	ed, err := scope.ExpandDecider(ExpandDeciderFunc(func(string) (bool, error) { return true, nil }))
	require.NoError(t, err)
	assert.Same(t, ed, ed.Upcast())

	fp, err := scope.FieldProcessor(FieldProcessorFunc(func(string) (*engine.Query, error) { return nil, nil }))
	require.NoError(t, err)
	assert.Same(t, fp, fp.Upcast())

	md, err := scope.MatchDecider(MatchDeciderFunc(func(DocumentView) (bool, error) { return true, nil }))
	require.NoError(t, err)
	assert.Same(t, md, md.Upcast())

	ms, err := scope.MatchSpy(MatchSpyFunc(func(DocumentView, float64) error { return nil }))
	require.NoError(t, err)
	assert.Same(t, ms, ms.Upcast())
	assert.Equal(t, ms.Handle().ID(), ms.Name())

	rp, err := scope.RangeProcessor(3, "$", engine.RangeRepeated, RangeProcessorFunc(func(string, string) (*engine.Query, error) { return nil, nil }))
	require.NoError(t, err)
	assert.Same(t, rp, rp.Upcast())
	assert.Equal(t, domain.Slot(3), rp.Slot())
	assert.Equal(t, "$", rp.Marker())
	assert.Equal(t, engine.RangeRepeated, rp.Flags())

	st, err := scope.Stopper(StopperFunc(func(string) (bool, error) { return true, nil }))
	require.NoError(t, err)
	assert.Same(t, st, st.Upcast())

	for _, role := range domain.AllCallbackRoles() {
		found := false
		for _, h := range []*CallbackHandle{ed.Handle(), fp.Handle(), md.Handle(), ms.Handle(), rp.Handle(), st.Handle()} {
			found = found || h.Role() == role
		}
		assert.True(t, found, role)
	}
}

type namedSpy struct{}

func (namedSpy) Name() string                          { return "facets" }
func (namedSpy) Observe(DocumentView, float64) error { return nil }

func TestMatchSpy_UsesHostName(t *testing.T) {
	scope := NewScope()
	defer scope.Close()
	ms, err := scope.MatchSpy(namedSpy{})
	require.NoError(t, err)
	assert.Equal(t, "facets", ms.Name())
}

func TestStopper_ErrorFailsParse(t *testing.T) {
	scope := NewScope()
	defer scope.Close()
	qp := engine.NewQueryParser()

	hostErr := errors.New("stoplist unavailable")
	st, err := scope.SetParserStopper(qp, StopperFunc(func(string) (bool, error) {
		return false, hostErr
	}))
	require.NoError(t, err)

	_, err = qp.ParseQuery("hello world", engine.FlagDefault, "")
	assert.ErrorIs(t, err, hostErr)
	var cbErr *domain.CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, domain.RoleStopper, cbErr.Role)
	assert.Equal(t, st.Handle().ID(), cbErr.Handle)
}

func TestStopper_DropsStopwords(t *testing.T) {
	scope := NewScope()
	defer scope.Close()
	qp := engine.NewQueryParser()
	_, err := scope.SetParserStopper(qp, StopperFunc(func(term string) (bool, error) {
		return term == "the", nil
	}))
	require.NoError(t, err)

	q, err := qp.ParseQuery("the fox", engine.FlagDefault, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fox"}, q.Terms())
	assert.Equal(t, []string{"the"}, qp.Stoplist())
}

func TestStopper_TermGenerator(t *testing.T) {
	scope := NewScope()
	defer scope.Close()
	g := engine.NewTermGenerator()
	g.SetStopperStrategy(domain.StopAll)
	_, err := scope.SetGeneratorStopper(g, StopperFunc(func(term string) (bool, error) {
		return term == "the", nil
	}))
	require.NoError(t, err)

	doc := engine.NewDocument()
	g.SetDocument(doc)
	require.NoError(t, g.IndexText("the fox", 1, ""))
	assert.False(t, doc.HasTerm("the"))
	assert.True(t, doc.HasTerm("fox"))
}

func TestFieldProcessor(t *testing.T) {
	scope := NewScope()
	defer scope.Close()
	qp := engine.NewQueryParser()

	var got string
	_, err := scope.AddFieldProcessor(qp, "id", FieldProcessorFunc(func(text string) (*engine.Query, error) {
		got = text
		return engine.NewTerm("Q" + text), nil
	}))
	require.NoError(t, err)

	q, err := qp.ParseQuery("id:42", engine.FlagDefault, "")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
	assert.Equal(t, []string{"Q42"}, q.Terms())

	t.Run("invalid query is a callback failure", func(t *testing.T) {
		_, err := scope.AddFieldProcessor(qp, "bad", FieldProcessorFunc(func(string) (*engine.Query, error) {
			return engine.NewInvalid(), nil
		}))
		require.NoError(t, err)
		_, err = qp.ParseQuery("bad:x", engine.FlagDefault, "")
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		assert.ErrorIs(t, err, domain.ErrCallback)
	})

	t.Run("boolean filter", func(t *testing.T) {
		_, err := scope.AddBooleanFieldProcessor(qp, "site", FieldProcessorFunc(func(text string) (*engine.Query, error) {
			return engine.NewTerm("H" + text), nil
		}), "")
		require.NoError(t, err)
		q, err := qp.ParseQuery("fox site:example", engine.FlagDefault, "")
		require.NoError(t, err)
		assert.Equal(t, engine.OpFilter, q.Op())
		assert.ElementsMatch(t, []string{"fox", "Hexample"}, q.Terms())
	})

	t.Run("host error", func(t *testing.T) {
		hostErr := errors.New("lookup failed")
		_, err := scope.AddFieldProcessor(qp, "user", FieldProcessorFunc(func(string) (*engine.Query, error) {
			return nil, hostErr
		}))
		require.NoError(t, err)
		_, err = qp.ParseQuery("user:bob", engine.FlagDefault, "")
		assert.ErrorIs(t, err, hostErr)
		var cbErr *domain.CallbackError
		require.ErrorAs(t, err, &cbErr)
		assert.Equal(t, domain.RoleFieldProcessor, cbErr.Role)
	})
}

func TestRangeProcessor(t *testing.T) {
	scope := NewScope()
	defer scope.Close()
	qp := engine.NewQueryParser()

	var calls [][2]string
	_, err := scope.AddRangeProcessor(qp, 1, "$", 0, RangeProcessorFunc(func(begin, end string) (*engine.Query, error) {
		calls = append(calls, [2]string{begin, end})
		return engine.NewValueRange(1, []byte(begin), []byte(end)), nil
	}), "")
	require.NoError(t, err)

	q, err := qp.ParseQuery("$10..20", engine.FlagDefault, "")
	require.NoError(t, err)
	assert.Equal(t, engine.OpValueRange, q.Op())
	assert.Equal(t, [][2]string{{"10", "20"}}, calls)

	_, err = qp.ParseQuery("10..20", engine.FlagDefault, "")
	assert.ErrorIs(t, err, domain.ErrQuerySyntax)
	assert.Len(t, calls, 1)

	t.Run("host error", func(t *testing.T) {
		qp := engine.NewQueryParser()
		hostErr := errors.New("bad range")
		_, err := scope.AddRangeProcessor(qp, 2, "", 0, RangeProcessorFunc(func(string, string) (*engine.Query, error) {
			return nil, hostErr
		}), "")
		require.NoError(t, err)
		_, err = qp.ParseQuery("a..b", engine.FlagDefault, "")
		assert.ErrorIs(t, err, hostErr)
		var cbErr *domain.CallbackError
		require.ErrorAs(t, err, &cbErr)
		assert.Equal(t, domain.RoleRangeProcessor, cbErr.Role)
	})
}
