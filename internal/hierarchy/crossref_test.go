package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/domain"
)

func TestFindOtherPostIDs(t *testing.T) {
	dir := newFakeDirectory(domain.DirectoryEntry{DN: "uid=ph", LastName: "Ph"})
	b := New(WithLookup(dir.Lookup))

	main := mustAdd(b, domain.AgentRecord{
		DN:         "uid=main",
		ID:         10,
		LastName:   "Main",
		OtherPosts: []string{"UID=second", "uid=missing", "uid=ph", "uid=main"},
	})
	mustAdd(b, record(20, "uid=second", "Second", "", "uid=ph"))
	require.Len(t, main.OtherPosts, 3)

	calls := dir.totalCalls()
	b.FindOtherPostIDs()

	require.Len(t, main.OtherPosts, 1)
	assert.Equal(t, domain.OtherPost{Path: "uid=second", ID: 20}, main.OtherPosts[0])
	assert.True(t, main.OtherPosts[0].Resolved())
	assert.Equal(t, calls, dir.totalCalls(), "other posts never reach the directory")
	assert.Len(t, warningsOf(b, domain.WarnUnresolvableOtherPost), 2)
}

func TestResolveReplacements(t *testing.T) {
	b := New()
	nominal := mustAdd(b, record(0, "uid=n", "Nominal", "", ""))
	acting := mustAdd(b, domain.AgentRecord{DN: "uid=r", LastName: "Acting", Replaces: "uid=n"})
	late := mustAdd(b, domain.AgentRecord{DN: "uid=q", LastName: "Late", Replaces: "uid=n"})
	mustAdd(b, domain.AgentRecord{DN: "uid=s", LastName: "Stray", Replaces: "uid=gone"})

	b.ResolveReplacements()

	assert.Equal(t, acting.Ref, nominal.ReplacedBy)
	assert.Equal(t, nominal.Ref, acting.Replaces)
	assert.Equal(t, domain.NoRef, late.Replaces)
	assert.Same(t, acting, b.DisplayAgent(nominal.Ref))
	assert.Same(t, late, b.DisplayAgent(late.Ref))
	assert.Nil(t, b.DisplayAgent(domain.Ref(77)))

	ws := warningsOf(b, domain.WarnUnresolvableReplacement)
	require.Len(t, ws, 2)
	assert.Equal(t, "uid=q", ws[0].Path)
	assert.Equal(t, "uid=s", ws[1].Path)
}

func TestLinkReplacement(t *testing.T) {
	b := New()
	a := mustAdd(b, record(0, "uid=a", "A", "", ""))
	c := mustAdd(b, record(0, "uid=c", "C", "", ""))
	d := mustAdd(b, record(0, "uid=d", "D", "", ""))

	require.NoError(t, b.LinkReplacement(a.Ref, c.Ref))
	assert.NoError(t, b.LinkReplacement(a.Ref, c.Ref), "relinking the same pair is a no-op")

	err := b.LinkReplacement(a.Ref, d.Ref)
	assert.True(t, errors.Is(err, domain.ErrReplacementConflict))
	err = b.LinkReplacement(d.Ref, c.Ref)
	assert.True(t, errors.Is(err, domain.ErrReplacementConflict))
	err = b.LinkReplacement(d.Ref, d.Ref)
	assert.True(t, errors.Is(err, domain.ErrReplacementConflict))
	err = b.LinkReplacement(domain.RootRef, d.Ref)
	assert.True(t, errors.Is(err, domain.ErrUnknownAgent))
}
