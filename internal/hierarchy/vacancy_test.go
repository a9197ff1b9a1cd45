package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/domain"
)

func TestFindAgentIn(t *testing.T) {
	dir := newFakeDirectory(domain.DirectoryEntry{DN: "uid=p,ou=x", LastName: "Placeholder"})
	b := New(WithLookup(dir.Lookup))

	mustAdd(b, record(0, "uid=a,ou=x", "A", "", "uid=p,ou=x"))
	mustAdd(b, record(0, "uid=b,ou=y", "B", "", ""))
	mustAdd(b, record(0, "uid=c,ou=x", "C", "", ""))
	mustAdd(b, record(0, "uid=d,ou=sub,ou=x", "D", "", ""))

	first := b.FindAgentIn("OU=X", 0)
	require.NotEqual(t, domain.NoRef, first)
	assert.Equal(t, "uid=a,ou=x", b.Agent(first).Path)

	second := b.FindAgentIn("ou=x", first+1)
	require.NotEqual(t, domain.NoRef, second)
	assert.Equal(t, "uid=c,ou=x", b.Agent(second).Path)

	assert.Equal(t, domain.NoRef, b.FindAgentIn("ou=x", second+1))
	assert.Equal(t, domain.NoRef, b.FindAgentIn("ou=none", 0))
}

func TestSynthesizeVacantManager(t *testing.T) {
	b := New()
	boss := mustAdd(b, record(0, "uid=boss,ou=hq", "Boss", "", ""))
	mustAdd(b, record(0, "uid=x2,ou=team,ou=hq", "Xu", "", "uid=boss,ou=hq"))
	mustAdd(b, record(0, "uid=x1,ou=team,ou=hq", "Xavier", "", "uid=boss,ou=hq"))
	mustAdd(b, record(0, "uid=other,ou=hq", "Other", "", "uid=boss,ou=hq"))

	v := b.SynthesizeVacantManager("ou=team,ou=hq", "Vacant")
	require.NotNil(t, v)
	assert.True(t, v.IsVacant())
	assert.True(t, v.IsPlaceholder())
	assert.NotZero(t, v.ID)
	assert.Equal(t, boss.Ref, v.Parent)
	assert.Equal(t, []string{"uid=x1,ou=team,ou=hq", "uid=x2,ou=team,ou=hq"}, childPaths(b, v.Ref))
	assert.Equal(t, []string{"uid=other,ou=hq", v.Path}, childPaths(b, boss.Ref))
	assert.NoError(t, checkTree(b))
}

func TestSynthesizeVacantManagerAboveNestedMembers(t *testing.T) {
	dir := newFakeDirectory(domain.DirectoryEntry{DN: "uid=x2,ou=team", LastName: "Xu"})
	b := New(WithLookup(dir.Lookup))
	x1 := mustAdd(b, record(0, "uid=x1,ou=team", "Xavier", "", "uid=x2,ou=team"))
	x2 := mustAdd(b, record(0, "uid=x2,ou=team", "Xu", "", ""))
	require.Equal(t, x2.Ref, x1.Parent)
	require.Equal(t, domain.RootRef, x2.Parent)

	v := b.SynthesizeVacantManager("ou=team", "")
	require.NotNil(t, v)
	assert.Equal(t, DefaultVacantLabel, v.LastName)
	assert.Equal(t, domain.RootRef, v.Parent)
	assert.Equal(t, []string{"uid=x1,ou=team", "uid=x2,ou=team"}, childPaths(b, v.Ref))
	assert.NoError(t, checkTree(b))
}

func TestSynthesizeVacantManagerWithoutMembers(t *testing.T) {
	b := New()
	mustAdd(b, record(0, "uid=a,ou=x", "A", "", ""))
	assert.Nil(t, b.SynthesizeVacantManager("ou=empty", "Vacant"))
	assert.Equal(t, 2, b.Len())
}
