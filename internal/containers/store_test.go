package containers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/domain"
)

func paths(cs []*domain.Container) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Path)
	}
	return out
}

func TestAddRejectsDuplicatePath(t *testing.T) {
	h := New()
	_, err := h.Add(domain.ContainerRecord{DN: "ou=Sales,dc=corp", Name: "Sales"})
	require.NoError(t, err)

	_, err = h.Add(domain.ContainerRecord{DN: "OU=sales, DC=corp", Name: "Other"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateContainer))
	assert.Equal(t, 1, h.Len())

	require.Len(t, h.Warnings(), 1)
	assert.Equal(t, domain.WarnDuplicateContainer, h.Warnings()[0].Kind)

	_, err = h.Add(domain.ContainerRecord{DN: ""})
	assert.Error(t, err)
}

func TestAddNameCollisionOrdersShorterPathFirst(t *testing.T) {
	h := New()
	_, err := h.Add(domain.ContainerRecord{DN: "ou=a,dc=corp", Name: "Alpha"})
	require.NoError(t, err)
	_, err = h.Add(domain.ContainerRecord{DN: "ou=sales,ou=emea,dc=corp", Name: "Sales"})
	require.NoError(t, err)
	_, err = h.Add(domain.ContainerRecord{DN: "ou=sales,dc=corp", Name: "SALES"})
	require.NoError(t, err)
	_, err = h.Add(domain.ContainerRecord{DN: "ou=sales,ou=apac,ou=emea,dc=corp", Name: "Salès"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ou=a,dc=corp",
		"ou=sales,dc=corp",
		"ou=sales,ou=emea,dc=corp",
		"ou=sales,ou=apac,ou=emea,dc=corp",
	}, paths(h.All()))

	names := 0
	for _, w := range h.Warnings() {
		if w.Kind == domain.WarnDuplicateContainerName {
			names++
		}
	}
	assert.Equal(t, 2, names)

	path, ok := h.FindContainer("sales")
	require.True(t, ok)
	assert.Equal(t, "ou=sales,dc=corp", path)

	_, ok = h.FindContainer("marketing")
	assert.False(t, ok)
}

func TestStoreAccessors(t *testing.T) {
	h := New()
	c, err := h.Add(domain.ContainerRecord{DN: "ou=x", ShortName: "X"})
	require.NoError(t, err)

	got, ok := h.ByPath("OU=X")
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.Same(t, c, h.Get(c.Ref))
	assert.Nil(t, h.Get(domain.Ref(9)))
	assert.True(t, h.Get(domain.RootRef).IsRoot())

	_, ok = h.ByPath("")
	assert.False(t, ok)
}
