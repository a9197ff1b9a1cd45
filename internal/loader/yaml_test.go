package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/domain"
)

const sampleSnapshot = `
version: "1"
containers:
  - dn: ou=Sales,dc=corp
    name: Sales
    manager: uid=boss,ou=Sales,dc=corp
    attributes:
      level: "2"
  - dn: ou=Lab,dc=corp
    manager: ""
  - dn: ou=Ops,dc=corp
agents:
  - dn: uid=boss,ou=Sales,dc=corp
    id: 7
    last_name: Boss
    first_name: Ada
    status: [not_manager, Trainee]
    other_posts: [uid=boss2,ou=Lab,dc=corp]
  - dn: uid=x,ou=Sales,dc=corp
    last_name: Xu
    manager: uid=boss,ou=Sales,dc=corp
    replaces: uid=boss,ou=Sales,dc=corp
`

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(sampleSnapshot))
	require.NoError(t, err)
	require.Len(t, snap.Containers, 3)
	require.Len(t, snap.Agents, 2)

	sales := snap.Containers[0]
	require.NotNil(t, sales.Manager)
	assert.Equal(t, "uid=boss,ou=Sales,dc=corp", *sales.Manager)
	assert.Equal(t, "2", sales.Attributes["level"])

	lab := snap.Containers[1]
	require.NotNil(t, lab.Manager)
	assert.Equal(t, "", *lab.Manager)
	assert.Nil(t, snap.Containers[2].Manager)

	boss := snap.Agents[0]
	assert.Equal(t, int64(7), boss.ID)
	assert.Equal(t, domain.StatusNotManager|domain.StatusTrainee, boss.Status)
	assert.Equal(t, []string{"uid=boss2,ou=Lab,dc=corp"}, boss.OtherPosts)
	assert.Equal(t, "uid=boss,ou=Sales,dc=corp", snap.Agents[1].Replaces)
}

func TestParseSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "agents: [dn: ["},
		{"unknown status", "agents:\n  - dn: uid=a\n    status: [boss]\n"},
		{"agent without dn", "agents:\n  - last_name: A\n"},
		{"container without dn", "containers:\n  - name: X\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestExportSnapshotRoundTrip(t *testing.T) {
	snap, err := ParseSnapshot([]byte(sampleSnapshot))
	require.NoError(t, err)

	data, err := ExportSnapshot(snap)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	again, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
