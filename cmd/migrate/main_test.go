package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testboard/engine/internal/records"
)

func TestDemoDataDecodes(t *testing.T) {
	b, err := records.DecodeBatch(demoData)
	require.NoError(t, err)
	assert.Len(t, b.Projects, 1)
	assert.Len(t, b.Features, 2)
	assert.Len(t, b.TestCases, 5)
	for _, f := range b.Features {
		require.NotNil(t, f.ProjectID)
		assert.Equal(t, b.Projects[0].ID, *f.ProjectID)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "seed"}, names)
	seed, _, err := root.Find([]string{"seed"})
	require.NoError(t, err)
	assert.NotNil(t, seed.Flags().Lookup("file"))
}
