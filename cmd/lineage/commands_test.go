package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/lineage/internal/service"
	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/wiki/wikitest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFactory(source *wikitest.FakeSource) servicesFactory {
	return func(ctx context.Context, cfg service.Config) (*service.Services, error) {
		cfg.Source = source
		cfg.Archive = false
		return service.New(ctx, cfg)
	}
}

func run(t *testing.T, factory servicesFactory, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newSource() *wikitest.FakeSource {
	source := wikitest.NewFakeSource()
	source.AddArtist("Alpha", "{{Infobox musical artist\n| influences = [[Beta]]\n}}")
	source.AddArtist("Beta", "{{Infobox musical artist\n| influences = [[Gamma]]\n}}")
	source.AddArtist("Gamma", "")
	return source
}

func TestGraphCommand(t *testing.T) {
	out, err := run(t, fakeFactory(newSource()), "graph", "Alpha", "--depth", "1", "--memory")
	require.NoError(t, err)

	var result common.GraphResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Nodes, 2)
	assert.Equal(t, "Alpha", result.Nodes[0].ID)
	assert.Equal(t, "Beta", result.Nodes[1].ID)
}

func TestGraphCommand_DepthTwo(t *testing.T) {
	out, err := run(t, fakeFactory(newSource()), "--memory", "graph", "Alpha")
	require.NoError(t, err)

	var result common.GraphResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Nodes, 3)
	assert.Len(t, result.Links, 2)
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, fakeFactory(newSource()), "--memory", "resolve", "Alpha")
	require.NoError(t, err)

	var artist common.Artist
	require.NoError(t, json.Unmarshal([]byte(out), &artist))
	assert.Equal(t, "Alpha", artist.ID)
	assert.Equal(t, common.ArtistStatusValidated, artist.Status)
}

func TestResolveCommand_NotAnArtist(t *testing.T) {
	_, err := run(t, fakeFactory(newSource()), "--memory", "resolve", "Seattle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a musical artist")
}

func TestNeighborsCommand(t *testing.T) {
	out, err := run(t, fakeFactory(newSource()), "--memory", "neighbors", "Beta")
	require.NoError(t, err)
	assert.Equal(t, "Beta <- Gamma\tinfluenced_by\tinfobox\n", out)
}

func TestExtractCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.wiki")
	markup := "{{Infobox musical artist\n| influences = [[Muddy Waters]]\n| influenced = [[Jimi Hendrix]]\n}}"
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o644))

	out, err := run(t, nil, "extract", path, "--subject", "Howlin' Wolf")
	require.NoError(t, err)

	var edges []common.InfluenceEdge
	require.NoError(t, json.Unmarshal([]byte(out), &edges))
	require.Len(t, edges, 2)
	assert.Equal(t, "Muddy_Waters", edges[0].FromID)
	assert.Equal(t, "Howlin'_Wolf", edges[0].ToID)
	assert.Equal(t, "Howlin'_Wolf", edges[1].FromID)
	assert.Equal(t, "Jimi_Hendrix", edges[1].ToID)
}

func TestExtractCommand_Stdin(t *testing.T) {
	cmd := newRootCmd(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("no influences here"))
	cmd.SetArgs([]string{"extract", "-"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "[]\n", out.String())
}

func TestMigrateCommand_RejectsMemory(t *testing.T) {
	_, err := run(t, nil, "--memory", "migrate")
	require.Error(t, err)
}
