package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/store/memory"
	"github.com/OFFIS-RIT/lineage/pkg/wiki"
	"github.com/OFFIS-RIT/lineage/pkg/wiki/wikitest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newResolver(t *testing.T, ttl time.Duration) (*Resolver, *memory.Store, *wikitest.FakeSource, *clock) {
	t.Helper()
	s := memory.New()
	src := wikitest.NewFakeSource()
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(s, src, Options{RejectionTTL: ttl, Now: c.Now}), s, src, c
}

func TestResolve_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, _, src, _ := newResolver(t, time.Hour)
	src.AddArtist("Pink Floyd", "")

	first, err := r.Resolve(ctx, "Pink_Floyd")
	require.NoError(t, err)
	require.Equal(t, 1, src.TotalCalls())

	second, err := r.Resolve(ctx, "Pink_Floyd")
	require.NoError(t, err)
	assert.Equal(t, 1, src.TotalCalls(), "cache hit must not fetch")
	assert.Equal(t, first, second)

	assert.Equal(t, "Pink_Floyd", first.ID)
	assert.Equal(t, "Pink Floyd", first.Name)
	assert.Equal(t, "Pink Floyd is a musician.", first.Summary)
	assert.True(t, first.IsValidated())
}

func TestResolve_UsesLookupTitle(t *testing.T) {
	r, _, src, _ := newResolver(t, time.Hour)
	src.AddArtist("Rage Against the Machine", "")

	a, err := r.Resolve(context.Background(), "Rage-Against-the-Machine")
	require.NoError(t, err)
	assert.Equal(t, "Rage_Against_the_Machine", a.ID)
}

func TestResolve_RedirectUsesCanonicalID(t *testing.T) {
	ctx := context.Background()
	r, s, src, _ := newResolver(t, time.Hour)
	src.AddPage(&wiki.Page{
		CanonicalTitle: "The Beatles",
		RawMarkup:      "{{Infobox musical artist}}",
	}, "Beatles")

	a, err := r.Resolve(ctx, "Beatles")
	require.NoError(t, err)
	assert.Equal(t, "The_Beatles", a.ID)

	stored, err := s.GetArtist(ctx, "The_Beatles")
	require.NoError(t, err)
	assert.True(t, stored.IsValidated())
}

func TestResolve_ClassificationGate(t *testing.T) {
	ctx := context.Background()
	r, s, src, _ := newResolver(t, time.Hour)
	src.AddPage(&wiki.Page{
		CanonicalTitle: "Seattle",
		RawMarkup:      "{{Infobox settlement\n| name = Seattle\n}}",
		Categories:     []string{"Cities in Washington (state)"},
	})

	_, err := r.Resolve(ctx, "Seattle")
	require.ErrorIs(t, err, ErrNotFound)

	stored, err := s.GetArtist(ctx, "Seattle")
	require.NoError(t, err)
	assert.False(t, stored.IsValidated())
	assert.Equal(t, common.ArtistStatusRejected, stored.Status)
}

func TestResolve_MissingPageIsRejected(t *testing.T) {
	ctx := context.Background()
	r, s, _, _ := newResolver(t, time.Hour)

	_, err := r.Resolve(ctx, "Nobody_Here")
	require.ErrorIs(t, err, ErrNotFound)

	stored, err := s.GetArtist(ctx, "Nobody_Here")
	require.NoError(t, err)
	assert.Equal(t, common.ArtistStatusRejected, stored.Status)
}

func TestResolve_RejectionCaching(t *testing.T) {
	ctx := context.Background()
	r, _, src, c := newResolver(t, time.Hour)

	_, err := r.Resolve(ctx, "Nobody_Here")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, src.TotalCalls())

	c.now = c.now.Add(30 * time.Minute)
	_, err = r.Resolve(ctx, "Nobody_Here")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, src.TotalCalls(), "fresh rejection must not refetch")

	c.now = c.now.Add(time.Hour)
	src.AddArtist("Nobody Here", "")
	a, err := r.Resolve(ctx, "Nobody_Here")
	require.NoError(t, err)
	assert.Equal(t, 2, src.TotalCalls())
	assert.True(t, a.IsValidated())
}

func TestResolve_RejectionCachingDisabled(t *testing.T) {
	ctx := context.Background()
	r, _, src, _ := newResolver(t, 0)

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(ctx, "Nobody_Here")
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 3, src.TotalCalls())
}

func TestResolve_TransientErrorIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	r, s, src, _ := newResolver(t, time.Hour)
	src.AddArtist("Queen (band)", "")
	src.SetError("Queen (band)", &wiki.HTTPError{StatusCode: 503})

	_, err := r.Resolve(ctx, "Queen_(band)")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = s.GetArtist(ctx, "Queen_(band)")
	require.Error(t, err, "nothing may be stored for a transient failure")

	src.SetError("Queen (band)", nil)
	a, err := r.Resolve(ctx, "Queen_(band)")
	require.NoError(t, err)
	assert.True(t, a.IsValidated())
}

func TestResolve_ShellIsPromoted(t *testing.T) {
	ctx := context.Background()
	r, s, src, _ := newResolver(t, time.Hour)
	require.NoError(t, s.EnsureShell(ctx, "Blur_(band)", "Blur (band)"))
	src.AddArtist("Blur (band)", "")

	a, err := r.Resolve(ctx, "Blur_(band)")
	require.NoError(t, err)
	assert.True(t, a.IsValidated())
	assert.Equal(t, 1, src.Calls("Blur (band)"))
}

func TestResolve_EmptyIdentifier(t *testing.T) {
	r, _, src, _ := newResolver(t, time.Hour)
	_, err := r.Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, src.TotalCalls())
}

func TestIsMusicalArtist(t *testing.T) {
	tests := []struct {
		name       string
		markup     string
		categories []string
		want       bool
	}{
		{name: "musical artist infobox", markup: "{{Infobox musical artist\n}}", want: true},
		{name: "band infobox mixed case", markup: "{{infobox Band}}", want: true},
		{name: "person infobox", markup: "{{Infobox person\n| name = X}}", want: true},
		{name: "singer category", markup: "plain", categories: []string{"American female singers"}, want: true},
		{name: "rapper category", markup: "plain", categories: []string{"Rappers from Atlanta"}, want: true},
		{name: "orchestra category", markup: "", categories: []string{"British orchestras"}, want: true},
		{name: "settlement", markup: "{{Infobox settlement}}", categories: []string{"Cities in England"}, want: false},
		{name: "album", markup: "{{Infobox album}}", categories: []string{"1969 albums"}, want: false},
		{name: "empty", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMusicalArtist(tt.markup, tt.categories))
		})
	}
}
