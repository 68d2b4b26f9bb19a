package provider

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, name string, rating float64, areas ...string) *Provider {
	t.Helper()
	p, err := NewProvider(uuid.New(), KindPhotographer, Profile{Name: name, ServiceAreas: areas})
	require.NoError(t, err)
	p.rating = rating
	return p
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(uuid.Nil, KindAppraiser, Profile{Name: "Mona"})
	assert.Error(t, err)

	_, err = NewProvider(uuid.New(), Kind("plumber"), Profile{Name: "Mona"})
	assert.Error(t, err)

	_, err = NewProvider(uuid.New(), KindAppraiser, Profile{Name: "  "})
	assert.Error(t, err)

	p, err := NewProvider(uuid.New(), KindAppraiser, Profile{
		Name:         " Mona ",
		ServiceAreas: []string{"Cairo", " cairo", "", "Giza"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mona", p.Name())
	assert.Equal(t, []string{"Cairo", "Giza"}, p.ServiceAreas())
	assert.True(t, p.IsActive())
}

func TestProvider_ServesArea(t *testing.T) {
	p := newTestProvider(t, "A", 4, "New Cairo", "Giza")

	assert.True(t, p.ServesArea("giza"))
	assert.True(t, p.ServesArea("Sheikh Zayed, Giza"))
	assert.True(t, p.ServesArea("cairo"))
	assert.False(t, p.ServesArea("Alexandria"))
	assert.False(t, p.ServesArea(""))
}

func TestProvider_RecordRating(t *testing.T) {
	p := newTestProvider(t, "A", 0)

	require.NoError(t, p.RecordRating(5))
	require.NoError(t, p.RecordRating(3))
	assert.InDelta(t, 4.0, p.Rating(), 0.0001)
	assert.Equal(t, 2, p.RatingCount())

	assert.Error(t, p.RecordRating(6))
	assert.Equal(t, 2, p.RatingCount())
}

func TestRankCandidates_LocalityBeatsRating(t *testing.T) {
	a := newTestProvider(t, "A", 4.9, "Cairo")
	b := newTestProvider(t, "B", 3.5, "Giza")

	ranked := RankCandidates([]*Provider{a, b}, "Giza")

	require.Len(t, ranked, 1)
	assert.Equal(t, b.ID(), ranked[0].ID())
}

func TestRankCandidates_FallsBackToAllByRating(t *testing.T) {
	a := newTestProvider(t, "A", 3.0, "Cairo")
	b := newTestProvider(t, "B", 4.5, "Giza")
	c := newTestProvider(t, "C", 4.5, "Giza")

	ranked := RankCandidates([]*Provider{a, b, c}, "Aswan")

	require.Len(t, ranked, 3)
	assert.Equal(t, []uuid.UUID{b.ID(), c.ID(), a.ID()}, []uuid.UUID{ranked[0].ID(), ranked[1].ID(), ranked[2].ID()})
}
