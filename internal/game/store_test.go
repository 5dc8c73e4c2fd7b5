package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-tv/internal/domain"
	"github.com/park285/cheese-tv/internal/feed"
)

func strptr(s string) *string { return &s }

func sampleFeature() *feed.Feature {
	return &feed.Feature{
		ID:          "1n8qK1ar",
		Orientation: domain.White,
		White: domain.PlayerState{
			Identity: domain.PlayerIdentity{Name: "Aqua_Blazing", ID: "aqua_blazing"},
			Color:    domain.White,
			Rating:   2965,
			Seconds:  60,
		},
		Black: domain.PlayerState{
			Identity: domain.PlayerIdentity{Name: "Player_06", Title: strptr("FM"), ID: "player_06"},
			Color:    domain.Black,
			Rating:   2945,
			Seconds:  60,
		},
		Placement: "r3rbk1/1b1q1pp1/1n2p3/2ppP1BP/1nP3N1/1P3NP1/5PB1/RQ2R1K1",
	}
}

func TestNewStoreColors(t *testing.T) {
	v := NewStore().View()
	assert.Equal(t, domain.White, v.White.Color)
	assert.Equal(t, domain.Black, v.Black.Color)
}

func TestApplyFeatureReplacesView(t *testing.T) {
	s := NewStore()
	s.ApplyUpdate(&feed.Update{Placement: "8/8/8/8/8/8/8/8", LastMove: "e2e4", WhiteSeconds: 1, BlackSeconds: 2})
	s.ApplyFeature(sampleFeature())

	v := s.View()
	assert.Equal(t, "1n8qK1ar", v.GameID)
	assert.Equal(t, "Aqua_Blazing", v.White.Identity.Name)
	assert.Equal(t, "Player_06", v.Black.Identity.Name)
	assert.Equal(t, domain.White, v.White.Color)
	assert.Equal(t, domain.Black, v.Black.Color)
	assert.Equal(t, sampleFeature().Placement, v.Position)
	assert.Empty(t, v.LastMove)
}

func TestApplyFeatureFromBlackFirstWire(t *testing.T) {
	msg, err := feed.Parse([]byte(`{"t":"featured","d":{"id":"g","orientation":"white","players":[` +
		`{"color":"black","user":{"name":"B","id":"b"},"rating":1500,"seconds":30},` +
		`{"color":"white","user":{"name":"W","id":"w"},"rating":1600,"seconds":40}],"fen":"8/8/8/8/8/8/8/8"}}`))
	require.NoError(t, err)

	s := NewStore()
	s.Apply(msg)
	v := s.View()
	assert.Equal(t, "W", v.White.Identity.Name)
	assert.Equal(t, domain.White, v.White.Color)
	assert.Equal(t, 1600, v.White.Rating)
	assert.Equal(t, "B", v.Black.Identity.Name)
	assert.Equal(t, domain.Black, v.Black.Color)
}

func TestApplyUpdateKeepsIdentities(t *testing.T) {
	s := NewStore()
	s.ApplyFeature(sampleFeature())
	before := s.View()

	s.ApplyUpdate(&feed.Update{
		Placement:    "4rbk1/1b1q1pp1/1n2p3/2ppP1BP/1nP3N1/1P3NP1/5PB1/rQ2R1K1",
		LastMove:     "a8a1",
		WhiteSeconds: 37,
		BlackSeconds: 30,
	})
	after := s.View()

	assert.Equal(t, before.White.Identity, after.White.Identity)
	assert.Equal(t, before.Black.Identity, after.Black.Identity)
	assert.Equal(t, before.White.Rating, after.White.Rating)
	assert.Equal(t, before.Black.Rating, after.Black.Rating)
	assert.Equal(t, before.GameID, after.GameID)

	assert.Equal(t, "4rbk1/1b1q1pp1/1n2p3/2ppP1BP/1nP3N1/1P3NP1/5PB1/rQ2R1K1", after.Position)
	assert.Equal(t, "a8a1", after.LastMove)
	assert.Equal(t, 37, after.White.Seconds)
	assert.Equal(t, 30, after.Black.Seconds)
}

func TestViewIsACopy(t *testing.T) {
	s := NewStore()
	s.ApplyFeature(sampleFeature())
	v := s.View()
	v.Position = "changed"
	assert.NotEqual(t, "changed", s.View().Position)
}

func TestApplyNilIsNoop(t *testing.T) {
	s := NewStore()
	s.ApplyFeature(sampleFeature())
	before := s.View()
	s.ApplyFeature(nil)
	s.ApplyUpdate(nil)
	s.Apply(nil)
	assert.Equal(t, before, s.View())
}
