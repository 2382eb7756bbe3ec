package stats

import (
	"testing"

	"leetbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMedalForRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rank     int
		expected string
	}{
		{1, "🥇"},
		{2, "🥈"},
		{3, "🥉"},
		{4, "4."},
		{10, "10."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, getMedalForRank(tt.rank))
	}
}

func TestBuildLeaderboardEmbed(t *testing.T) {
	t.Parallel()

	embed := BuildLeaderboardEmbed([]LeaderboardSection{
		{
			Title: "General race",
			Days:  365,
			Winners: []*entities.WinnerStat{
				{DiscordID: 100, DisplayName: "alice", Wins: 3},
				{DiscordID: 200, DisplayName: "bob", Wins: 1},
			},
		},
		{
			Title: "Commander race",
			Days:  14,
		},
	})

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "General race (365 days)", embed.Fields[0].Name)
	assert.Equal(t, "🥇 <@100> **3 wins**\n🥈 <@200> **1 win**", embed.Fields[0].Value)
	assert.Equal(t, "No winners yet", embed.Fields[1].Value)
}
