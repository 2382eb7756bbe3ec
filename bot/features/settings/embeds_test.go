package settings

import (
	"testing"

	"leetbot/bot/common"
	"leetbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSettingsEmbed(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		embed := BuildSettingsEmbed(&entities.GuildSettings{GuildID: 1})

		require.Len(t, embed.Fields, 5)
		assert.Equal(t, common.ColorWarning, embed.Color)
		assert.Equal(t, "Disabled", embed.Fields[0].Value)
		assert.Equal(t, "Not set", embed.Fields[1].Value)
		for _, field := range embed.Fields[2:] {
			assert.Equal(t, "Not set", field.Value)
		}
	})

	t.Run("configured", func(t *testing.T) {
		t.Parallel()

		channel := int64(555)
		general := int64(3)
		embed := BuildSettingsEmbed(&entities.GuildSettings{
			GuildID:               1,
			Enabled:               true,
			AnnouncementChannelID: &channel,
			GeneralRoleID:         &general,
		})

		require.Len(t, embed.Fields, 5)
		assert.Equal(t, common.ColorSuccess, embed.Color)
		assert.Equal(t, "Enabled", embed.Fields[0].Value)
		assert.Equal(t, "<#555>", embed.Fields[1].Value)
		assert.Equal(t, "General Role", embed.Fields[2].Name)
		assert.Equal(t, "<@&3>", embed.Fields[2].Value)
		assert.Equal(t, "Not set", embed.Fields[3].Value)
	})
}
