package repository

import (
	"context"
	"testing"

	"leetbot/domain/entities"
	"leetbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildSettingsRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuildSettingsRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown guild", func(t *testing.T) {
		settings, err := repo.GetGuildSettings(ctx, testGuildID)
		require.NoError(t, err)
		assert.Nil(t, settings)
	})

	t.Run("created disabled", func(t *testing.T) {
		settings, err := repo.GetOrCreateGuildSettings(ctx, testGuildID)
		require.NoError(t, err)
		assert.Equal(t, testGuildID, settings.GuildID)
		assert.False(t, settings.Enabled)
		assert.False(t, settings.HasAnnouncementChannel())
	})

	t.Run("update and list enabled", func(t *testing.T) {
		settings, err := repo.GetOrCreateGuildSettings(ctx, testGuildID)
		require.NoError(t, err)

		channel := int64(555)
		general := int64(777)
		settings.Enabled = true
		settings.SetAnnouncementChannel(&channel)
		settings.SetRole(entities.TierGeneral, &general)
		require.NoError(t, repo.UpdateGuildSettings(ctx, settings))

		_, err = repo.GetOrCreateGuildSettings(ctx, 42)
		require.NoError(t, err)

		enabled, err := repo.GetEnabledGuilds(ctx)
		require.NoError(t, err)
		require.Len(t, enabled, 1)
		assert.Equal(t, testGuildID, enabled[0].GuildID)
		assert.True(t, enabled[0].HasAnnouncementChannel())

		roleID, ok := enabled[0].RoleFor(entities.TierGeneral)
		assert.True(t, ok)
		assert.Equal(t, general, roleID)
		_, ok = enabled[0].RoleFor(entities.TierSergeant)
		assert.False(t, ok)
	})

	t.Run("update of unknown guild fails", func(t *testing.T) {
		err := repo.UpdateGuildSettings(ctx, &entities.GuildSettings{GuildID: 1})
		assert.ErrorContains(t, err, "not found")
	})
}
