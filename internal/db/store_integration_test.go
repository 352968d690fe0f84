package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

func integrationStore(t *testing.T) Store {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, InitTestDB("../../migrations"))
	return TestStore
}

// TestStoreIntegration exercises the Postgres store end to end
func TestStoreIntegration(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	t.Run("User Management", func(t *testing.T) {
		email := fmt.Sprintf("admin-%d@example.com", suffix)
		userID, err := store.CreateUser(email, "hashedpassword", nil, true)
		require.NoError(t, err)
		assert.Greater(t, userID, 0)

		user, err := store.GetUserByEmail(email)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)

		name := "Updated Name"
		require.NoError(t, store.UpdateUserProfile(userID, email, &name))

		_, err = store.GetUserByEmail("missing-" + email)
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := store.CountUsers()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
	})

	t.Run("Schedule Upsert", func(t *testing.T) {
		location := fmt.Sprintf("Test-%d", suffix)
		entries := []model.PrayerTimeEntry{
			{Date: "2026-03-01", Sehri: "04:58", Iftar: "18:10", Location: location},
			{Date: "2026-03-02", Sehri: "04:57", Iftar: "18:11", Location: location},
		}
		n, err := store.UpsertSchedules(ctx, entries)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		entries[0].Sehri = "04:59"
		_, err = store.UpsertSchedules(ctx, entries[:1])
		require.NoError(t, err)

		list, err := store.ListSchedules(ctx, ScheduleFilter{Location: location})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "2026-03-01", list[0].Date)
		assert.Equal(t, "04:59", list[0].Sehri)

		list, err = store.ListSchedules(ctx, ScheduleFilter{Location: location, From: "2026-03-02"})
		require.NoError(t, err)
		require.Len(t, list, 1)

		updated, err := store.UpdateSchedule(ctx, list[0].ID, model.PrayerTimeEntry{
			Date: "2026-03-02", Sehri: "04:50", Iftar: "18:20", Location: location,
		})
		require.NoError(t, err)
		assert.Equal(t, "18:20", updated.Iftar)

		require.NoError(t, store.DeleteSchedule(ctx, updated.ID))
		_, err = store.GetSchedule(ctx, updated.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Hadiths", func(t *testing.T) {
		h, err := store.CreateHadith(ctx, "Take sehri, for in sehri there is blessing.", "Bukhari")
		require.NoError(t, err)

		random, err := store.RandomHadith(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, random.Text)

		require.NoError(t, store.DeleteHadith(ctx, h.ID))
		assert.ErrorIs(t, store.DeleteHadith(ctx, h.ID), ErrNotFound)
	})
}
