package prayertime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

func TestCache_GetSetClear(t *testing.T) {
	c := NewCache()
	_, ok := c.Get(DayKey("Dhaka", "2026-03-01"))
	assert.False(t, ok)

	entry := model.PrayerTimeEntry{Date: "2026-03-01", Sehri: "04:58", Iftar: "18:10", Location: "Dhaka"}
	c.Set(DayKey("Dhaka", "2026-03-01"), []model.PrayerTimeEntry{entry})
	c.Set(HijriKey("Sylhet", 1447, 9), []model.PrayerTimeEntry{entry, entry})

	got, ok := c.Get("Dhaka-2026-03-01")
	require.True(t, ok)
	assert.Equal(t, []model.PrayerTimeEntry{entry}, got)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, []string{"Dhaka-2026-03-01", "Sylhet-hijri-1447-9"}, stats.Keys)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
	_, ok = c.Get("Dhaka-2026-03-01")
	assert.False(t, ok)
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache()
	in := []model.PrayerTimeEntry{{Date: "2026-03-01", Sehri: "04:58", Iftar: "18:10", Location: "Dhaka"}}
	c.Set("k", in)
	in[0].Sehri = "00:00"

	got, _ := c.Get("k")
	got[0].Iftar = "00:00"

	again, _ := c.Get("k")
	assert.Equal(t, "04:58", again[0].Sehri)
	assert.Equal(t, "18:10", again[0].Iftar)
}
