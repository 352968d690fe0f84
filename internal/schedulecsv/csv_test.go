package schedulecsv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []model.Schedule{
		{Date: "2026-03-01", Location: "Cox's Bazar", Sehri: "04:58", Iftar: "18:10"},
		{Date: "2026-03-02", Location: "Dhaka", Sehri: "04:57", Iftar: "18:11"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"date,location,sehri,iftar\n"+
			"2026-03-01,Cox's Bazar,04:58,18:10\n"+
			"2026-03-02,Dhaka,04:57,18:11\n",
		buf.String())
}

func TestParse(t *testing.T) {
	in := "location,date,sehri,iftar\n" +
		"dhaka,2026-03-01,4:58,18:10 (+06)\n" +
		"Sylhet,2026-03-01,04:50 AM,18:02\n" +
		"\n" +
		"Atlantis,2026-03-01,04:58,18:10\n" +
		"Dhaka,2026-02-30,04:58,18:10\n" +
		"Dhaka,2026-03-02,sunrise,18:10\n" +
		"Dhaka,2026-03-01,04:59,18:11\n"

	entries, rejected, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []model.PrayerTimeEntry{
		{Date: "2026-03-01", Sehri: "04:58", Iftar: "18:10", Location: "Dhaka"},
		{Date: "2026-03-01", Sehri: "04:50", Iftar: "18:02", Location: "Sylhet"},
	}, entries)

	require.Len(t, rejected, 4)
	assert.Equal(t, 5, rejected[0].Line)
	assert.Contains(t, rejected[0].Reason, "unknown district")
	assert.Contains(t, rejected[1].Reason, "invalid date")
	assert.Contains(t, rejected[2].Reason, "invalid sehri")
	assert.Equal(t, "duplicate of line 2", rejected[3].Reason)
}

func TestParse_RoundTripsWrite(t *testing.T) {
	schedules := []model.Schedule{
		{Date: "2026-03-01", Location: "Cox's Bazar", Sehri: "04:58", Iftar: "18:10"},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, schedules))

	entries, rejected, err := Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	assert.Equal(t, []model.PrayerTimeEntry{schedules[0].Entry()}, entries)
}

func TestParse_BadHeader(t *testing.T) {
	_, _, err := Parse(strings.NewReader("date,district,sehri,iftar\n"))
	assert.ErrorContains(t, err, `missing column "location"`)

	_, _, err = Parse(strings.NewReader(""))
	assert.Error(t, err)
}
