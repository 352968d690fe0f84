package endpoints

import (
	"net/http"
	"time"

	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
)

// entryFromRequest normalizes a schedule body into a PrayerTimeEntry with
// the canonical district name and HH:mm times.
func entryFromRequest(request packets.ScheduleRequest) (model.PrayerTimeEntry, *api.APIError) {
	if _, err := time.Parse("2006-01-02", request.Date); err != nil {
		return model.PrayerTimeEntry{}, &api.APIError{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
	}
	district, ok := model.LookupDistrict(request.Location)
	if !ok {
		return model.PrayerTimeEntry{}, &api.APIError{Code: http.StatusBadRequest, Message: "unknown district"}
	}
	sehri := prayertime.FormatTimeTo24Hour(request.Sehri)
	iftar := prayertime.FormatTimeTo24Hour(request.Iftar)
	if !prayertime.IsClockTime(sehri) || !prayertime.IsClockTime(iftar) {
		return model.PrayerTimeEntry{}, &api.APIError{Code: http.StatusBadRequest, Message: "times must be HH:mm"}
	}
	return model.PrayerTimeEntry{Date: request.Date, Sehri: sehri, Iftar: iftar, Location: district.Name}, nil
}

func scheduleResponse(s *model.Schedule) packets.ScheduleResponse {
	return packets.ScheduleResponse{
		ID:        s.ID,
		Date:      s.Date,
		Location:  s.Location,
		Sehri:     s.Sehri,
		Iftar:     s.Iftar,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}
