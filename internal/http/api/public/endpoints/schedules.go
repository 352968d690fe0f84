package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/notify"
	"github.com/Nixie-Tech-LLC/sehri/internal/schedulecsv"
)

// Bangladesh has no daylight saving time.
var dhaka = time.FixedZone(model.DistrictTimezone, 6*60*60)

type PublicController struct {
	store db.Store
	hub   *notify.Hub
	now   func() time.Time
}

// PublicModule mounts the read-only endpoints used by the website and displays.
// A nil hub leaves out the live event socket.
func PublicModule(store db.Store, hub *notify.Hub) api.Module {
	ctl := &PublicController{store: store, hub: hub, now: time.Now}
	return ctl.module()
}

func (p *PublicController) module() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/districts", p.listDistricts)
		c.PUBLIC_GET("/schedules", p.listSchedules)
		c.PUBLIC_GET("/schedules/today", p.today)
		c.Group.GET("/schedules/export.csv", p.exportCSV)
		c.PUBLIC_GET("/hadiths", p.listHadiths)
		c.PUBLIC_GET("/hadiths/random", p.randomHadith)
		if p.hub != nil {
			c.Group.GET("/schedules/live", gin.WrapF(p.hub.ServeWS))
		}
	})
}

type scheduleQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Location string `form:"location"`
}

func (q scheduleQuery) filter() (db.ScheduleFilter, error) {
	f := db.ScheduleFilter{From: q.From, To: q.To}
	for _, d := range []string{q.From, q.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return f, fmt.Errorf("invalid date %q", d)
		}
	}
	if q.Location != "" {
		district, ok := model.LookupDistrict(q.Location)
		if !ok {
			return f, fmt.Errorf("unknown district %q", q.Location)
		}
		f.Location = district.Name
	}
	return f, nil
}

// GET /api/districts
func (p *PublicController) listDistricts(ctx *gin.Context) (any, *api.APIError) {
	return model.Districts(), nil
}

// GET /api/schedules?location=&from=&to=
func (p *PublicController) listSchedules(ctx *gin.Context) (any, *api.APIError) {
	var query scheduleQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	filter, err := query.filter()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	list, err := p.store.ListSchedules(ctx.Request.Context(), filter)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedules"}
	}
	entries := make([]model.PrayerTimeEntry, 0, len(list))
	for _, s := range list {
		entries = append(entries, s.Entry())
	}
	return entries, nil
}

// GET /api/schedules/today?location=
// Today is the current date in Bangladesh.
func (p *PublicController) today(ctx *gin.Context) (any, *api.APIError) {
	location := ctx.DefaultQuery("location", "Dhaka")
	district, ok := model.LookupDistrict(location)
	if !ok {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "unknown district"}
	}
	date := p.now().In(dhaka).Format("2006-01-02")

	list, err := p.store.ListSchedules(ctx.Request.Context(), db.ScheduleFilter{From: date, To: date, Location: district.Name})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load schedule"}
	}
	if len(list) == 0 {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "no schedule for today"}
	}
	return list[0].Entry(), nil
}

// GET /api/schedules/export.csv?location=&from=&to=
func (p *PublicController) exportCSV(ctx *gin.Context) {
	var query scheduleQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := query.filter()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := p.store.ListSchedules(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list schedules"})
		return
	}

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", `attachment; filename="schedules.csv"`)
	ctx.Status(http.StatusOK)
	if err := schedulecsv.Write(ctx.Writer, list); err != nil {
		log.Error().Err(err).Msg("failed to write csv export")
	}
}

// GET /api/hadiths
func (p *PublicController) listHadiths(ctx *gin.Context) (any, *api.APIError) {
	list, err := p.store.ListHadiths(ctx.Request.Context())
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list hadiths"}
	}
	return list, nil
}

// GET /api/hadiths/random
func (p *PublicController) randomHadith(ctx *gin.Context) (any, *api.APIError) {
	h, err := p.store.RandomHadith(ctx.Request.Context())
	if errors.Is(err, db.ErrNotFound) {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "no hadiths yet"}
	}
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to load hadith"}
	}
	return h, nil
}
