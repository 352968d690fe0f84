package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

type ScheduleController struct {
	store db.Store
}

func NewScheduleController(store db.Store) *ScheduleController {
	return &ScheduleController{store: store}
}

func ScheduleModule(store db.Store) api.Module {
	ctl := NewScheduleController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.PUT("/schedules/:id", ctl.updateSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
	})
}

func (s *ScheduleController) listSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var query packets.ListSchedulesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	list, err := s.store.ListSchedules(ctx.Request.Context(), db.ScheduleFilter{
		From:     query.From,
		To:       query.To,
		Location: query.Location,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedules"}
	}

	response := make([]packets.ScheduleResponse, 0, len(list))
	for i := range list {
		response = append(response, scheduleResponse(&list[i]))
	}
	return response, nil
}

func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	entry, apiErr := entryFromRequest(request)
	if apiErr != nil {
		return nil, apiErr
	}

	sc, err := s.store.CreateSchedule(ctx.Request.Context(), entry)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "schedule already exists for this date and location"}
	}
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create schedule"}
	}

	log.Info().Int("user_id", user.ID).Str("location", sc.Location).Str("date", sc.Date).Msg("schedule created")
	return api.Status{Code: http.StatusCreated, Body: scheduleResponse(sc)}, nil
}

func (s *ScheduleController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	entry, apiErr := entryFromRequest(request)
	if apiErr != nil {
		return nil, apiErr
	}

	sc, err := s.store.UpdateSchedule(ctx.Request.Context(), id, entry)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	case errors.Is(err, db.ErrDuplicate):
		return nil, &api.APIError{Code: http.StatusConflict, Message: "schedule already exists for this date and location"}
	case err != nil:
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update schedule"}
	}
	return scheduleResponse(sc), nil
}

func (s *ScheduleController) deleteSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := s.store.DeleteSchedule(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete schedule"}
	}

	response := gin.H{"message": "deleted"}
	return response, nil
}
