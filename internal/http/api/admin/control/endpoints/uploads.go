package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/notify"
	"github.com/Nixie-Tech-LLC/sehri/internal/schedulecsv"
	"github.com/Nixie-Tech-LLC/sehri/internal/storage"
)

const maxUploadBytes = 5 << 20

type Notifier interface {
	Publish(ev notify.ScheduleEvent) error
}

type UploadController struct {
	store    db.Store
	files    storage.Storage
	notifier Notifier
}

func UploadModule(store db.Store, files storage.Storage, notifier Notifier) api.Module {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	ctl := &UploadController{store: store, files: files, notifier: notifier}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/uploads", ctl.uploadSchedules)
		c.GET("/uploads", ctl.listUploads)
		c.POST("/exports", ctl.exportSchedules)
	})
}

// POST /api/admin/uploads (multipart, field "file")
// Valid rows are upserted; rejected rows are reported back with their line.
func (u *UploadController) uploadSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "file is required"}
	}
	if fileHeader.Size > maxUploadBytes {
		return nil, &api.APIError{Code: http.StatusRequestEntityTooLarge, Message: "file exceeds 5MB"}
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "only .csv files are accepted"}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "could not read file"}
	}
	entries, rejected, err := schedulecsv.Parse(src)
	src.Close()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	storedPath, err := u.files.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to store upload")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store file"}
	}

	saved, err := u.store.UpsertSchedules(ctx.Request.Context(), entries)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save schedules"}
	}

	record, err := u.store.CreateUploadLog(ctx.Request.Context(), model.UploadLog{
		Filename:     fileHeader.Filename,
		StoredPath:   storedPath,
		RowsImported: saved,
		RowsRejected: len(rejected),
		UploadedBy:   user.ID,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not record upload"}
	}

	if saved > 0 {
		if err := u.notifier.Publish(notify.ScheduleEvent{Type: notify.EventSchedulesUpdated, Saved: saved, Source: "upload"}); err != nil {
			log.Warn().Err(err).Msg("failed to publish schedule update")
		}
	}

	if rejected == nil {
		rejected = []schedulecsv.RowError{}
	}
	return api.Status{Code: http.StatusCreated, Body: packets.UploadResponse{
		ID:         record.ID,
		Filename:   record.Filename,
		StoredPath: record.StoredPath,
		Imported:   saved,
		Rejected:   rejected,
	}}, nil
}

// GET /api/admin/uploads?limit=
func (u *UploadController) listUploads(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	list, err := u.store.ListUploadLogs(ctx.Request.Context(), limit)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list uploads"}
	}
	return list, nil
}

// POST /api/admin/exports?from=&to=&location=
// Writes the matching schedules as CSV to file storage and returns its location.
func (u *UploadController) exportSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var query packets.ListSchedulesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if query.Location != "" {
		district, ok := model.LookupDistrict(query.Location)
		if !ok {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "unknown district"}
		}
		query.Location = district.Name
	}
	list, err := u.store.ListSchedules(ctx.Request.Context(), db.ScheduleFilter{
		From: query.From, To: query.To, Location: query.Location,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedules"}
	}

	var buf bytes.Buffer
	if err := schedulecsv.Write(&buf, list); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not render csv"}
	}

	name := "schedules"
	if query.Location != "" {
		name += "-" + query.Location
	}
	url, err := u.files.SaveBytes(fmt.Sprintf("%s.csv", name), "text/csv", buf.Bytes())
	if err != nil {
		log.Error().Err(err).Msg("failed to store export")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store export"}
	}
	return api.Status{Code: http.StatusCreated, Body: gin.H{"url": url, "rows": len(list)}}, nil
}
