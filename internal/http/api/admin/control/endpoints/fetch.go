package endpoints

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
)

// FetchJobs starts fetch jobs and reports their progress.
type FetchJobs interface {
	Start(req model.FetchRequest) (string, error)
	Progress(ctx context.Context, jobID string) (model.FetchProgress, bool, error)
}

type FetchController struct {
	jobs         FetchJobs
	limiter      *prayertime.Limiter
	cache        *prayertime.Cache
	pollInterval time.Duration
}

func NewFetchController(jobs FetchJobs, limiter *prayertime.Limiter, cache *prayertime.Cache) *FetchController {
	return &FetchController{jobs: jobs, limiter: limiter, cache: cache, pollInterval: 500 * time.Millisecond}
}

func FetchModule(jobs FetchJobs, limiter *prayertime.Limiter, cache *prayertime.Cache) api.Module {
	ctl := NewFetchController(jobs, limiter, cache)
	return ctl.module()
}

func (f *FetchController) module() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/fetch", f.startFetch)
		c.GET("/fetch/limiter", f.limiterStats)
		c.PUT("/fetch/limiter", f.updateLimiter)
		c.GET("/fetch/cache", f.cacheStats)
		c.DELETE("/fetch/cache", f.clearCache)
		c.GET("/fetch/:id", f.getProgress)
		// streaming writes its own response
		c.Group.GET("/fetch/:id/stream", f.streamProgress)
	})
}

// POST /api/admin/fetch
func (f *FetchController) startFetch(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request model.FetchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	jobID, err := f.jobs.Start(request)
	if err != nil {
		if prayertime.Categorize(err) == prayertime.ErrValidation {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "could not start fetch"}
	}

	log.Info().Int("user_id", user.ID).Str("job_id", jobID).Str("mode", string(request.Mode)).Msg("fetch job started")
	base := ctx.Request.URL.Path + "/" + jobID
	return api.Status{Code: http.StatusAccepted, Body: packets.FetchStartedResponse{
		JobID:     jobID,
		StatusURL: base,
		StreamURL: base + "/stream",
	}}, nil
}

// GET /api/admin/fetch/:id
func (f *FetchController) getProgress(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	p, ok, err := f.jobs.Progress(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load progress"}
	}
	if !ok {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "job not found"}
	}
	return p, nil
}

// GET /api/admin/fetch/:id/stream
// Sends a "progress" event whenever the job changes and stops after a
// terminal state.
func (f *FetchController) streamProgress(ctx *gin.Context) {
	jobID := ctx.Param("id")
	reqCtx := ctx.Request.Context()

	first, ok, err := f.jobs.Progress(reqCtx, jobID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not load progress"})
		return
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	pending := &first
	var last model.FetchProgress
	ctx.Stream(func(w io.Writer) bool {
		if pending == nil {
			select {
			case <-reqCtx.Done():
				return false
			case <-ticker.C:
			}
			p, ok, err := f.jobs.Progress(reqCtx, jobID)
			if err != nil || !ok {
				if !errors.Is(err, context.Canceled) {
					ctx.SSEvent("error", gin.H{"error": "progress unavailable"})
				}
				return false
			}
			if p == last {
				return true
			}
			pending = &p
		}
		ctx.SSEvent("progress", *pending)
		last, pending = *pending, nil
		return !last.Terminal()
	})
}

// GET /api/admin/fetch/limiter
func (f *FetchController) limiterStats(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return f.limiter.Stats(), nil
}

// PUT /api/admin/fetch/limiter
func (f *FetchController) updateLimiter(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request prayertime.LimiterUpdate
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if request.Capacity != nil && *request.Capacity < 1 {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "capacity must be at least 1"}
	}
	if request.RefillRate != nil && *request.RefillRate <= 0 {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "refillRate must be positive"}
	}

	stats := f.limiter.UpdateConfig(request)
	log.Info().Int("user_id", user.ID).Int("capacity", stats.Capacity).Float64("refill_rate", stats.RefillRate).Msg("rate limiter updated")
	return stats, nil
}

// GET /api/admin/fetch/cache
func (f *FetchController) cacheStats(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return f.cache.Stats(), nil
}

// DELETE /api/admin/fetch/cache
func (f *FetchController) clearCache(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	f.cache.Clear()
	log.Info().Int("user_id", user.ID).Msg("prayer time cache cleared")
	return gin.H{"message": "cleared"}, nil
}
