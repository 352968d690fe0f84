package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/sehri/internal/config"
	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/control/endpoints"
	publicapi "github.com/Nixie-Tech-LLC/sehri/internal/http/api/public/endpoints"
	"github.com/Nixie-Tech-LLC/sehri/internal/jobs"
	"github.com/Nixie-Tech-LLC/sehri/internal/notify"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
	"github.com/Nixie-Tech-LLC/sehri/internal/storage"
)

// Services are the wired dependencies the HTTP modules need.
type Services struct {
	Store    db.Store
	Files    storage.Storage
	Jobs     *jobs.Runner
	Client   *prayertime.Client
	Notifier jobs.Notifier
	Hub      *notify.Hub
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, s Services) {
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(cfg.JWTSecret, s.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		AdminOnly: true,
		SecretKey: cfg.JWTSecret,
		Users:     s.Store,
	},
		authapi.AuthSessionModule(cfg.JWTSecret, s.Store),
		adminapi.ScheduleModule(s.Store),
		adminapi.FetchModule(s.Jobs, s.Client.Limiter(), s.Client.Cache()),
		adminapi.UploadModule(s.Store, s.Files, s.Notifier),
		adminapi.HadithModule(s.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		publicapi.PublicModule(s.Store, s.Hub),
	)

	// Static content
	if !cfg.UseSpaces {
		r.Static("/uploads", uploadDir)
	}
}
