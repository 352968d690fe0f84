package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

func HadithModule(store db.Store) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/hadiths", func(ctx *gin.Context, user *model.User) (any, *api.APIError) {
			var request packets.CreateHadithRequest
			if err := ctx.ShouldBindJSON(&request); err != nil {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
			}
			text := strings.TrimSpace(request.Text)
			if text == "" {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: "text is required"}
			}
			h, err := store.CreateHadith(ctx.Request.Context(), text, strings.TrimSpace(request.Source))
			if err != nil {
				return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create hadith"}
			}
			return api.Status{Code: http.StatusCreated, Body: h}, nil
		})

		c.DELETE("/hadiths/:id", func(ctx *gin.Context, user *model.User) (any, *api.APIError) {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
			}
			if err := store.DeleteHadith(ctx.Request.Context(), id); err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return nil, &api.APIError{Code: http.StatusNotFound, Message: "hadith not found"}
				}
				return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete hadith"}
			}
			return gin.H{"message": "deleted"}, nil
		})
	})
}
