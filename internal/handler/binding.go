package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/medibook/scheduler-api/internal/schedule"
)

// RegisterValidations installs the custom binding tags used by request
// DTOs. Call once before building the router.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
			return schedule.IsClock(fl.Field().String())
		})
	}
}
