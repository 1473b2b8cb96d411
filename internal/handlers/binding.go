package handlers

import (
	"github.com/bizlink/walletd/internal/utils/accountnum"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// init registers the phone validation with gin's binding engine so request
// DTOs can declare `binding:"phone"`. A value passes when normalization
// yields a non-empty digit string.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return accountnum.Normalize(fl.Field().String()) != ""
		})
	}
}
