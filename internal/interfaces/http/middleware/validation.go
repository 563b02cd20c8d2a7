package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
)

// init registers request-body validators with gin's binding engine.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("permission_key", validPermissionKey)
	}
}

// validPermissionKey accepts "module.action" and "module.submodule.action"
// keys with a known action.
func validPermissionKey(fl validator.FieldLevel) bool {
	_, _, _, err := rbac.ParsePermissionKey(fl.Field().String())
	return err == nil
}
