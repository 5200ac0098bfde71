package pkg

import (
	"jobmarket/internal/api/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("jobcategory", func(fl validator.FieldLevel) bool {
		return models.JobCategory(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("approle", func(fl validator.FieldLevel) bool {
		return models.AppRole(fl.Field().String()).IsValid()
	})
	return v
}

func ParseAndValidate(c *gin.Context, dto interface{}) error {
	if err := c.ShouldBindJSON(dto); err != nil {
		return err
	}
	return validate.Struct(dto)
}

// ParseFormAndValidate binds multipart or urlencoded form fields.
func ParseFormAndValidate(c *gin.Context, dto interface{}) error {
	if err := c.ShouldBind(dto); err != nil {
		return err
	}
	return validate.Struct(dto)
}

// GetUserID extracts the user ID set by the auth middleware. It writes a 401
// and returns false when the request is not authenticated.
func GetUserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		c.Abort()
		return 0, false
	}
	userID, ok := raw.(uint)
	if !ok || userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		c.Abort()
		return 0, false
	}
	return userID, true
}
