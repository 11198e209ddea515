package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/interfaces/http/dto"
)

// domainTags are the binding tags backed by booking rules, with the message
// reported when one fails
var domainTags = []struct {
	tag     string
	valid   func(string) bool
	message string
}{
	{"booking_status", func(v string) bool { return booking.Status(v).IsValid() }, "Unknown reservation status"},
	{"payment_method", func(v string) bool { return booking.PaymentMethod(v).IsValid() }, "Unknown payment method"},
	{"calendar_date", isCalendarDate, "Must be a date in YYYY-MM-DD format"},
}

func isCalendarDate(v string) bool {
	_, err := booking.ParseDate(v)
	return err == nil
}

// SetupValidator makes validation errors report JSON field names and
// registers domainTags. Call it once before serving.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
	for _, d := range domainTags {
		valid := d.valid
		_ = v.RegisterValidation(d.tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		})
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
	}
	return name
}

// FormatValidationErrors converts binding errors into the validation envelope
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}
	return dto.NewValidationErrorResponse("Invalid request body: "+err.Error(), requestID, nil)
}

// HandleValidationError writes a 400 validation response
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString(RequestIDKey)))
}

func validationMessage(e validator.FieldError) string {
	for _, d := range domainTags {
		if d.tag == e.Tag() {
			return d.message
		}
	}

	unit := ""
	if e.Kind() == reflect.String {
		unit = " characters"
	}
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL format"
	case "uuid":
		return "Must be a UUID"
	case "min":
		return "Must be at least " + e.Param() + unit
	case "max":
		return "Must be at most " + e.Param() + unit
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
