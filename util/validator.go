package util

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonTagName)
	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("longitude", validateLongitude)
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterValidation("status", validateStatus)
	validate.RegisterValidation("priority", validatePriority)
	validate.RegisterStructValidation(validateCoordinatePair, model.CreateReportRequest{})
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return NotBlank(fl.Field().String())
}

func validateStatus(fl validator.FieldLevel) bool {
	return model.Status(fl.Field().String()).IsValid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return model.Priority(fl.Field().String()).IsValid()
}

// latitude and longitude travel together
func validateCoordinatePair(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.CreateReportRequest)
	if (req.Latitude == nil) == (req.Longitude == nil) {
		return
	}
	if req.Latitude == nil {
		sl.ReportError(req.Latitude, "latitude", "Latitude", "required_with", "longitude")
		return
	}
	sl.ReportError(req.Longitude, "longitude", "Longitude", "required_with", "latitude")
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FieldErrors flattens a validation error into messages keyed by JSON field
// name. Errors that are not validation errors yield nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "required_with":
		return fmt.Sprintf("must be provided together with %s", fe.Param())
	case "status":
		return "must be one of PENDING, IN_PROGRESS, RESOLVED, REJECTED, CLOSED"
	case "priority":
		return "must be one of LOW, MEDIUM, HIGH, URGENT"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
