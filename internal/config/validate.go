package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/quake-feed/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("lat", func(fl validator.FieldLevel) bool {
		lat := fl.Field().Float()
		return lat >= -90 && lat <= 90
	})
	_ = v.RegisterValidation("lng", func(fl validator.FieldLevel) bool {
		lng := fl.Field().Float()
		return lng >= -180 && lng <= 180
	})
	return v
}

// envNames maps AlertSettings fields to the variables that set them.
var envNames = map[string]string{
	"MinMagnitude":  "ALERT_MIN_MAGNITUDE",
	"MaxDistanceKm": "ALERT_MAX_DISTANCE_KM",
	"HomeLatitude":  "ALERT_HOME_LAT",
	"HomeLongitude": "ALERT_HOME_LON",
	"MaxAge":        "ALERT_MAX_AGE",
}

func validateAlertSettings(s domain.AlertSettings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].StructField()
		if name, ok := envNames[field]; ok {
			return fmt.Errorf("invalid %s: failed %q rule", name, verrs[0].Tag())
		}
	}
	return fmt.Errorf("invalid alert settings: %w", err)
}
