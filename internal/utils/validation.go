package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// Allow alphanumeric, underscore, hyphen, dot, colon - common in transit IDs
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

	colorPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

	// OSM keys: no whitespace, no '=' and no ';'
	validTagKeyPattern = regexp.MustCompile(`^[^\s=;]+$`)
)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateRadius validates a stop search radius. Values above
// MaxSearchRadiusMeters are accepted and clamped by the caller.
func ValidateRadius(radius float64) error {
	if radius < 0 {
		return errors.New("radius must be non-negative")
	}
	return nil
}

// ValidateTagKey validates an OSM tag key supplied by the user
func ValidateTagKey(key string) error {
	if key == "" {
		return errors.New("tag key cannot be empty")
	}
	if len(key) > 255 {
		return errors.New("tag key too long (max 255 characters)")
	}
	if !validTagKeyPattern.MatchString(key) {
		return errors.New("tag key contains invalid characters")
	}
	return nil
}

// NormalizeColor turns a GTFS route color (RRGGBB) into an OSM colour
// value (#RRGGBB). It returns "" for values that are not a hex color.
func NormalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if !colorPattern.MatchString(color) {
		return ""
	}
	return "#" + strings.ToUpper(strings.TrimPrefix(color, "#"))
}

// ValidateLocationParams validates a complete set of location parameters
func ValidateLocationParams(lat, lon, radius float64) map[string][]string {
	fieldErrors := make(map[string][]string)

	if err := ValidateLatitude(lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}

	if err := ValidateLongitude(lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}

	if err := ValidateRadius(radius); err != nil {
		fieldErrors["radius"] = append(fieldErrors["radius"], err.Error())
	}

	return fieldErrors
}
