package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/utils"
)

// Options controls a conversion run.
type Options struct {
	// ExcludeStops leaves stops out entirely: no nodes and no stop members.
	ExcludeStops bool `mapstructure:"exclude_stops"`
	// ExcludeRoutes produces stop nodes only, without relations.
	ExcludeRoutes bool `mapstructure:"exclude_routes"`
	// AddMissingStops creates a new node for every stop, even when an
	// existing node is found within the search radius.
	AddMissingStops bool `mapstructure:"add_missing_stops"`

	// RouteRefPattern keeps only routes whose id matches this regular expression.
	RouteRefPattern string `mapstructure:"route_ref_pattern" validate:"omitempty,max=256"`
	// AgencyID keeps only routes of this agency.
	AgencyID string `mapstructure:"agency_id" validate:"omitempty,max=100"`
	// RouteTypes keeps only routes with one of these GTFS route_type values.
	RouteTypes []int `mapstructure:"route_types" validate:"dive,gte=0"`

	// StopSearchRadiusMeters is the match radius for existing nodes. Values
	// above utils.MaxSearchRadiusMeters are clamped.
	StopSearchRadiusMeters float64 `mapstructure:"stop_search_radius" validate:"gte=0"`
	// AddRouteDirection appends the direction of travel to variant names.
	AddRouteDirection bool `mapstructure:"add_route_direction"`

	// RelationTags are added to every route and route_master relation.
	RelationTags osm.Tags `mapstructure:"-" validate:"-"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		StopSearchRadiusMeters: utils.MaxSearchRadiusMeters,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the options and returns a *ConfigurationError describing
// the first problem found.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigurationError{
				Field: fe.Field(),
				Err:   fmt.Errorf("value %v fails %q constraint", fe.Value(), fe.Tag()),
			}
		}
		return &ConfigurationError{Err: err}
	}

	if o.AddMissingStops && o.ExcludeStops {
		return &ConfigurationError{Field: "add_missing_stops", Err: ErrConflictingStopOptions}
	}
	if o.ExcludeStops && o.ExcludeRoutes {
		return &ConfigurationError{Err: ErrNothingToConvert}
	}

	if o.RouteRefPattern != "" {
		if _, err := regexp.Compile(o.RouteRefPattern); err != nil {
			return &ConfigurationError{Field: "route_ref_pattern", Err: err}
		}
	}

	for _, tag := range o.RelationTags {
		if err := utils.ValidateTagKey(tag.Key); err != nil {
			return &ConfigurationError{Field: "relation_tags", Err: fmt.Errorf("%q: %w", tag.Key, err)}
		}
	}

	return nil
}

// normalized returns a copy with the search radius clamped.
func (o Options) normalized(logger *slog.Logger) Options {
	if o.StopSearchRadiusMeters > utils.MaxSearchRadiusMeters {
		logger.Warn("stop search radius too large, clamping",
			slog.Float64("requested", o.StopSearchRadiusMeters),
			slog.Float64("radius", utils.MaxSearchRadiusMeters),
			slog.String("component", "converter"))
		o.StopSearchRadiusMeters = utils.MaxSearchRadiusMeters
	}
	return o
}
