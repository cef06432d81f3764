package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxTextLength bounds the free-text dataset and query fields.
	MaxTextLength = 10000

	// Dropdown values accepted by the experiment form.
	AllowedHeterogeneity = []string{"homogeneous", "heterogeneous"}
	AllowedTopologies    = []string{"star", "mesh", "tree"}
)

func init() {
	validate = validator.New()
}

// ExperimentRequest carries the five experiment parameters as submitted by
// the panel. Presence is deliberately not enforced here: the runner checks
// for missing fields itself so the "all fields are required" line lands in
// the experiment log the way the panel shows it. This validator only
// rejects values that are malformed when present.
type ExperimentRequest struct {
	Dataset       string `json:"dataset" validate:"omitempty,max=10000"`
	Query         string `json:"query" validate:"omitempty,max=10000"`
	Heterogeneity string `json:"heterogeneity" validate:"omitempty,oneof=homogeneous heterogeneous"`
	Topology      string `json:"topology" validate:"omitempty,oneof=star mesh tree"`
	Nodes         int    `json:"nodes" validate:"omitempty,min=0"`
}

// ValidateExperimentRequest validates an experiment start or config save
// request.
func ValidateExperimentRequest(req *ExperimentRequest) error {
	if req == nil {
		return errors.New("experiment request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
