package items

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"item-server/internal/apperr"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	MaxCategoryLength    = 50
	MaxImageURLLength    = 2048
	MinQuantity          = 1
	MaxQuantity          = 10000
	DefaultQuantity      = 1
)

// CreateInput is the body of a create request.
type CreateInput struct {
	Name        string  `json:"name" form:"name" validate:"required,max=100" example:"Widget"`
	Description *string `json:"description,omitempty" form:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category,omitempty" form:"category" validate:"omitempty,max=50"`
	ImageURL    *string `json:"image_url,omitempty" form:"image_url" validate:"omitempty,max=2048,http_url"`
	Quantity    *int    `json:"quantity,omitempty" form:"quantity" validate:"omitnil,min=1,max=10000" example:"1"`
}

// UpdateInput is a partial update. Omitted fields keep their value and an
// empty optional string clears it.
type UpdateInput struct {
	Name        *string `json:"name,omitempty" form:"name" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description,omitempty" form:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category,omitempty" form:"category" validate:"omitempty,max=50"`
	ImageURL    *string `json:"image_url,omitempty" form:"image_url" validate:"omitempty,max=2048,http_url"`
	Quantity    *int    `json:"quantity,omitempty" form:"quantity" validate:"omitnil,min=1,max=10000"`
}

func (in *CreateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimPtr(in.Description)
	in.Category = trimPtr(in.Category)
	in.ImageURL = trimPtr(in.ImageURL)
}

func (in *UpdateInput) normalize() {
	in.Name = trimPtr(in.Name)
	in.Description = trimPtr(in.Description)
	in.Category = trimPtr(in.Category)
	in.ImageURL = trimPtr(in.ImageURL)
}

// Validate reports every constraint in violates, exactly as Create would.
func (in CreateInput) Validate() error {
	in.normalize()
	return validateStruct(&in)
}

// Validate reports every constraint in violates, exactly as Update would.
func (in UpdateInput) Validate() error {
	in.normalize()
	return validateStruct(&in)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct reports every violated constraint, not just the first one.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr.OrNil()
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return "must not be empty"
		}
		return fmt.Sprintf("must be between %d and %d", MinQuantity, MaxQuantity)
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be between %d and %d", MinQuantity, MaxQuantity)
	case "http_url":
		return "must be an absolute http or https URL"
	default:
		return "is invalid"
	}
}
