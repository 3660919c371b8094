package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/acadsys/records-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// NewValidator returns a validator that reports fields under their JSON
// names, matching what clients actually sent.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validationError turns validator failures into a 400 carrying per-field detail.
func validationError(err error, message string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		items := make([]appErrors.FieldItem, 0, len(verrs))
		for _, fe := range verrs {
			items = append(items, appErrors.FieldItem{Field: fe.Field(), Reason: fe.Tag()})
		}
		return appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, message), items)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// parseDate parses a calendar date in the API's YYYY-MM-DD form.
func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}
