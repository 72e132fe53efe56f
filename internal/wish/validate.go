package wish

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hpungsan/wishlist/internal/errors"
)

// MsgTitleRequired is shown when a form is submitted with a blank title.
const MsgTitleRequired = "Enter field wish title to create a wish"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks the trimmed draft. It returns a VALIDATION_FAILED
// WishError describing the first failing field, or nil.
func Validate(d Draft) error {
	err := validate.Struct(d.Trimmed())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.NewInternal(err)
	}

	fe := verrs[0]
	return errors.NewValidation(fe.Field(), msgForTag(fe))
}

// msgForTag returns a human-readable message for a failed validation tag.
func msgForTag(fe validator.FieldError) string {
	switch {
	case fe.Field() == "title" && fe.Tag() == "required":
		return MsgTitleRequired
	case fe.Tag() == "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag())
	}
}
