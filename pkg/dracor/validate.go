package dracor

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

// MaxNameLength bounds corpus and play identifiers.
const MaxNameLength = 200

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	wikidataPattern = regexp.MustCompile(`^Q[0-9]+$`)

	validate = newValidator()
)

// Name is an identifier that passed validation and is safe to embed as a
// single URL path segment.
type Name string

func (n Name) String() string {
	return string(n)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("dracorname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("wikidata", func(fl validator.FieldLevel) bool {
		return wikidataPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateStruct checks the validate tags of v. The first failing field
// is reported by its JSON name.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	f := fieldErrs[0]
	reason := fmt.Sprintf("failed %s", f.Tag())
	if f.Tag() == "oneof" {
		reason = "expected one of " + strings.Join(strings.Fields(f.Param()), ", ")
	}
	return &ValidationError{Param: f.Field(), Value: fmt.Sprint(f.Value()), Reason: reason}
}

// ValidateName checks a corpus or play identifier. The value is returned
// unchanged when it is accepted.
func ValidateName(value string, param string) (Name, error) {
	if err := validate.Var(value, "required,max=200,dracorname"); err != nil {
		return "", &ValidationError{Param: param, Value: value, Reason: nameReason(err)}
	}
	return Name(value), nil
}

// ValidateWikidataID checks a Wikidata item id such as Q42.
func ValidateWikidataID(value string) (Name, error) {
	if err := validate.Var(value, "required,wikidata"); err != nil {
		return "", &ValidationError{
			Param:  "wikidata_id",
			Value:  value,
			Reason: "expected a Wikidata item id like Q42",
		}
	}
	return Name(value), nil
}

func nameReason(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "required":
			return "cannot be empty"
		case "max":
			return "exceeds 200 characters"
		}
	}
	return "only alphanumeric, hyphens, underscores allowed"
}
