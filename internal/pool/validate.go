package pool

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldLabels = map[string]string{
	"poolType":           "Pool type",
	"poolVolume":         "Pool volume",
	"heaterPower":        "Heater power",
	"pumpPower":          "Pump power",
	"lighting":           "Lighting load",
	"heatingType":        "Heating type",
	"filtrationSystem":   "Filtration system",
	"supplyVoltage":      "Supply voltage",
	"earthingSystem":     "Earthing system",
	"zone":               "Zone",
	"installationMethod": "Installation method",
	"cableRunLength":     "Cable run length",
	"ambientTemperature": "Ambient temperature",
}

// Validate checks the numeric and enumerated fields of in. The returned map
// is keyed by JSON field name with a human-readable message per field; it is
// empty when the inputs can be calculated.
func Validate(in Inputs) map[string]string {
	errs := map[string]string{}

	err := validate.Struct(in)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = fieldMessage(fe)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
