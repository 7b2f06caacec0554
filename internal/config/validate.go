package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("dag_name", func(fl validator.FieldLevel) bool {
			return stepNamePattern.MatchString(fl.Field().String())
		})
		validatorInst = v
	})
	return validatorInst
}

// validateShape performs static, per-field validation of the normalized
// document: required fields, name patterns, on_error/output-kind enums.
// Structural only — dependency and cycle validation live in internal/graph.
func validateShape(cfg *NormalizedConfig) error {
	v := validatorInstance()

	if err := v.Struct(&cfg.Runner); err != nil {
		return streamyerrors.NewConfigError("runner", describeValidationErr(err), err)
	}

	for _, step := range cfg.Flow {
		if err := v.Struct(&step); err != nil {
			return streamyerrors.NewConfigError(step.Name, describeValidationErr(err), err)
		}
		if step.Source.Type == "" {
			return streamyerrors.NewConfigError(step.Name, "step source resolved to an empty connector type", nil)
		}
	}

	return nil
}

func describeValidationErr(err error) string {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("field %s failed %q validation", fe.Namespace(), fe.Tag())
	}
	return err.Error()
}
