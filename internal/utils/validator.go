package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/uninotes/quiz-service/internal/models"
)

// Validator wraps go-playground's struct validation with the service's
// custom tag validations.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate checks the struct's validate tags.
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("quiz_status", validateQuizStatus)

	// Report json field names in validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.MultiChoice,
		models.TrueFalse,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateQuizStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.QuizStatus{
		models.QuizStatusDraft,
		models.QuizStatusPending,
		models.QuizStatusApproved,
		models.QuizStatusRejected,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}
