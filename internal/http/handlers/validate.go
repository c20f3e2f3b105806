package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(LessonProgressPatchRequest)
		if req.ProgressPercentage == nil && req.TimeSpentMinutes == nil && req.Completed == nil {
			sl.ReportError(req.ProgressPercentage, "progress_percentage", "ProgressPercentage", "any_field", "")
		}
	}, LessonProgressPatchRequest{})
	return v
}

type LessonProgressPatchRequest struct {
	ProgressPercentage *int  `json:"progress_percentage" validate:"omitempty"`
	TimeSpentMinutes   *int  `json:"time_spent_minutes" validate:"omitempty,gte=0"`
	Completed          *bool `json:"completed"`
}

type LessonTimeRequest struct {
	Minutes *int `json:"minutes" validate:"required,gte=0,lte=720"`
}

type LessonPercentageRequest struct {
	Percentage *int `json:"percentage" validate:"required"`
}

func validationError(msg string, cause error) error {
	return domainagg.NewError(domainagg.CodeValidation, "http", msg, cause)
}

// bindJSON decodes and validates the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return validationError("invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(formatValidationErrors(err), err)
	}
	return nil
}

func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be <= %s", field, fe.Param()))
		case "any_field":
			msgs = append(msgs, "at least one of progress_percentage, time_spent_minutes, completed is required")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, validationError("invalid "+name, err)
	}
	return id, nil
}
