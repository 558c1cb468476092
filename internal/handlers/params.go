package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
)

const (
	defaultYear         = 2024
	defaultMostVotedMax = 10
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report the query parameter name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// bindQuery parses the query string into dst and validates it.
func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return apperr.BadRequest("invalid query parameters: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.BadRequest("invalid query parameters: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.BadRequest("invalid query parameters: %s", strings.Join(msgs, "; "))
}

// pathInt reads a positive integer path parameter.
func pathInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Params(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer, got '%s'", name, raw)
	}
	return n, nil
}

func parseVoteType(raw string) (model.VoteType, error) {
	vt, ok := model.ParseVoteType(raw)
	if !ok {
		valid := make([]string, len(model.VoteTypes))
		for i, v := range model.VoteTypes {
			valid[i] = string(v)
		}
		return "", apperr.BadRequest("unknown vote type '%s', expected one of: %s", raw, strings.Join(valid, ", "))
	}
	return vt, nil
}

// yearOr returns year, or the default analysis year when unset.
func yearOr(year int) int {
	if year == 0 {
		return defaultYear
	}
	return year
}

type yearQuery struct {
	Year int `query:"year" validate:"omitempty,min=1900,max=2100"`
}

type voteTypeQuery struct {
	VoteType string `query:"vote_type" validate:"required,max=20"`
	Year     *int   `query:"year" validate:"omitempty,min=1900,max=2100"`
}

type limitQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type floorSpendingQuery struct {
	Year     int    `query:"year" validate:"omitempty,min=1900,max=2100"`
	Building string `query:"building" validate:"omitempty,max=100"`
}

type floorQuery struct {
	Floor    string `query:"floor" validate:"required,max=20"`
	Building string `query:"building" validate:"omitempty,max=100"`
}

type floorProfileQuery struct {
	Floor    string `query:"floor" validate:"required,max=20"`
	Year     int    `query:"year" validate:"omitempty,min=1900,max=2100"`
	Building string `query:"building" validate:"omitempty,max=100"`
}

type stateSpendingQuery struct {
	Year  int    `query:"year" validate:"omitempty,min=1900,max=2100"`
	State string `query:"state" validate:"omitempty,len=2,alpha"`
}
