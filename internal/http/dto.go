package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"paysched/internal/core"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names so errors line up with the request body.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts the first failure into a
// core.ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return core.Invalid(fe.Field(), reasonFor(fe))
}

func reasonFor(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return errors.New("is required")
	case "max":
		return fmt.Errorf("%w (max %s characters)", core.ErrTooLong, fe.Param())
	case "gte":
		return core.ErrNegativeAmount
	case "datetime":
		return errors.New("must be a date in YYYY-MM-DD form")
	case "oneof":
		return fmt.Errorf("must be one of: %s", fe.Param())
	default:
		return fmt.Errorf("failed %q check", fe.Tag())
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

type createPaymentRequest struct {
	PayeeName     string `json:"payee_name" validate:"required,max=200"`
	Amount        *int64 `json:"amount" validate:"required,gte=0"`
	DueDate       string `json:"due_date" validate:"required,datetime=2006-01-02"`
	PaymentType   string `json:"payment_type" validate:"omitempty,oneof=one-time daily weekly monthly"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=bank-transfer credit-card check cash other"`
	Notes         string `json:"notes" validate:"max=2000"`
}

func (req createPaymentRequest) draft() (core.Draft, error) {
	if err := validateStruct(req); err != nil {
		return core.Draft{}, err
	}
	due, err := core.ParseDate(req.DueDate)
	if err != nil {
		return core.Draft{}, core.Invalid("due_date", core.ErrMissingDate)
	}
	return core.Draft{
		PayeeName: req.PayeeName,
		Amount:    core.Yen(*req.Amount),
		DueDate:   due,
		Type:      core.PaymentType(req.PaymentType),
		Method:    core.PaymentMethod(req.PaymentMethod),
		Notes:     req.Notes,
	}, nil
}

type patchPaymentRequest struct {
	PayeeName     *string `json:"payee_name" validate:"omitempty,max=200"`
	Amount        *int64  `json:"amount" validate:"omitempty,gte=0"`
	DueDate       *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentType   *string `json:"payment_type" validate:"omitempty,oneof=one-time daily weekly monthly"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,oneof=bank-transfer credit-card check cash other"`
	Status        *string `json:"status" validate:"omitempty,oneof=upcoming pending paid overdue deferred"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

func (req patchPaymentRequest) patch() (core.Patch, error) {
	if err := validateStruct(req); err != nil {
		return core.Patch{}, err
	}
	var pt core.Patch
	pt.PayeeName = req.PayeeName
	pt.Notes = req.Notes
	if req.Amount != nil {
		amount := core.Yen(*req.Amount)
		pt.Amount = &amount
	}
	if req.DueDate != nil {
		due, err := core.ParseDate(*req.DueDate)
		if err != nil {
			return core.Patch{}, core.Invalid("due_date", core.ErrMissingDate)
		}
		pt.DueDate = &due
	}
	if req.PaymentType != nil {
		t := core.PaymentType(*req.PaymentType)
		pt.Type = &t
	}
	if req.PaymentMethod != nil {
		m := core.PaymentMethod(*req.PaymentMethod)
		pt.Method = &m
	}
	if req.Status != nil {
		st := core.Status(*req.Status)
		pt.Status = &st
	}
	if pt.Empty() {
		return core.Patch{}, badRequest("patch changes nothing")
	}
	return pt, nil
}

type deferRequest struct {
	PlannedPaymentDate string `json:"planned_payment_date" validate:"required,datetime=2006-01-02"`
	Reason             string `json:"reason" validate:"required,max=500"`
}

func (req deferRequest) parse() (core.Date, string, error) {
	if err := validateStruct(req); err != nil {
		return core.Date{}, "", err
	}
	planned, err := core.ParseDate(req.PlannedPaymentDate)
	if err != nil {
		return core.Date{}, "", core.Invalid("planned_payment_date", core.ErrMissingDate)
	}
	return planned, req.Reason, nil
}

type rescheduleRequest struct {
	PlannedPaymentDate string `json:"planned_payment_date" validate:"required,datetime=2006-01-02"`
}

func (req rescheduleRequest) parse() (core.Date, error) {
	if err := validateStruct(req); err != nil {
		return core.Date{}, err
	}
	planned, err := core.ParseDate(req.PlannedPaymentDate)
	if err != nil {
		return core.Date{}, core.Invalid("planned_payment_date", core.ErrMissingDate)
	}
	return planned, nil
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming pending paid overdue deferred"`
}

func (req statusRequest) parse() (core.Status, error) {
	if err := validateStruct(req); err != nil {
		return "", err
	}
	return core.Status(req.Status), nil
}
