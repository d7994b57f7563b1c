package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Date  string `json:"date" validate:"required,date_ymd"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"required,email"`
}

func TestValidate(t *testing.T) {
	ok := sample{Date: "2026-03-01", Phone: "081234567890", Email: "a@b.co"}
	assert.Nil(t, Validate(ok))

	bad := sample{Date: "01-03-2026", Phone: "12", Email: "nope"}
	errs := Validate(bad)
	assert.Equal(t, "date_ymd", errs["Date"])
	assert.Equal(t, "phone", errs["Phone"])
	assert.Equal(t, "email", errs["Email"])
}
