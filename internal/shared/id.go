package shared

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Company IDs are short nanoids over a lowercase alphanumeric alphabet
const (
	companyIDAlphabet = "0123456789abcdefghijklmnopqrst"
	companyIDLength   = 10
)

// NewCompanyID generates a new company identifier
func NewCompanyID() (string, error) {
	return gonanoid.Generate(companyIDAlphabet, companyIDLength)
}
