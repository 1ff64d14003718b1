// internal/models/common_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteStatusIsTerminal(t *testing.T) {
	assert.False(t, QuoteStatusDraft.IsTerminal())
	assert.False(t, QuoteStatusSent.IsTerminal())
	assert.True(t, QuoteStatusAccepted.IsTerminal())
	assert.True(t, QuoteStatusRejected.IsTerminal())
}

func TestAgreementStatusIsTerminal(t *testing.T) {
	assert.False(t, AgreementStatusDraft.IsTerminal())
	assert.False(t, AgreementStatusSent.IsTerminal())
	assert.True(t, AgreementStatusSigned.IsTerminal())
	assert.True(t, AgreementStatusDeclined.IsTerminal())
	assert.True(t, AgreementStatusExpired.IsTerminal())
}

func TestCustomerFullName(t *testing.T) {
	c := Customer{FirstName: "Pat", LastName: "Doyle"}
	assert.Equal(t, "Pat Doyle", c.FullName())

	c = Customer{FirstName: "Cher"}
	assert.Equal(t, "Cher", c.FullName())
}

func TestAddressFormattedLine(t *testing.T) {
	a := Address{
		Street:     "12 Elm St",
		City:       "Springfield",
		State:      "MA",
		PostalCode: "01101",
	}
	assert.Equal(t, "12 Elm St, Springfield, MA, 01101", a.FormattedLine())

	a.Formatted = "12 Elm Street, Springfield, MA 01101, USA"
	assert.Equal(t, "12 Elm Street, Springfield, MA 01101, USA", a.FormattedLine())
}

func TestAddressFormattedLineSkipsEmptyParts(t *testing.T) {
	a := Address{Street: "12 Elm St", PostalCode: "01101"}
	assert.Equal(t, "12 Elm St, 01101", a.FormattedLine())
}
