package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentByChoice(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMethod
		ok   bool
	}{
		{"1", PaymentCash, true},
		{" 2 ", PaymentTransfer, true},
		{"3", PaymentCard, true},
		{"9", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := PaymentByChoice(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestFileSafeName(t *testing.T) {
	assert.Equal(t, "Ana_María_Pérez", Customer{Name: "Ana María Pérez"}.FileSafeName())
	assert.Equal(t, "cliente", Customer{}.FileSafeName())
}
