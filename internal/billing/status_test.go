package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus(t *testing.T) {
	cases := []struct {
		paid, total, want string
	}{
		{"0", "100", StatusUnpaid},
		{"40", "100", StatusPartial},
		{"100", "100", StatusPaid},
		{"0", "0", StatusPaid},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PaymentStatus(d(tc.paid), d(tc.total)), "paid %s of %s", tc.paid, tc.total)
	}
}
