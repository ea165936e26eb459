package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+7 (912) 345-67-89", "+79123456789"},
		{"8 912 345 67 89", "+79123456789"},
		{"79123456789", "+79123456789"},
		{"+39 02 1234 5678", "+390212345678"},
		{"12345", ""},
		{"", ""},
		{"call me maybe", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), "input %q", tc.in)
	}
}
