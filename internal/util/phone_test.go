package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMSISDN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"254712345678", "254712345678"},
		{"+254712345678", "254712345678"},
		{"00254712345678", "254712345678"},
		{"0712345678", "254712345678"},
		{"712345678", "254712345678"},
		{" 0712 345 678 ", "254712345678"},
		{"+254 (712) 345-678", "254712345678"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMSISDN(tt.in), "input %q", tt.in)
	}
}
