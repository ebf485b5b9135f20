package greeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	got := Text("Jane")

	assert.Contains(t, got, "Hi Jane, thank you for your payment!")
	assert.Contains(t, got, "rate our service on a scale of 1 to 5")
}
