package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPF(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123.456.789-01", true},
		{"000.000.000-00", true},
		{"12345678901", false},
		{"123.456.789/01", false},
		{"123.456.78901", false},
		{" 123.456.789-01", false},
		{"123.456.789-01 ", false},
		{"abc.def.ghi-jk", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CPF(tt.input))
		})
	}
}

func TestCNPJ(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"12.345.678/0001-90", true},
		{"12345678000190", false},
		{"12.345.678-0001-90", false},
		{"123.456.789-01", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CNPJ(tt.input))
		})
	}
}

func TestEmail(t *testing.T) {
	got, ok := Email("  Maria@Farm.COM.br ")
	assert.True(t, ok)
	assert.Equal(t, "maria@farm.com.br", got)

	_, ok = Email("not-an-email")
	assert.False(t, ok)

	_, ok = Email("")
	assert.False(t, ok)

	_, ok = Email(strings.Repeat("a", 250) + "@x.com")
	assert.False(t, ok)
}

func TestText(t *testing.T) {
	got, ok := Text("  hello  ", 1, 5)
	assert.True(t, ok)
	assert.Equal(t, "hello", got)

	_, ok = Text("hi", 3, 10)
	assert.False(t, ok)

	// multi-byte characters count once
	_, ok = Text(strings.Repeat("ç", 5), 5, 5)
	assert.True(t, ok)
}

func TestCoordinates(t *testing.T) {
	assert.True(t, Latitude(-23.55))
	assert.False(t, Latitude(90.01))
	assert.True(t, Longitude(-46.63))
	assert.False(t, Longitude(-180.5))
}
