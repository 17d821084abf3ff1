package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single broker",
			input:    []string{"localhost:9092"},
			expected: []string{"localhost:9092"},
		},
		{
			name:     "trims whitespace",
			input:    []string{" kafka-1:9092 ", "kafka-2:9092  ", "  kafka-3:9092"},
			expected: []string{"kafka-1:9092", "kafka-2:9092", "kafka-3:9092"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"a:9092", "b:9092", "a:9092", "c:9092", "b:9092"},
			expected: []string{"a:9092", "b:9092", "c:9092"},
		},
		{
			name:     "removes empty elements from trailing commas",
			input:    []string{"a:9092", "", "  ", "b:9092"},
			expected: []string{"a:9092", "b:9092"},
		},
		{
			name:     "preserves case",
			input:    []string{"Broker", "broker"},
			expected: []string{"Broker", "broker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
