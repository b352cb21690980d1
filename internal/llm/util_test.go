package llm

import (
	"testing"
)

func TestCleanCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "python code block",
			input:    "```python\nimport art\nprint('hi')\n```",
			expected: "import art\nprint('hi')",
		},
		{
			name:     "generic code block",
			input:    "```\nimport art\n```",
			expected: "import art",
		},
		{
			name:     "plain code",
			input:    "import art\nprint('hi')",
			expected: "import art\nprint('hi')",
		},
		{
			name:     "surrounding whitespace",
			input:    "\n\n```python\nx = 1\n```\n\n",
			expected: "x = 1",
		},
		{
			name:     "fence inside code untouched",
			input:    "print('```')",
			expected: "print('```')",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanCodeBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanCodeBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}
