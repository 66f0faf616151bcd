package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string   `json:"name" validate:"required,notblank,max=5"`
	Tags  []string `json:"tags" validate:"dive,max=3"`
	Inner *inner   `json:"inner,omitempty"`
}

type inner struct {
	Mode string `validate:"omitempty,oneof=a b"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		input sample
		want  []Violation
	}{
		{
			name:  "valid",
			input: sample{Name: "ok", Tags: []string{"a"}},
			want:  nil,
		},
		{
			name:  "blank name",
			input: sample{Name: "   "},
			want:  []Violation{{Field: "name", Rule: "notblank"}},
		},
		{
			name:  "missing name",
			input: sample{},
			want:  []Violation{{Field: "name", Rule: "required"}},
		},
		{
			name:  "slice element too long",
			input: sample{Name: "ok", Tags: []string{"a", "abcd"}},
			want:  []Violation{{Field: "tags[1]", Rule: "max", Param: "3"}},
		},
		{
			name:  "nested field falls back to go name",
			input: sample{Name: "ok", Inner: &inner{Mode: "c"}},
			want:  []Violation{{Field: "inner.Mode", Rule: "oneof", Param: "a b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Struct(&tt.input))
		})
	}
}

func TestGet_ReturnsSharedInstance(t *testing.T) {
	assert.Same(t, Get(), Get())
}
