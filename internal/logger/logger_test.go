// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{
			name: "passes ordinary keys",
			in:   []any{"entity", "itau", "pairs", 3},
			want: []any{"entity", "itau", "pairs", 3},
		},
		{
			name: "redacts credential keys",
			in:   []any{"source_token", "abc", "Authorization", "Bearer x", "project", "p1"},
			want: []any{"source_token", "[REDACTED]", "Authorization", "[REDACTED]", "project", "p1"},
		},
		{
			name: "keeps dangling key",
			in:   []any{"a", 1, "orphan"},
			want: []any{"a", 1, "orphan"},
		},
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New(types.LogConfig{Mode: "prod", Level: "warn"})
	require.NoError(t, err)
	l.Info("dropped below warn")
	l.With("analysis", "a1").Warn("kept")

	_, err = New(types.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
