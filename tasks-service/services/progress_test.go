package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateProgress(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   int
	}{
		{"no tasks", nil, 0},
		{"single task", []int{40}, 40},
		{"three tasks", []int{0, 50, 100}, 50},
		{"two tasks after deletion", []int{0, 100}, 50},
		{"all done", []int{100, 100, 100}, 100},
		{"rounds half up", []int{0, 1}, 1},
		{"rounds down below half", []int{1, 0, 0}, 0},
		{"uneven mix", []int{10, 20, 35}, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AggregateProgress(tt.values))
		})
	}
}

// Recomputing over unchanged input must be idempotent.
func TestAggregateProgressIdempotent(t *testing.T) {
	values := []int{13, 87, 44, 99, 0}
	first := AggregateProgress(values)
	second := AggregateProgress(values)
	require.Equal(t, first, second)
}
