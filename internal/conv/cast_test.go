package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64ToInt(t *testing.T) {
	v, err := Uint64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint64ToInt64(t *testing.T) {
	tests := []struct {
		in      uint64
		want    int64
		wantErr bool
	}{
		{in: 0, want: 0},
		{in: math.MaxInt64 - 1, want: math.MaxInt64 - 1},
		{in: math.MaxInt64, wantErr: true},
		{in: math.MaxUint64, wantErr: true},
	}
	for _, tt := range tests {
		got, err := Uint64ToInt64(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrOverflow)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
