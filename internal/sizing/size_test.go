package sizing

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestEnd(t *testing.T) {
	t.Parallel()

	end, err := End(8, 80, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, int64(88), end)

	_, err = End(math.MaxUint64, 1, errOverflow)
	require.ErrorIs(t, err, errOverflow)

	_, err = End(math.MaxInt64, 1, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}

func TestToInt(t *testing.T) {
	t.Parallel()

	n, err := ToInt(42, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ToInt(math.MaxUint64, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("x"), 16)

	got, err := ReadAllWithLimit(bytes.NewReader(data), 16, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = ReadAllWithLimit(bytes.NewReader(data), 15, errOverflow)
	require.ErrorIs(t, err, errOverflow)

	got, err = ReadAllWithLimit(bytes.NewReader(data), 0, errOverflow)
	require.NoError(t, err)
	assert.Len(t, got, 16)
}
