package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/depchain/pkg/safeconv"
)

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), safeconv.MustIntToUint32(0))
	assert.Equal(t, uint32(4096), safeconv.MustIntToUint32(4096))
	assert.Equal(t, safeconv.MaxUint32, safeconv.MustIntToUint32(math.MaxUint32))

	assert.Panics(t, func() { safeconv.MustIntToUint32(-1) })
	assert.Panics(t, func() { safeconv.MustIntToUint32(math.MaxUint32 + 1) })
}

func TestMustInt64ToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), safeconv.MustInt64ToUint64(0))
	assert.Equal(t, uint64(math.MaxInt64), safeconv.MustInt64ToUint64(math.MaxInt64))

	assert.Panics(t, func() { safeconv.MustInt64ToUint64(-1) })
}
