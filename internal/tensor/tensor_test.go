package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := Shape{1, 224, 224, 3}

	assert.Equal(t, 150528, s.Size())
	assert.Equal(t, "(1,224,224,3)", s.String())
	assert.True(t, s.Equal(Shape{1, 224, 224, 3}))
	assert.False(t, s.Equal(Shape{1, 224, 224}))
	assert.False(t, s.Equal(Shape{1, 224, 224, 1}))
	assert.Equal(t, 0, Shape{}.Size())
}

func TestNew(t *testing.T) {
	t.Run("accepts matching data", func(t *testing.T) {
		tn, err := New(Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		assert.Equal(t, Shape{2, 3}, tn.Shape)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := New(Shape{2, 3}, []float32{1, 2})
		assert.Error(t, err)
	})

	t.Run("rejects non-positive dimension", func(t *testing.T) {
		_, err := New(Shape{0, 3}, nil)
		assert.Error(t, err)
	})
}

func TestBatch(t *testing.T) {
	tn, err := New(Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	second, err := tn.Batch(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2}, second.Shape)
	assert.Equal(t, []float32{3, 4}, second.Data)

	_, err = tn.Batch(2)
	assert.Error(t, err)
}

func TestMinMax(t *testing.T) {
	lo, hi := Tensor{Data: []float32{0.5, 0, 1, 0.25}}.MinMax()
	assert.Equal(t, float32(0), lo)
	assert.Equal(t, float32(1), hi)
}
