package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKindOfRoundTrip(t *testing.T) {
	kinds := []Kind{Efficiency, Origin, Table, Coffee, Laptop, Human,
		Proxemics, BetweenObjects, Learned}

	for _, kind := range kinds {
		parsed, err := KindOf(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := KindOf("gravity")
	assert.Error(t, err)
}

func TestSortedNames(t *testing.T) {
	centers := ObjectCenters{
		Object2Key:      mat.NewVecDense(3, nil),
		HumanCenterKey:  mat.NewVecDense(3, nil),
		Object1Key:      mat.NewVecDense(3, nil),
		LaptopCenterKey: mat.NewVecDense(3, nil),
	}

	assert.Equal(t, []string{HumanCenterKey, LaptopCenterKey, Object1Key,
		Object2Key}, centers.SortedNames())
}
