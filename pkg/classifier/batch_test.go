package classifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAll_PreservesOrder(t *testing.T) {
	c := newTestClassifier(t, testCategories())

	records := make([]Record, 0, 300)
	for i := 0; i < 100; i++ {
		records = append(records,
			Record{Name: fmt.Sprintf("Atenolol %dmg", i)},
			Record{Description: "ibuprofen"},
			Record{Name: fmt.Sprintf("Product %d", i)},
		)
	}

	results, err := c.ClassifyAll(context.Background(), records, 8)
	require.NoError(t, err)
	require.Len(t, results, len(records))

	for i, rec := range records {
		assert.Equal(t, c.Classify(rec), results[i], "record %d", i)
	}
}

func TestClassifyAll_DefaultWorkersAndEmptyInput(t *testing.T) {
	c := newTestClassifier(t, testCategories())

	results, err := c.ClassifyAll(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = c.ClassifyAll(context.Background(), []Record{{Name: "Insulin"}}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "insulin", results[0].CategorySlug)
}

func TestClassifyAll_Cancelled(t *testing.T) {
	c := newTestClassifier(t, testCategories())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := make([]Record, 1000)
	results, err := c.ClassifyAll(ctx, records, 1)
	// A cancelled context may still race the first sends; any error must be the context's.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, results)
	}
}
