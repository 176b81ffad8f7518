package typesense

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medapp/medicine-catalog/pkg/config"
)

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "medicines", collectionName(""))
	assert.Equal(t, "medicines_v2", collectionName("medicines_v2"))
}

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("Skipping integration test")
	}

	client, err := NewClient(context.Background(), &config.TypesenseConfig{
		URL:    "http://localhost:8108",
		APIKey: "xyz",
	})
	require.NoError(t, err)
	assert.Equal(t, "medicines", client.Collection())
}
