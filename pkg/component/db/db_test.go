package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/paperqa/pkg/options/db"
)

func TestNewSQLiteInMemory(t *testing.T) {
	opts := options.NewOptions()
	opts.Path = ":memory:"

	db, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewUnsupportedDriver(t *testing.T) {
	opts := options.NewOptions()
	opts.Driver = "oracle"
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}
