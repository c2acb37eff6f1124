package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/migrations"
)

func TestList_OrdersAndFilters(t *testing.T) {
	files := fstest.MapFS{
		"002_schedules.sql": {Data: []byte("SELECT 2;")},
		"001_init.sql":      {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("notes")},
		"old/003_x.sql":     {Data: []byte("SELECT 3;")},
	}

	got, err := List(files)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: "001", Name: "001_init.sql"},
		{Version: "002", Name: "002_schedules.sql"},
	}, got)
}

func TestList_RejectsDuplicateVersions(t *testing.T) {
	files := fstest.MapFS{
		"001_init.sql":  {Data: []byte("SELECT 1;")},
		"001_other.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := List(files)
	assert.ErrorContains(t, err, "share version 001")
}

func TestList_EmbeddedSchema(t *testing.T) {
	got, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "001", got[0].Version)
}
