package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	entries, err := Migrations.ReadDir(".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_users.sql", "00002_health_records.sql"}, names)
}

func TestHealthRecords_OwnerKeyDoesNotCascade(t *testing.T) {
	b, err := Migrations.ReadFile("00002_health_records.sql")
	require.NoError(t, err)
	sql := strings.ToUpper(string(b))

	assert.Contains(t, sql, "REFERENCES USERS (ID)")
	assert.NotContains(t, sql, "ON DELETE CASCADE")
}
