package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteDSN_BusyTimeout(t *testing.T) {
	assert.Equal(t, "data.db?_pragma=busy_timeout(5000)", sqliteDSN("data.db"))
	assert.Equal(t, "file:data.db?mode=rwc&_pragma=busy_timeout(5000)", sqliteDSN("file:data.db?mode=rwc"))
	assert.Equal(t, "data.db?_pragma=busy_timeout(100)", sqliteDSN("data.db?_pragma=busy_timeout(100)"))
}
