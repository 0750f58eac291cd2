package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/internal/config"
)

type fakeTable struct {
	name  string
	log   *[]string
	fails bool
}

func (f fakeTable) EnsureTable(context.Context) error {
	*f.log = append(*f.log, f.name)
	if f.fails {
		return errors.New("permission denied")
	}
	return nil
}

func TestEnsureSchemaOrderAndFailure(t *testing.T) {
	var log []string
	err := EnsureSchema(context.Background(),
		Named{"spaces", fakeTable{name: "spaces", log: &log}},
		Named{"tasks", fakeTable{name: "tasks", log: &log, fails: true}},
		Named{"activity", fakeTable{name: "activity", log: &log}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure tasks table")
	assert.Equal(t, []string{"spaces", "tasks"}, log)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), config.DatabaseConfig{URL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")
}
