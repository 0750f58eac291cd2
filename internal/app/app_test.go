package app

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/internal/config"
	"worklane/pkg/participation"
	"worklane/pkg/task"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{Store: config.StoreMemory, Timezone: "UTC"}
	cfg.Grouping = config.GroupingConfig{GroupLimit: 50, DefaultPageSize: 20, MaxPageSize: 100, Parallelism: 4}
	return cfg
}

func TestBuildOverMemoryStores(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	s, err := OpenStores(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()

	log, _ := test.NewNullLogger()
	rt, err := Build(cfg, s, log)
	require.NoError(t, err)
	assert.Equal(t, "closed", rt.Members.State())

	space, err := s.Spaces.CreateSpace(ctx, "ws1", "ops")
	require.NoError(t, err)
	list, err := s.Spaces.CreateList(ctx, space.ID, "oncall")
	require.NoError(t, err)
	_, err = s.Spaces.AddParticipant(ctx, space.ID, "m1", participation.Regular)
	require.NoError(t, err)

	sc := participation.Scope{WorkspaceID: "ws1", ListID: list.ID, MemberID: "m1"}
	ctx, _, err = rt.Gate.Authorize(ctx, sc)
	require.NoError(t, err)
	created, err := rt.Engine.CreateTask(ctx, sc, task.CreateInput{Name: "rotate keys"})
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, created.Status)
}

func TestOpenStoresRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store = "sqlite"
	_, err := OpenStores(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildRejectsBadTimezone(t *testing.T) {
	cfg := memoryConfig()
	cfg.Timezone = "Mars/Olympus"
	s, err := OpenStores(context.Background(), cfg)
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	_, err = Build(cfg, s, log)
	assert.Error(t, err)
}
