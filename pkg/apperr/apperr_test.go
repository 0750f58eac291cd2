package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinelsSurviveFurtherWrapping(t *testing.T) {
	err := fmt.Errorf("get task: %w", NotFound("task %s", "t1"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsForbidden(err))
	assert.Equal(t, "get task: not found: task t1", err.Error())

	assert.True(t, IsForbidden(Forbidden("member %s", "m1")))
	assert.True(t, IsBadRequest(BadRequest("limit must be positive")))
	assert.False(t, IsBadRequest(fmt.Errorf("plain")))
}
