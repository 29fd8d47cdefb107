package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/netfleet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDeployRequiresConfig(t *testing.T) {
	op := &ConfigDeploy{}
	_, err := op.Run(context.Background(), newFakeSession("10.0.0.1"), nil, &recordSink{})
	assert.ErrorIs(t, err, ErrConfigRequired)
}

func TestConfigDeployCommitsAndReturnsDiff(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["compare rollback 0"] = "+ set system host-name new-name\n"

	op := &ConfigDeploy{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{
		"config":  "set system host-name new-name",
		"comment": "rename",
	}, &recordSink{})
	require.NoError(t, err)

	assert.Equal(t, true, out["committed"])
	assert.Equal(t, "+ set system host-name new-name", out["diff"])
	assert.Equal(t, "rename", out["comment"])

	assert.True(t, sess.ran("configure exclusive"))
	assert.True(t, sess.ran("load set terminal\nset system host-name new-name"))
	assert.True(t, sess.ran("commit check"))
	assert.True(t, sess.ran(`commit comment "rename"`))
	assert.False(t, sess.ranExact("rollback 0"), "no rollback on the happy path")
}

func TestConfigDeployAbortsOnCommitCheckFailure(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.errors["commit check"] = errors.New("error: syntax error")

	op := &ConfigDeploy{}
	_, err := op.Run(context.Background(), sess, domain.JSONB{
		"config": "set bogus nonsense",
	}, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit check failed")

	assert.True(t, sess.ranExact("rollback 0"), "failed check must discard the candidate")
	assert.True(t, sess.ran("exit configuration-mode"))
}

func TestConfigDeployAbortsOnLoadFailure(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.errors["load set terminal"] = errors.New("error: unknown statement")

	op := &ConfigDeploy{}
	_, err := op.Run(context.Background(), sess, domain.JSONB{
		"config": "set bogus",
	}, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
	assert.True(t, sess.ranExact("rollback 0"))
}

func TestConfigRollbackHappyPath(t *testing.T) {
	sess := newFakeSession("10.0.0.1")

	op := &ConfigRollback{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{"rollback_id": float64(2)}, &recordSink{})
	require.NoError(t, err)

	assert.Equal(t, true, out["rolled_back"])
	assert.Equal(t, 2, out["rollback_id"])
	assert.True(t, sess.ran("rollback 2"))
	assert.True(t, sess.ran("commit comment"))
}

func TestConfigRollbackRejectsOutOfRangeID(t *testing.T) {
	op := &ConfigRollback{}
	_, err := op.Run(context.Background(), newFakeSession("10.0.0.1"),
		domain.JSONB{"rollback_id": float64(50)}, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
