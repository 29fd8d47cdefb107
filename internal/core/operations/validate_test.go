package operations

import (
	"context"
	"testing"

	"github.com/netfleet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthySession() *fakeSession {
	sess := newFakeSession("10.0.0.1")
	sess.script["show interfaces terse"] = "ge-0/0/0 up up\nge-0/0/1 up up\n"
	sess.script["show bgp summary"] = "Peer 10.255.0.1 Established 1042\n"
	sess.script["show system alarms"] = "No alarms currently active\n"
	return sess
}

func TestValidationSuiteAllChecksPass(t *testing.T) {
	op := &ValidationSuite{}
	out, err := op.Run(context.Background(), healthySession(), nil, &recordSink{})
	require.NoError(t, err)

	assert.Equal(t, 3, out["total"])
	assert.Equal(t, 0, out["failed"])
	checks := out["checks"].(domain.JSONB)
	assert.Equal(t, domain.JSONB{"passed": true}, checks["interfaces"])
	assert.Equal(t, domain.JSONB{"passed": true}, checks["bgp"])
	assert.Equal(t, domain.JSONB{"passed": true}, checks["alarms"])
}

func TestValidationSuiteReportsFailedChecks(t *testing.T) {
	sess := healthySession()
	sess.script["show interfaces terse"] = "ge-0/0/0 up down\n"

	op := &ValidationSuite{}
	out, err := op.Run(context.Background(), sess, nil, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 checks failed")

	require.NotNil(t, out, "the breakdown comes back with the error")
	assert.Equal(t, 1, out["failed"])
	checks := out["checks"].(domain.JSONB)
	assert.Equal(t, domain.JSONB{"passed": false}, checks["interfaces"])
}

func TestValidationSuiteSelectedChecksOnly(t *testing.T) {
	sess := healthySession()

	op := &ValidationSuite{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{
		"checks": []interface{}{"bgp"},
	}, &recordSink{})
	require.NoError(t, err)

	assert.Equal(t, 1, out["total"])
	assert.False(t, sess.ran("show interfaces"), "unrequested checks are skipped")
}

func TestValidationSuiteUnknownCheck(t *testing.T) {
	op := &ValidationSuite{}
	_, err := op.Run(context.Background(), healthySession(), domain.JSONB{
		"checks": []interface{}{"magic"},
	}, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown check "magic"`)
}

func TestValidationSuiteAllowsPartialSuccess(t *testing.T) {
	op := &ValidationSuite{}
	assert.True(t, op.AllowPartial())
}
