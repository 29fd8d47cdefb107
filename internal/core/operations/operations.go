// Package operations holds the built-in units of work dispatched by the task
// runner. Each operation runs once per connected target and reports progress
// through the event sink handed to it.
package operations

import (
	"github.com/netfleet/backend/internal/core/services"
	"github.com/netfleet/backend/internal/domain"
)

const (
	KindConfigDeploy    = "config_deploy"
	KindConfigRollback  = "config_rollback"
	KindDeviceFacts     = "device_facts"
	KindPingTest        = "ping_test"
	KindCodeUpgrade     = "code_upgrade"
	KindValidationSuite = "validation_suite"
)

// RegisterBuiltins installs every built-in operation into the registry.
func RegisterBuiltins(reg *services.Registry) {
	reg.Register(&ConfigDeploy{})
	reg.Register(&ConfigRollback{})
	reg.Register(&DeviceFacts{})
	reg.Register(&PingTest{})
	reg.Register(&CodeUpgrade{})
	reg.Register(&ValidationSuite{})
}

func stringParam(params domain.JSONB, key, fallback string) string {
	if params == nil {
		return fallback
	}
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intParam(params domain.JSONB, key string, fallback int) int {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case int:
		return v
	case float64: // JSON numbers decode as float64
		return int(v)
	}
	return fallback
}

func boolParam(params domain.JSONB, key string, fallback bool) bool {
	if params == nil {
		return fallback
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}
