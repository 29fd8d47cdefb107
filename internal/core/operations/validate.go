package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

// validationChecks are the named health checks a suite can run. Each maps to
// one read-only command and a predicate over its output.
var validationChecks = map[string]struct {
	command string
	passed  func(out string) bool
}{
	"interfaces": {
		command: "show interfaces terse",
		passed: func(out string) bool {
			return !strings.Contains(out, "down") && strings.TrimSpace(out) != ""
		},
	},
	"bgp": {
		command: "show bgp summary",
		passed: func(out string) bool {
			return strings.Contains(out, "Established")
		},
	},
	"alarms": {
		command: "show system alarms",
		passed: func(out string) bool {
			return strings.Contains(out, "No alarms")
		},
	},
}

// ValidationSuite runs a set of read-only health checks against each device.
// A target succeeds when every requested check passes. The suite allows
// partial success: validating a fleet is useful even when some devices are
// unreachable, so the task succeeds as long as one target completed — the
// per-target breakdown carries the rest.
type ValidationSuite struct{}

func (o *ValidationSuite) Kind() string { return KindValidationSuite }

func (o *ValidationSuite) AllowPartial() bool { return true }

func (o *ValidationSuite) Run(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	requested := checkNames(params)

	results := domain.JSONB{}
	failedChecks := 0
	for _, name := range requested {
		check, ok := validationChecks[name]
		if !ok {
			return nil, fmt.Errorf("validation_suite: unknown check %q", name)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		emit.Emit("info", fmt.Sprintf("running check %q", name))
		out, err := sess.Run(ctx, check.command)
		if err != nil {
			results[name] = domain.JSONB{"passed": false, "error": err.Error()}
			failedChecks++
			emit.Emit("error", fmt.Sprintf("check %q errored: %v", name, err))
			continue
		}
		passed := check.passed(out)
		results[name] = domain.JSONB{"passed": passed}
		if !passed {
			failedChecks++
			emit.Emit("warn", fmt.Sprintf("check %q failed", name))
		} else {
			emit.Emit("info", fmt.Sprintf("check %q passed", name))
		}
	}

	summary := domain.JSONB{
		"checks": results,
		"total":  len(requested),
		"failed": failedChecks,
	}
	if failedChecks > 0 {
		return summary, fmt.Errorf("%d of %d checks failed", failedChecks, len(requested))
	}
	return summary, nil
}

// checkNames returns the requested check names, defaulting to all known
// checks in a stable order.
func checkNames(params domain.JSONB) []string {
	if params != nil {
		if raw, ok := params["checks"].([]interface{}); ok && len(raw) > 0 {
			names := make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					names = append(names, s)
				}
			}
			if len(names) > 0 {
				return names
			}
		}
	}
	return []string{"interfaces", "bgp", "alarms"}
}
