package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

// DeviceFacts collects identity facts (hostname, model, OS version) from a
// device. Read-only, safe to run against the whole fleet.
type DeviceFacts struct{}

func (o *DeviceFacts) Kind() string { return KindDeviceFacts }

func (o *DeviceFacts) Run(ctx context.Context, sess ports.Session, _ domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	emit.Emit("info", "collecting device facts")
	out, err := sess.Run(ctx, "show version")
	if err != nil {
		return nil, fmt.Errorf("show version failed: %w", err)
	}

	facts := ParseVersionOutput(out)
	if len(facts) == 0 {
		return nil, fmt.Errorf("unrecognized version output from %s", sess.Target())
	}
	emit.Emit("info", fmt.Sprintf("facts collected: %v", facts["hostname"]))
	return facts, nil
}

// ParseVersionOutput extracts "Key: value" pairs from `show version`-style
// output. Exported for reuse by the validation suite.
func ParseVersionOutput(out string) domain.JSONB {
	facts := domain.JSONB{}
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "hostname":
			facts["hostname"] = value
		case "model":
			facts["model"] = value
		case "junos", "version":
			facts["version"] = value
		case "serial number":
			facts["serial_number"] = value
		}
	}
	return facts
}
