package operations

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

var packetLossRe = regexp.MustCompile(`(\d+(?:\.\d+)?)% packet loss`)

// PingTest verifies reachability of a destination from each device. The
// operation fails for a target when every probe is lost.
type PingTest struct{}

func (o *PingTest) Kind() string { return KindPingTest }

func (o *PingTest) Run(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	destination := stringParam(params, "target", "8.8.8.8")
	count := intParam(params, "count", 5)
	if count < 1 || count > 100 {
		count = 5
	}

	emit.Emit("info", fmt.Sprintf("pinging %s (%d probes)", destination, count))
	out, err := sess.Run(ctx, fmt.Sprintf("ping %s count %d", destination, count))
	if err != nil {
		return nil, fmt.Errorf("ping command failed: %w", err)
	}

	loss, ok := ParsePacketLoss(out)
	if !ok {
		return nil, fmt.Errorf("could not parse ping output from %s", sess.Target())
	}
	emit.Emit("info", fmt.Sprintf("ping complete: %.0f%% packet loss", loss))

	result := domain.JSONB{
		"destination": destination,
		"probes":      count,
		"packet_loss": loss,
	}
	if loss >= 100 {
		return result, fmt.Errorf("destination %s unreachable: 100%% packet loss", destination)
	}
	return result, nil
}

// ParsePacketLoss extracts the loss percentage from ping output.
func ParsePacketLoss(out string) (float64, bool) {
	m := packetLossRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	loss, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return loss, true
}
