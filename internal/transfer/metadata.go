package transfer

import (
	"context"
	"fmt"
	"net"
	"strconv"

	apperrors "multiput/internal/errors"
	"multiput/internal/store"
)

// Endpoint is a resolved peer address.
type Endpoint struct {
	IP   net.IP
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP.String(), strconv.Itoa(e.Port))
}

// ValidPort reports whether port is above the reserved range and fits in 16 bits.
func ValidPort(port int) bool {
	return 1024 < port && port < 0x10000
}

// ResolveEndpoint checks the port and resolves host before any connection is attempted.
func ResolveEndpoint(ctx context.Context, host string, port int) (Endpoint, error) {
	if !ValidPort(port) {
		return Endpoint{}, apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "endpoint",
			fmt.Sprintf("invalid server port %d, must be in (1024, 65536)", port), nil)
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return Endpoint{}, apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "endpoint",
			fmt.Sprintf("cannot resolve server address %s", host), err)
	}
	if len(addrs) == 0 {
		return Endpoint{}, apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "endpoint",
			fmt.Sprintf("no address found for %s", host), nil)
	}
	return Endpoint{IP: addrs[0].IP, Port: port}, nil
}

type State int

const (
	Connecting State = iota
	Negotiating
	Sending
	AwaitingAck
	Closing
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Negotiating:
		return "negotiating"
	case Sending:
		return "sending"
	case AwaitingAck:
		return "awaiting-ack"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reporter receives the user-facing results of a session as they happen.
type Reporter interface {
	// Empty is called instead of anything else when the directory has no files.
	Empty(dir string)
	FileDone(outcome store.Outcome)
	// Completed carries the peer's final message, verbatim.
	Completed(message string)
}

type Report struct {
	Session    string
	Outcomes   []store.Outcome
	Completion string
}

// Count returns how many outcomes are of the given kind.
func (r *Report) Count(kind store.OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

type nopReporter struct{}

func (nopReporter) Empty(string) {}
func (nopReporter) FileDone(store.Outcome) {}
func (nopReporter) Completed(string) {}
