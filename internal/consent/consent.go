// Package consent asks the peer for its assent before each file and reads its
// verdict once the body has been sent.
package consent

import (
	"strings"

	"multiput/internal/protocol"
)

type Decision struct {
	Accepted bool
	Reason   string // peer text when not accepted
}

// Negotiator is the part of the codec consent needs.
type Negotiator interface {
	WriteFileOffer(name string) error
	ReadResponse() (string, error)
}

// RequestConsent offers filename to the peer and waits for its answer.
// The offer is accepted only when the peer replies "attiva", in any case.
func RequestConsent(n Negotiator, filename string) (Decision, error) {
	if err := n.WriteFileOffer(filename); err != nil {
		return Decision{}, err
	}
	response, err := n.ReadResponse()
	if err != nil {
		return Decision{}, err
	}
	return decide(response, protocol.RespAccept), nil
}

// Acknowledgement reads the peer verdict for a transferred body.
func Acknowledgement(n Negotiator) (Decision, error) {
	response, err := n.ReadResponse()
	if err != nil {
		return Decision{}, err
	}
	return decide(response, protocol.RespOK), nil
}

func decide(response string, positive string) Decision {
	if strings.EqualFold(response, positive) {
		return Decision{Accepted: true}
	}
	return Decision{Reason: response}
}
