package fbclient

import (
	"github.com/veyronfb/fbwire/internal/logger"
	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// EventUpdate is one decoded counter update returned by WaitForEvent;
// end-of-stream and failures are reported through its error result.
type EventUpdate struct {
	EventID int32
	Counts  map[string]uint32
}

// WaitForEvent blocks on ch until it can return one decoded op_event
// frame, an end-of-stream fberr.DisconnectByPeer (a value, not a
// pointer), or an I/O error.
// op_dummy frames are already absorbed by readOpcode.
func WaitForEvent(ch *wire.Channel) (*EventUpdate, error) {
	op, err := readOpcode(ch)
	if err != nil {
		return nil, err
	}

	switch op {
	case wire.OpExit, wire.OpDisconnect:
		return nil, fberr.DisconnectByPeer{}

	case wire.OpEvent:
		frame, err := readOpEvent(ch)
		if err != nil {
			return nil, err
		}
		logger.Debug("received event frame", logger.Opcode(int32(op)))
		return &EventUpdate{EventID: frame.EventID, Counts: frame.Counts}, nil

	default:
		return nil, &fberr.InternalError{Op: "wait_for_event", Got: int32(op), Want: int32(wire.OpEvent)}
	}
}

// RunEventLoop calls WaitForEvent repeatedly on the calling goroutine (it
// starts no goroutine itself), delivering each update on updates until ch's stream
// ends or fails, at which point it sends the terminal error on errs and
// returns. Callers own both channels and should range over updates while
// selecting on errs.
func RunEventLoop(ch *wire.Channel, updates chan<- *EventUpdate, errs chan<- error) {
	for {
		ev, err := WaitForEvent(ch)
		if err != nil {
			errs <- err
			return
		}
		updates <- ev
	}
}
