package store

import (
	"fmt"
	"sync"
	"time"
)

type FileTransfer struct {
	FileInfo         FileInfo
	Status           TransferStatus
	BytesTransferred int64
	StartTime        time.Time
	LastUpdateTime   time.Time
	Reason           string
	Error            error
	speed            float64
	Progress         float64
}

// Speed is the most recent throughput sample in bytes per second.
func (t FileTransfer) Speed() float64 {
	return t.speed
}

// Ledger records every file a session attempted, in the order they were offered.
// The record is only read for reporting and never alters how later files are handled.
type Ledger struct {
	mu        sync.Mutex
	order     []string
	transfers map[string]*FileTransfer // keyed by file name, unique within a directory
}

func NewLedger() *Ledger {
	return &Ledger{
		transfers: make(map[string]*FileTransfer),
	}
}

func (l *Ledger) CreateTransfer(info FileInfo) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	transferKey := info.Filename
	if _, exists := l.transfers[transferKey]; !exists {
		l.order = append(l.order, transferKey)
	}
	now := time.Now()
	l.transfers[transferKey] = &FileTransfer{
		FileInfo:       info,
		Status:         PENDING,
		StartTime:      now,
		LastUpdateTime: now,
	}
	return transferKey
}

func (l *Ledger) UpdateTransferProgress(transferID string, bytestransferred int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	transfer, exists := l.transfers[transferID]
	if !exists {
		return fmt.Errorf("transfer not found %s", transferID)
	}

	now := time.Now()
	timediff := now.Sub(transfer.LastUpdateTime).Seconds()
	if timediff > 0 {
		transfer.speed = float64(bytestransferred-transfer.BytesTransferred) / timediff
	}
	transfer.LastUpdateTime = now
	transfer.BytesTransferred = bytestransferred
	if transfer.FileInfo.Size > 0 {
		transfer.Progress = float64(bytestransferred) / float64(transfer.FileInfo.Size) * 100
	} else {
		transfer.Progress = 100
	}
	transfer.Status = TRANSFERRING
	return nil
}

func (l *Ledger) CompleteTransfer(transferID string) (Outcome, error) {
	return l.finish(transferID, func(t *FileTransfer) {
		t.Progress = 100
		t.Status = COMPLETED
	})
}

func (l *Ledger) RejectTransfer(transferID string, reason string) (Outcome, error) {
	return l.finish(transferID, func(t *FileTransfer) {
		t.Status = REJECTED
		t.Reason = reason
	})
}

func (l *Ledger) FailTransfer(transferID string, err error) (Outcome, error) {
	return l.finish(transferID, func(t *FileTransfer) {
		t.Status = FAILED
		t.Error = err
	})
}

func (l *Ledger) finish(transferID string, update func(*FileTransfer)) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	transfer, exists := l.transfers[transferID]
	if !exists {
		return Outcome{}, fmt.Errorf("transfer not found %s", transferID)
	}
	update(transfer)
	transfer.LastUpdateTime = time.Now()
	return outcomeOf(transfer), nil
}

// Get returns a snapshot of one transfer.
func (l *Ledger) Get(transferID string) (FileTransfer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	transfer, exists := l.transfers[transferID]
	if !exists {
		return FileTransfer{}, false
	}
	return *transfer, true
}

// Outcomes lists the finished transfers in the order they were created.
// Transfers still pending or in flight are left out.
func (l *Ledger) Outcomes() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	outcomes := make([]Outcome, 0, len(l.order))
	for _, key := range l.order {
		transfer := l.transfers[key]
		switch transfer.Status {
		case COMPLETED, REJECTED, FAILED:
			outcomes = append(outcomes, outcomeOf(transfer))
		}
	}
	return outcomes
}

func outcomeOf(t *FileTransfer) Outcome {
	outcome := Outcome{File: t.FileInfo}
	switch t.Status {
	case COMPLETED:
		outcome.Kind = Uploaded
	case REJECTED:
		outcome.Kind = Rejected
		outcome.Reason = t.Reason
	default:
		outcome.Kind = TransferError
		outcome.Err = t.Error
	}
	return outcome
}
