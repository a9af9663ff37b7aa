package store

import "fmt"

type FileInfo struct {
	Filename string // name within the source directory
	Path     string // path used to open the file
	Size     int64  // bytes, snapshotted at listing time
}

// Eligible reports whether the file is large enough to be offered.
func (f FileInfo) Eligible(threshold int64) bool {
	return f.Size >= threshold
}

type TransferStatus int

const (
	PENDING TransferStatus = iota
	TRANSFERRING
	COMPLETED
	REJECTED
	FAILED
)

func (s TransferStatus) String() string {
	switch s {
	case PENDING:
		return "pending"
	case TRANSFERRING:
		return "transferring"
	case COMPLETED:
		return "completed"
	case REJECTED:
		return "rejected"
	case FAILED:
		return "failed"
	default:
		return fmt.Sprintf("TransferStatus(%d)", int(s))
	}
}

type OutcomeKind int

const (
	Uploaded OutcomeKind = iota
	Rejected
	TransferError
)

func (k OutcomeKind) String() string {
	switch k {
	case Uploaded:
		return "uploaded"
	case Rejected:
		return "rejected"
	case TransferError:
		return "transfer error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the per-file result of an attempted upload.
type Outcome struct {
	File   FileInfo
	Kind   OutcomeKind
	Reason string // peer text for Rejected
	Err    error  // cause for TransferError
}

func (o Outcome) String() string {
	switch o.Kind {
	case Rejected:
		return fmt.Sprintf("%s: rejected: %s", o.File.Filename, o.Reason)
	case TransferError:
		return fmt.Sprintf("%s: transfer error: %v", o.File.Filename, o.Err)
	default:
		return fmt.Sprintf("%s: %s", o.File.Filename, o.Kind)
	}
}
