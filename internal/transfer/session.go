package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"multiput/internal/consent"
	apperrors "multiput/internal/errors"
	"multiput/internal/protocol"
	"multiput/internal/store"
)

type Options struct {
	Dialer   Dialer   // TCPDialer when nil
	Reporter Reporter // results are dropped when nil
	Logger   *logrus.Entry
	// Progress receives a byte progress bar per file body; nil disables bars.
	Progress io.Writer
}

// Session uploads the files of one directory to one peer over one connection.
// A Session is run once.
type Session struct {
	id        string
	endpoint  Endpoint
	dir       string
	threshold int64

	dialer   Dialer
	reporter Reporter
	log      *logrus.Entry
	progress io.Writer

	state  State
	ledger *store.Ledger
}

func NewSession(endpoint Endpoint, dir string, threshold int64, opts Options) (*Session, error) {
	if !ValidPort(endpoint.Port) || endpoint.IP == nil {
		return nil, apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "session",
			fmt.Sprintf("invalid peer endpoint %s", endpoint), nil)
	}
	if threshold < 0 {
		return nil, apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "session",
			fmt.Sprintf("invalid size threshold %d (<0)", threshold), nil)
	}
	if err := checkSourceDir(dir); err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.New().String(),
		endpoint:  endpoint,
		dir:       dir,
		threshold: threshold,
		dialer:    opts.Dialer,
		reporter:  opts.Reporter,
		progress:  opts.Progress,
		state:     Connecting,
		ledger:    store.NewLedger(),
	}
	if s.dialer == nil {
		s.dialer = TCPDialer{}
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = logger.WithFields(logrus.Fields{
		"session": s.id,
		"peer":    endpoint.String(),
	})
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) setState(state State) {
	s.log.WithField("state", state).Debugf("%s -> %s", s.state, state)
	s.state = state
}

// Run lists the directory, offers each eligible file in listing order and shuts
// the connection down. ctx bounds only the dial; once connected the session runs
// to completion or to a fatal error. A non-nil error is always an AppError; the
// returned Report then holds the outcomes recorded before the failure.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	report := &Report{Session: s.id}

	// NewSession already read the directory; failing here means it changed since.
	files, err := ListSource(s.dir)
	if err != nil {
		s.setState(Failed)
		return report, err
	}
	if len(files) == 0 {
		s.log.Infof("Empty directory %s, nothing to transfer", s.dir)
		s.setState(Closed)
		s.reporter.Empty(s.dir)
		return report, nil
	}

	conn, err := s.dialer.Dial(ctx, s.endpoint)
	if err != nil {
		s.log.Errorf("Failed to connect to peer : %v", err)
		s.setState(Failed)
		return report, apperrors.Fatal(apperrors.ErrConnection, "session",
			fmt.Sprintf("failed to connect to %s", s.endpoint), err)
	}
	defer func() {
		if s.state != Closed {
			conn.Close()
		}
	}()
	s.log.Infof("Successfully connected to the peer : %s", s.endpoint)
	s.setState(Negotiating)

	codec := protocol.NewCodec(conn)
	for _, file := range files {
		if !file.Eligible(s.threshold) {
			s.log.WithField("file", file.Filename).Debugf("Skipping, %d bytes below threshold %d", file.Size, s.threshold)
			continue
		}
		if err := s.put(codec, file); err != nil {
			s.setState(Failed)
			report.Outcomes = s.ledger.Outcomes()
			return report, err
		}
	}

	err = s.close(conn, codec, report)
	report.Outcomes = s.ledger.Outcomes()
	if err != nil {
		s.setState(Failed)
		return report, err
	}
	return report, nil
}

// put runs one offer/length/body/ack exchange. Only session-fatal errors are
// returned; everything else ends up in the ledger.
func (s *Session) put(codec *protocol.Codec, file store.FileInfo) error {
	log := s.log.WithField("file", file.Filename)
	transferkey := s.ledger.CreateTransfer(file)

	decision, err := consent.RequestConsent(codec, file.Filename)
	if err != nil {
		log.Warnf("Offer failed, skipping file : %v", err)
		s.done(s.ledger.FailTransfer(transferkey, apperrors.NewError(
			apperrors.ErrFileTransfer, apperrors.WARNING, "session", "offer failed", err)))
		return nil
	}
	if !decision.Accepted {
		log.Infof("Peer refused the file : %s", decision.Reason)
		s.done(s.ledger.RejectTransfer(transferkey, decision.Reason))
		return nil
	}

	s.setState(Sending)
	if err := s.send(codec, transferkey, file); err != nil {
		log.Errorf("Transfer aborted : %v", err)
		s.done(s.ledger.FailTransfer(transferkey, err))
		return err
	}

	s.setState(AwaitingAck)
	ack, err := consent.Acknowledgement(codec)
	s.setState(Negotiating)
	if err != nil {
		log.Warnf("No acknowledgement from peer : %v", err)
		s.done(s.ledger.FailTransfer(transferkey, apperrors.NewError(
			apperrors.ErrFileTransfer, apperrors.WARNING, "session", "acknowledgement failed", err)))
		return nil
	}
	if !ack.Accepted {
		log.Infof("Peer reported an error for the file : %s", ack.Reason)
		s.done(s.ledger.RejectTransfer(transferkey, ack.Reason))
		return nil
	}
	log.Infof("%s - sent successfully", file.Filename)
	s.done(s.ledger.CompleteTransfer(transferkey))
	return nil
}

// send writes the length header and exactly file.Size bytes. Any failure leaves
// the peer waiting for bytes it will never get, so every error here is fatal.
func (s *Session) send(codec *protocol.Codec, transferkey string, file store.FileInfo) error {
	f, err := os.Open(file.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.Fatal(apperrors.ErrFileNotFound, "session",
				fmt.Sprintf("file %s no longer exists", file.Filename), err)
		}
		return apperrors.Fatal(apperrors.ErrIO, "session",
			fmt.Sprintf("cannot open %s", file.Filename), err)
	}
	defer f.Close()

	if err := codec.WriteLength(file.Size); err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "codec", "length header not sent", err)
	}

	progress := io.Writer(&ledgerProgress{ledger: s.ledger, key: transferkey})
	if s.progress != nil {
		bar := progressbar.NewOptions64(file.Size,
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription(file.Filename),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		progress = io.MultiWriter(progress, bar)
	}

	sent, err := codec.StreamBody(f, file.Size, progress)
	if err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "codec",
			fmt.Sprintf("body of %s interrupted after %d of %d bytes", file.Filename, sent, file.Size), err)
	}
	return nil
}

// close half-closes the output, reads the completion message into report and
// releases the connection. The completion message is reported as soon as it
// arrives, even if the rest of the shutdown fails.
func (s *Session) close(conn Conn, codec *protocol.Codec, report *Report) error {
	s.setState(Closing)
	if err := codec.Flush(); err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "session", "flush before shutdown", err)
	}
	if err := conn.CloseWrite(); err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "session", "shutdown output", err)
	}
	completion, err := codec.ReadResponse()
	if err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "session", "no completion message from peer", err)
	}
	report.Completion = completion
	s.reporter.Completed(completion)

	if err := conn.CloseRead(); err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "session", "shutdown input", err)
	}
	if err := conn.Close(); err != nil {
		return apperrors.Fatal(apperrors.ErrIO, "session", "close connection", err)
	}
	s.setState(Closed)
	s.log.Info("Connection closed")
	return nil
}

func (s *Session) done(outcome store.Outcome, err error) {
	if err != nil {
		s.log.Errorf("Ledger out of sync : %v", err)
		return
	}
	s.reporter.FileDone(outcome)
}

type ledgerProgress struct {
	ledger *store.Ledger
	key    string
	total  int64
}

func (p *ledgerProgress) Write(b []byte) (int, error) {
	p.total += int64(len(b))
	p.ledger.UpdateTransferProgress(p.key, p.total)
	return len(b), nil
}
