package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	apperrors "multiput/internal/errors"
	"multiput/internal/protocol"
	"multiput/internal/store"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var out, errOut bytes.Buffer
	code := run(context.Background(), append(args, "--quiet", "--log-level", "error"), &out, &errOut)
	return code, out.String(), errOut.String()
}

func dirWith(t *testing.T, files map[string]int) string {
	t.Helper()
	dir := t.TempDir()
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// refusingPeer answers every offer with "salta file" and closes with "done".
func refusingPeer(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, err := protocol.ReadUTF(conn)
			if errors.Is(err, io.EOF) {
				protocol.WriteUTF(conn, "done")
				return
			}
			if err != nil {
				return
			}
			protocol.WriteUTF(conn, protocol.RespSkip)
		}
	}()
	return strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
}

func TestPutArgumentErrors(t *testing.T) {
	dir := dirWith(t, map[string]int{"a.txt": 1})
	tests := []struct {
		name string
		args []string
	}{
		{"missing args", []string{"put", "127.0.0.1", "4000"}},
		{"port not a number", []string{"put", "127.0.0.1", "abc", dir, "0"}},
		{"port out of range", []string{"put", "127.0.0.1", "80", dir, "0"}},
		{"negative threshold", []string{"put", "127.0.0.1", "4000", dir, "-1"}},
		{"missing directory", []string{"put", "127.0.0.1", "4000", filepath.Join(dir, "nope"), "0"}},
		{"unknown transport", []string{"put", "127.0.0.1", "4000", dir, "0", "--transport", "sctp"}},
		{"unknown flag", []string{"put", "--bogus"}},
		{"unknown command", []string{"get"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			if code != apperrors.ExitArgs {
				t.Fatalf("exit %d, want %d (stderr %q)", code, apperrors.ExitArgs, errOut)
			}
		})
	}
}

func TestPutEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := runCLI(t, "put", "127.0.0.1", "4000", dir, "0")
	if code != apperrors.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "is empty") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestPutConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	listener.Close()

	code, _, _ := runCLI(t, "put", "127.0.0.1", port, dirWith(t, map[string]int{"a.txt": 1}), "0")
	if code != apperrors.ExitConnection {
		t.Fatalf("exit %d, want %d", code, apperrors.ExitConnection)
	}
}

func TestPutReportsRejections(t *testing.T) {
	port := refusingPeer(t)
	dir := dirWith(t, map[string]int{"a.txt": 50, "b.txt": 5})

	code, out, errOut := runCLI(t, "put", "127.0.0.1", port, dir, "10")
	if code != apperrors.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	want := "File a.txt not uploaded: salta file\ndone\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestConsoleReporter(t *testing.T) {
	var out bytes.Buffer
	r := consoleReporter{out: &out}
	r.FileDone(store.Outcome{File: store.FileInfo{Filename: "a.txt"}, Kind: store.Uploaded})
	r.FileDone(store.Outcome{File: store.FileInfo{Filename: "b.txt"}, Kind: store.TransferError, Err: io.ErrUnexpectedEOF})
	r.Completed("bye")

	want := "File a.txt uploaded.\nError sending b.txt: unexpected EOF\nbye\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestBindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("transport", "tcp", "")
	if err := flags.Parse([]string{"--transport", "quic"}); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := bindFlags(v, flags, map[string]string{"transport": "transport"}); err != nil {
		t.Fatal(err)
	}
	if got := v.GetString("transport"); got != "quic" {
		t.Fatalf("transport = %q, want quic", got)
	}
	if err := bindFlags(v, flags, map[string]string{"quiet": "quiet"}); err == nil {
		t.Fatal("expected error for an undefined flag")
	}
}
