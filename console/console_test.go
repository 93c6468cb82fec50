package console

import (
	"context"
	"strings"
	"testing"

	"github.com/citysim/simcore/wcmd"
)

type fakeExecutor struct {
	received []wcmd.Command
	fail     bool
}

func (f *fakeExecutor) Execute(cmd wcmd.Command) error {
	if f.fail {
		return errFake
	}
	f.received = append(f.received, cmd)
	return nil
}

var errFake = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "fake failure" }

func TestConsoleDispatchesRecognizedCommand(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, nil).WithReader(strings.NewReader("say hello world\n"))
	c.Run(context.Background())

	if len(exec.received) != 1 {
		t.Fatalf("expected 1 command executed, got %d", len(exec.received))
	}
	msg, ok := exec.received[0].(wcmd.SendMessage)
	if !ok {
		t.Fatalf("expected SendMessage, got %T", exec.received[0])
	}
	if msg.Message != "hello world" {
		t.Fatalf("expected joined message, got %q", msg.Message)
	}
}

func TestConsoleSkipsUnknownCommand(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, nil).WithReader(strings.NewReader("frobnicate foo\n"))
	c.Run(context.Background())

	if len(exec.received) != 0 {
		t.Fatalf("expected no commands executed for unknown name, got %d", len(exec.received))
	}
}

func TestConsoleRejectsMalformedArgsWithoutExecuting(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, nil).WithReader(strings.NewReader("connect not-a-vec 0,0,0\n"))
	c.Run(context.Background())

	if len(exec.received) != 0 {
		t.Fatalf("expected malformed command to be rejected before execution")
	}
}

func TestConsoleParsesConnectIntoMapMakeConnection(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, nil).WithReader(strings.NewReader("connect 0,0,0 100,0,0 2 2\n"))
	c.Run(context.Background())

	if len(exec.received) != 1 {
		t.Fatalf("expected 1 command executed, got %d", len(exec.received))
	}
	conn, ok := exec.received[0].(wcmd.MapMakeConnection)
	if !ok {
		t.Fatalf("expected MapMakeConnection, got %T", exec.received[0])
	}
	if len(conn.Pattern.LanesForward) != 2 || len(conn.Pattern.LanesBackward) != 2 {
		t.Fatalf("expected 2 lanes each direction, got %+v", conn.Pattern)
	}
}
