package netdrv

import (
	"testing"

	"gvisor.dev/gvisor/pkg/tcpip"
)

func TestSendThenRecvRoundTrips(t *testing.T) {
	l := New()
	s, err := l.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 16)
	n, err := s.Recv(buf)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Recv = %q, want %q", buf[:n], "hello")
	}
}

func TestStatusReflectsConnectAndBufferedData(t *testing.T) {
	l := New()
	s, _ := l.Create()

	if s.Status().Active {
		t.Fatal("a fresh socket must not be active")
	}
	if err := s.Connect(tcpip.Address{}, 80); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !s.Status().Active || !s.Status().CanSend {
		t.Fatal("a connected socket must be active and sendable")
	}
	if s.Status().CanRecv {
		t.Fatal("CanRecv must be false with no buffered data")
	}
	s.Send([]byte("x"))
	if !s.Status().CanRecv {
		t.Fatal("CanRecv must become true once data is buffered")
	}
}

func TestCloseRejectsFurtherUse(t *testing.T) {
	l := New()
	s, _ := l.Create()
	if err := l.Close(s); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Send([]byte("x")); err == nil {
		t.Fatal("expected Send on a closed socket to fail")
	}
}
