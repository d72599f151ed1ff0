package svc

import (
	"gvisor.dev/gvisor/pkg/tcpip"

	"github.com/rpi3kernel/core/internal/netsock"
	"github.com/rpi3kernel/core/internal/proc"
	"github.com/rpi3kernel/core/internal/trap"
)

func (t *Table) sockCreate(core int, tf *trap.Frame) {
	p, ok := t.Sched.Get(core, tf.Pid())
	if !ok {
		tf.SetErr(uint64(NoEntry))
		return
	}
	s, err := t.Net.Create()
	if err != nil {
		tf.SetErr(uint64(IoError))
		return
	}
	desc := p.AddSocket(netsock.Handle{Sock: s})
	tf.SetResult(desc, 0, 0, 0)
	tf.SetErr(uint64(Ok))
}

func (t *Table) socket(core int, tf *trap.Frame) (*proc.Process, *netsock.Handle, bool) {
	p, ok := t.Sched.Get(core, tf.Pid())
	if !ok {
		tf.SetErr(uint64(NoEntry))
		return nil, nil, false
	}
	h, ok := p.Socket(tf.Arg(0))
	if !ok || h.Sock == nil {
		tf.SetErr(uint64(InvalidSocket))
		return nil, nil, false
	}
	return p, h, true
}

func (t *Table) sockStatus(core int, tf *trap.Frame) {
	_, h, ok := t.socket(core, tf)
	if !ok {
		return
	}
	st := h.Sock.Status()
	tf.SetResult(boolToU64(st.Active), boolToU64(st.Listening), boolToU64(st.CanSend), boolToU64(st.CanRecv))
	tf.SetErr(uint64(Ok))
}

func (t *Table) sockConnect(core int, tf *trap.Frame) {
	_, h, ok := t.socket(core, tf)
	if !ok {
		return
	}
	if h.Used {
		tf.SetErr(uint64(IllegalSocketOperation))
		return
	}
	ipBE, port := tf.Arg(1), tf.Arg(2)
	ephemeral, ok := t.Ports.Ephemeral()
	if !ok {
		tf.SetErr(uint64(NoEntry))
		return
	}
	addr := beToAddress(ipBE)
	if err := h.Sock.Connect(addr, uint16(port)); err != nil {
		t.Ports.Erase(ephemeral)
		tf.SetErr(uint64(IoError))
		return
	}
	h.Port = ephemeral
	h.Used = true
	tf.SetErr(uint64(Ok))
}

func (t *Table) sockListen(core int, tf *trap.Frame) {
	_, h, ok := t.socket(core, tf)
	if !ok {
		return
	}
	if h.Used {
		tf.SetErr(uint64(IllegalSocketOperation))
		return
	}
	port := uint16(tf.Arg(1))
	if !t.Ports.Set(port) {
		tf.SetErr(uint64(InvalidArgument))
		return
	}
	if err := h.Sock.Listen(port); err != nil {
		t.Ports.Erase(port)
		tf.SetErr(uint64(IoError))
		return
	}
	h.Port = port
	h.Used = true
	tf.SetErr(uint64(Ok))
}

func (t *Table) sockSend(core int, tf *trap.Frame) {
	p, h, ok := t.socket(core, tf)
	if !ok {
		return
	}
	va, length := tf.Arg(1), tf.Arg(2)
	if !validateUserSlice(va, length) {
		tf.SetErr(uint64(BadAddress))
		return
	}
	data, err := p.Vmap.ReadAt(va, int(length))
	if err != nil {
		tf.SetErr(uint64(BadAddress))
		return
	}
	n, err := h.Sock.Send(data)
	if err != nil {
		tf.SetErr(uint64(IoError))
		return
	}
	tf.SetResult(uint64(n), 0, 0, 0)
	tf.SetErr(uint64(Ok))
}

func (t *Table) sockRecv(core int, tf *trap.Frame) {
	p, h, ok := t.socket(core, tf)
	if !ok {
		return
	}
	va, length := tf.Arg(1), tf.Arg(2)
	if !validateUserSlice(va, length) {
		tf.SetErr(uint64(BadAddress))
		return
	}
	buf := make([]byte, length)
	n, err := h.Sock.Recv(buf)
	if err != nil {
		tf.SetErr(uint64(IoError))
		return
	}
	if werr := p.Vmap.WriteAt(va, buf[:n]); werr != nil {
		tf.SetErr(uint64(BadAddress))
		return
	}
	tf.SetResult(uint64(n), 0, 0, 0)
	tf.SetErr(uint64(Ok))
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// beToAddress converts the big-endian-packed u32 IPv4 address sock_connect
// receives into a tcpip.Address.
func beToAddress(ipBE uint64) tcpip.Address {
	var b [4]byte
	b[0] = byte(ipBE >> 24)
	b[1] = byte(ipBE >> 16)
	b[2] = byte(ipBE >> 8)
	b[3] = byte(ipBE)
	return tcpip.AddrFrom4(b)
}
