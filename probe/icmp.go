package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

var echoPayload = []byte("netscan-echo")

// ICMP probes with a single ICMP echo request sent from this process.
//
// The privileged variant uses a raw socket and usually needs root. The
// unprivileged variant uses a datagram ICMP socket, which linux only allows
// for groups listed in net.ipv4.ping_group_range.
type ICMP struct {
	network string
	id      int
	seq     uint32
}

func NewICMP() *ICMP {
	return &ICMP{network: "ip4:icmp", id: os.Getpid() & 0xffff}
}

func NewUnprivilegedICMP() *ICMP {
	return &ICMP{network: "udp4", id: os.Getpid() & 0xffff}
}

func (p *ICMP) datagram() bool {
	return p.network == "udp4"
}

func (p *ICMP) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	conn, err := icmp.ListenPacket(p.network, "0.0.0.0")
	if err != nil {
		return false, err
	}
	defer conn.Close()

	seq := int(atomic.AddUint32(&p.seq, 1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: echoPayload,
		},
	}
	data, err := msg.Marshal(nil)
	if err != nil {
		return false, err
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if p.datagram() {
		dst = &net.UDPAddr{IP: ip}
	}
	if _, err := conn.WriteTo(data, dst); err != nil {
		// the kernel refused to route the packet, nobody will answer
		return false, nil
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return false, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return false, nil
			}
			return false, err
		}
		// datagram sockets have their echo ID rewritten by the kernel
		if isEchoReply(buf[:n], peer, ip, p.id, seq, !p.datagram()) {
			return true, nil
		}
	}
}

// isEchoReply reports whether data is the echo reply from ip to the request
// identified by id and seq.
func isEchoReply(data []byte, peer net.Addr, ip net.IP, id, seq int, checkID bool) bool {
	msg, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), data)
	if err != nil || msg.Type != ipv4.ICMPTypeEchoReply {
		return false
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		return false
	}
	if checkID && echo.ID != id {
		return false
	}
	if echo.Seq != seq {
		return false
	}
	return addrIP(peer).Equal(ip)
}

func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	}
	return nil
}
