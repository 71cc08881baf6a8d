package scan

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/liamg/netscan/scanerr"
)

// AddressRange is an IPv4 CIDR block. The zero value is 0.0.0.0/0.
type AddressRange struct {
	network   uint32
	prefix    int
	hostsOnly bool
}

// NewAddressRange builds the block of the given prefix length that contains ip.
// The host bits of ip are discarded.
func NewAddressRange(ip net.IP, prefix int) (AddressRange, error) {
	if ip == nil {
		return AddressRange{}, scanerr.New(scanerr.CodeInvalidAddress, "missing IP address")
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return AddressRange{}, scanerr.NewWithTarget(scanerr.CodeNotSupported, "only IPv4 ranges can be scanned", ip.String())
	}
	if prefix < 0 || prefix > 32 {
		return AddressRange{}, scanerr.Newf(scanerr.CodeInvalidPrefix, "prefix length %d is outside [0, 32]", prefix)
	}
	return AddressRange{
		network: ipToUint32(ip4) & maskBits(prefix),
		prefix:  prefix,
	}, nil
}

// HostsOnly returns a copy of the range whose iteration skips the network and
// broadcast addresses. Blocks of /31 and /32 have neither, so they are unaffected.
func (r AddressRange) HostsOnly() AddressRange {
	r.hostsOnly = true
	return r
}

func (r AddressRange) Network() net.IP {
	return uint32ToIP(r.network)
}

func (r AddressRange) Prefix() int {
	return r.prefix
}

func (r AddressRange) Mask() net.IPMask {
	return net.CIDRMask(r.prefix, 32)
}

// Size is the number of addresses the iteration yields.
func (r AddressRange) Size() uint64 {
	size := uint64(1) << uint(32-r.prefix)
	if r.skipsEdges() {
		size -= 2
	}
	return size
}

// Contains reports whether ip is inside the block, edges included.
func (r AddressRange) Contains(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	return ipToUint32(ip4)&maskBits(r.prefix) == r.network
}

func (r AddressRange) String() string {
	return fmt.Sprintf("%s/%d", r.Network(), r.prefix)
}

func (r AddressRange) skipsEdges() bool {
	return r.hostsOnly && r.prefix <= 30
}

// Iterator returns a fresh traversal of the range in ascending order.
func (r AddressRange) Iterator() *RangeIterator {
	it := &RangeIterator{
		next: uint64(r.network),
		end:  uint64(r.network) + (uint64(1) << uint(32-r.prefix)),
	}
	if r.skipsEdges() {
		it.next++
		it.end--
	}
	return it
}

// RangeIterator walks an AddressRange. It is not safe for concurrent use.
type RangeIterator struct {
	next uint64
	end  uint64
}

// Next returns the next address, or io.EOF once the range is exhausted.
func (ri *RangeIterator) Next() (net.IP, error) {
	ip, err := ri.Peek()
	if err != nil {
		return nil, err
	}
	ri.next++
	return ip, nil
}

// Peek returns the address Next would return without advancing.
func (ri *RangeIterator) Peek() (net.IP, error) {
	if ri.next >= ri.end {
		return nil, io.EOF
	}
	return uint32ToIP(uint32(ri.next)), nil
}

func maskBits(prefix int) uint32 {
	if prefix == 0 {
		return 0
	}
	return ^uint32(0) << uint(32-prefix)
}

func ipToUint32(ip net.IP) uint32 {
	return binary.BigEndian.Uint32(ip.To4())
}

func uint32ToIP(u uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, u)
	return ip
}
