package scan

import (
	"net"

	"github.com/liamg/netscan/netif"
	"github.com/liamg/netscan/scanerr"
)

// Resolve decides which range to scan for ip.
//
// If ip is assigned to a local interface, the interface's own prefix wins and
// any explicit prefix or mask is ignored. Otherwise prefix is used if set, then
// mask. With neither, the target cannot be resolved.
func Resolve(ip net.IP, prefix *int, mask net.IP, interfaces []netif.Interface) (AddressRange, error) {
	if ip == nil {
		return AddressRange{}, scanerr.New(scanerr.CodeInvalidAddress, "IP provided is not valid")
	}
	if ip.To4() == nil {
		return AddressRange{}, scanerr.NewWithTarget(scanerr.CodeNotSupported, "IPv6 scanning is not supported", ip.String())
	}

	if _, addr, ok := FindAssigned(ip, interfaces); ok {
		return NewAddressRange(ip, addr.Prefix)
	}

	if prefix != nil {
		return NewAddressRange(ip, *prefix)
	}

	if mask != nil {
		ones, err := MaskToPrefix(mask)
		if err != nil {
			return AddressRange{}, err
		}
		return NewAddressRange(ip, ones)
	}

	return AddressRange{}, scanerr.NewWithTarget(
		scanerr.CodeUnresolvableTarget,
		"machine is not assigned the provided IP; provide a network prefix length or subnet mask",
		ip.String(),
	)
}

// FindAssigned returns the interface and IPv4 address matching ip, if any.
func FindAssigned(ip net.IP, interfaces []netif.Interface) (netif.Interface, netif.Address, bool) {
	for _, iface := range interfaces {
		for _, addr := range iface.V4 {
			if addr.IP.Equal(ip) {
				return iface, addr, true
			}
		}
	}
	return netif.Interface{}, netif.Address{}, false
}

// MaskToPrefix converts a contiguous IPv4 subnet mask such as 255.255.255.128
// into its prefix length.
func MaskToPrefix(mask net.IP) (int, error) {
	if mask == nil {
		return 0, scanerr.New(scanerr.CodeInvalidMask, "missing subnet mask")
	}
	mask4 := mask.To4()
	if mask4 == nil {
		return 0, scanerr.NewWithTarget(scanerr.CodeNotSupported, "IPv6 subnet masks are not supported", mask.String())
	}
	ones, bits := net.IPMask(mask4).Size()
	if bits == 0 {
		return 0, scanerr.NewWithTarget(scanerr.CodeInvalidMask, "subnet mask is not contiguous", mask.String())
	}
	return ones, nil
}
