// Package netif lists the local network interfaces and the addresses assigned
// to them.
package netif

import (
	"context"
	"net"

	psnet "github.com/shirou/gopsutil/v3/net"
	log "github.com/sirupsen/logrus"
)

// Address is an assigned address together with the prefix length of its network.
type Address struct {
	IP     net.IP
	Prefix int
}

// Interface is one local network interface.
type Interface struct {
	Name string
	V4   []Address
	V6   []Address
	// Gateway is nil when the platform query does not report one.
	Gateway net.IP
}

// Lister returns the local interface table.
type Lister interface {
	List(ctx context.Context) ([]Interface, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context) ([]Interface, error)

func (f ListerFunc) List(ctx context.Context) ([]Interface, error) {
	return f(ctx)
}

// System queries the operating system for its interfaces.
type System struct{}

func (System) List(ctx context.Context) ([]Interface, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return FromStats(stats), nil
}

// FromStats converts gopsutil interface stats into the interface table.
// Addresses that are not in CIDR form are skipped.
func FromStats(stats psnet.InterfaceStatList) []Interface {
	interfaces := make([]Interface, 0, len(stats))
	for _, stat := range stats {
		iface := Interface{Name: stat.Name}
		for _, addr := range stat.Addrs {
			ip, ipnet, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				log.Debugf("Skipping address %q on %s: %s", addr.Addr, stat.Name, err)
				continue
			}
			ones, _ := ipnet.Mask.Size()
			if ip4 := ip.To4(); ip4 != nil {
				iface.V4 = append(iface.V4, Address{IP: ip4, Prefix: ones})
			} else {
				iface.V6 = append(iface.V6, Address{IP: ip, Prefix: ones})
			}
		}
		interfaces = append(interfaces, iface)
	}
	return interfaces
}
