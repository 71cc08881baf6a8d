package scan

import (
	"net"
	"strings"
	"time"

	"github.com/google/gopacket/macs"
	"github.com/mostlygeek/arp"
)

// HostDetails describes a reachable host for the detailed output.
type HostDetails struct {
	IP           net.IP
	Latency      time.Duration
	MAC          string
	Manufacturer string
	Name         string
}

// Describer looks up what the local machine knows about a reachable host: its
// MAC address from the ARP cache, the vendor registered for the MAC prefix, and
// its reverse DNS name.
type Describer struct {
	arpSearch  func(ip string) string
	lookupAddr func(addr string) ([]string, error)
}

func NewDescriber() *Describer {
	return &Describer{
		arpSearch:  arp.Search,
		lookupAddr: net.LookupAddr,
	}
}

func (d *Describer) Describe(outcome Outcome) HostDetails {
	details := HostDetails{
		IP:      outcome.Addr,
		Latency: outcome.Latency,
	}

	ip := outcome.Addr.String()

	macStr := d.arpSearch(ip)
	if macStr != "" && macStr != "00:00:00:00:00:00" {
		if mac, err := net.ParseMAC(macStr); err == nil {
			details.MAC = mac.String()

			prefix := [3]byte{
				mac[0],
				mac[1],
				mac[2],
			}

			if manufacturer, ok := macs.ValidMACPrefixMap[prefix]; ok {
				details.Manufacturer = manufacturer
			}
		}
	}

	if names, err := d.lookupAddr(ip); err == nil && len(names) > 0 {
		details.Name = strings.TrimSuffix(names[0], ".")
	}

	return details
}

// DescribeAll describes every reachable host of result in completion order.
func (d *Describer) DescribeAll(result Result) []HostDetails {
	details := make([]HostDetails, 0, len(result.Up))
	for _, outcome := range result.Up {
		details = append(details, d.Describe(outcome))
	}
	return details
}
