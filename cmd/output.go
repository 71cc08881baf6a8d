package cmd

import (
	"fmt"
	"io"

	"github.com/liamg/netscan/scan"
	"github.com/olekukonko/tablewriter"
)

func writeHosts(w io.Writer, result scan.Result) {
	for _, ip := range result.Hosts() {
		fmt.Fprintln(w, ip.String())
	}
}

func writeDetails(w io.Writer, details []scan.HostDetails) error {
	table := tablewriter.NewWriter(w)
	table.Header("IP", "Latency", "MAC", "Manufacturer", "Name")

	for _, host := range details {
		if err := table.Append([]string{
			host.IP.String(),
			host.Latency.String(),
			host.MAC,
			host.Manufacturer,
			host.Name,
		}); err != nil {
			return err
		}
	}

	return table.Render()
}
