package netif

import (
	"context"
	"net"
	"testing"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStats(t *testing.T) {
	stats := psnet.InterfaceStatList{
		{
			Name: "lo",
			Addrs: psnet.InterfaceAddrList{
				{Addr: "127.0.0.1/8"},
				{Addr: "::1/128"},
			},
		},
		{
			Name: "eth0",
			Addrs: psnet.InterfaceAddrList{
				{Addr: "192.168.1.20/24"},
				{Addr: "10.8.0.2/30"},
				{Addr: "fe80::1c2b:3ff:fe4d:5e6f/64"},
				{Addr: "garbage"},
			},
		},
		{Name: "tun0"},
	}

	ifaces := FromStats(stats)
	require.Len(t, ifaces, 3)

	assert.Equal(t, "lo", ifaces[0].Name)
	require.Len(t, ifaces[0].V4, 1)
	assert.True(t, ifaces[0].V4[0].IP.Equal(net.ParseIP("127.0.0.1")))
	assert.Equal(t, 8, ifaces[0].V4[0].Prefix)
	require.Len(t, ifaces[0].V6, 1)
	assert.Equal(t, 128, ifaces[0].V6[0].Prefix)

	eth0 := ifaces[1]
	require.Len(t, eth0.V4, 2)
	assert.Equal(t, "192.168.1.20", eth0.V4[0].IP.String())
	assert.Equal(t, 24, eth0.V4[0].Prefix)
	assert.Equal(t, "10.8.0.2", eth0.V4[1].IP.String())
	assert.Equal(t, 30, eth0.V4[1].Prefix)
	require.Len(t, eth0.V6, 1)
	assert.Equal(t, 64, eth0.V6[0].Prefix)
	assert.Nil(t, eth0.Gateway)

	assert.Empty(t, ifaces[2].V4)
	assert.Empty(t, ifaces[2].V6)
}

func TestListerFunc(t *testing.T) {
	want := []Interface{{Name: "eth0"}}
	var lister Lister = ListerFunc(func(ctx context.Context) ([]Interface, error) {
		return want, nil
	})

	got, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
