package discovery

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hubEntry(instance string, text []string, ips ...string) *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{}
	entry.Instance = instance
	entry.HostName = "gateway.local."
	entry.Port = DefaultPort
	entry.Text = text
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		if parsed.To4() != nil {
			entry.AddrIPv4 = append(entry.AddrIPv4, parsed)
		} else {
			entry.AddrIPv6 = append(entry.AddrIPv6, parsed)
		}
	}
	return entry
}

func TestEntryToHub(t *testing.T) {
	entry := hubEntry("lab-17", []string{"NW=lab", "CH=17", "PV=1"}, "192.168.1.20", "fe80::1")

	svc := entryToHub(entry)
	require.NotNil(t, svc)
	assert.Equal(t, "lab-17", svc.InstanceName)
	assert.Equal(t, "gateway.local.", svc.Host)
	assert.Equal(t, uint16(DefaultPort), svc.Port)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, svc.Addresses)
	assert.Equal(t, "lab", svc.Network)
	assert.Equal(t, byte(0x17), svc.Channel)

	addr, err := svc.UDPAddr()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:41794", addr)

	assert.Nil(t, entryToHub(hubEntry("bad", []string{"NW=lab"})))
}

func TestUDPAddrWithoutAddresses(t *testing.T) {
	_, err := (&HubService{Port: 1}).UDPAddr()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	addrs := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "10.0.0.2"})
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, addrs)

	addrs = removeAddresses(addrs, hubEntry("lab-17", nil, "10.0.0.1"))
	assert.Equal(t, []string{"10.0.0.2"}, addrs)
}

func TestStoppedBrowser(t *testing.T) {
	b, err := NewMDNSBrowser(DefaultBrowserConfig())
	require.NoError(t, err)
	b.Stop()

	_, err = b.BrowseHubs(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = b.FindHub(context.Background(), "lab")
	assert.Error(t, err)
}

func TestStopUnknownHub(t *testing.T) {
	a, err := NewMDNSAdvertiser(AdvertiserConfig{})
	require.NoError(t, err)
	assert.ErrorIs(t, a.StopHub("lab"), ErrNotFound)
	a.StopAll()
}
