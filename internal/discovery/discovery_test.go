package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
)

func entry(host string, port int, v4, v6 []net.IP) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{}
	e.Instance = "strip"
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	return e
}

func TestEntryAddr(t *testing.T) {
	data := []struct {
		name string
		e    *zeroconf.ServiceEntry
		want string
		ok   bool
	}{
		{"ipv4 first", entry("pi.local.", 20200, []net.IP{net.ParseIP("192.168.1.20")}, []net.IP{net.ParseIP("fe80::1")}), "192.168.1.20:20200", true},
		{"ipv6", entry("pi.local.", 20200, nil, []net.IP{net.ParseIP("fe80::1")}), "[fe80::1]:20200", true},
		{"host name", entry("pi.local.", 20200, nil, nil), "pi.local:20200", true},
		{"nothing", entry("", 20200, nil, nil), "", false},
		{"no port", entry("pi.local.", 0, []net.IP{net.ParseIP("10.0.0.1")}, nil), "", false},
		{"nil", nil, "", false},
	}
	for _, line := range data {
		got, ok := entryAddr(line.e)
		assert.Equal(t, line.ok, ok, line.name)
		assert.Equal(t, line.want, got, line.name)
	}
}

func TestParseTXT(t *testing.T) {
	got := ParseTXT([]string{"leds=60", "type=addressable", "flag", "=x", "k=a=b"})
	assert.Equal(t, map[string]string{
		"leds": "60",
		"type": "addressable",
		"flag": "",
		"k":    "a=b",
	}, got)
}
