package admin

import (
	"fmt"
	"net"
	"strings"

	"github.com/hashicorp/go-sockaddr"
	"github.com/spf13/pflag"
)

type Config struct {
	// BindAddr is the address to bind to listen for incoming HTTP
	// connections. If empty the admin server is disabled.
	BindAddr string `json:"bind_addr" yaml:"bind_addr"`

	// AdvertiseAddr is the address to advertise to operators, such as in
	// logs. Defaults to BindAddr, with the host resolved to a private IP if
	// BindAddr binds to all interfaces.
	AdvertiseAddr string `json:"advertise_addr" yaml:"advertise_addr"`
}

func (c *Config) Enabled() bool {
	return c.BindAddr != ""
}

func (c *Config) Validate() error {
	if c.BindAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.BindAddr); err != nil {
		return fmt.Errorf("invalid bind addr: %s: %w", c.BindAddr, err)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.BindAddr,
		"admin.bind-addr",
		"",
		`
The host/port to listen for incoming admin connections.

The admin server exposes Prometheus metrics on '/metrics', a health check on
'/health' and the node status on '/status'. The server is disabled if empty.

If the host is unspecified it defaults to all listeners, such as
'--admin.bind-addr :8081' will listen on '0.0.0.0:8081'.`,
	)
	fs.StringVar(
		&c.AdvertiseAddr,
		"admin.advertise-addr",
		"",
		`
Admin listen address to advertise.

If not given, defaults to the bind address. If the bind address does not
include an IP (such as ':8081') the nodes private IP will be used, such as a
bind address of ':8081' may have an advertise address of '10.26.104.14:8081'.`,
	)
}

// AdvertiseAddrFromBindAddr returns the address to advertise for the given
// bind address, resolving unspecified hosts to a private IP.
func AdvertiseAddrFromBindAddr(bindAddr string) (string, error) {
	if strings.HasPrefix(bindAddr, ":") {
		bindAddr = "0.0.0.0" + bindAddr
	}

	host, port, err := net.SplitHostPort(bindAddr)
	if err != nil {
		return "", fmt.Errorf("invalid bind addr: %s: %w", bindAddr, err)
	}

	if host == "0.0.0.0" {
		ip, err := sockaddr.GetPrivateIP()
		if err != nil {
			return "", fmt.Errorf("get interface addr: %w", err)
		}
		if ip == "" {
			return "", fmt.Errorf("no private ip found")
		}
		return ip + ":" + port, nil
	}
	return bindAddr, nil
}
