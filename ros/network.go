package ros

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
)

func isLocalOnly(host string) bool {
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}

// determineHost returns the name other nodes should use to reach us and
// whether that name is only reachable from this machine.
func determineHost() (string, bool) {
	if rosHostname, ok := os.LookupEnv("ROS_HOSTNAME"); ok {
		return rosHostname, rosHostname == "localhost"
	}
	if rosIP, ok := os.LookupEnv("ROS_IP"); ok {
		return rosIP, isLocalOnly(rosIP)
	}
	if osHostname, err := os.Hostname(); err == nil && osHostname != "localhost" {
		return osHostname, false
	}
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				return ipnet.IP.String(), false
			}
		}
	}
	return "127.0.0.1", true
}

func listenRandomPort(address string, trialLimit int) (net.Listener, error) {
	var lastErr error
	for trial := 0; trial < trialLimit; trial++ {
		port := 1024 + rand.Intn(65535-1024)
		listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
		if err == nil {
			return listener, nil
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "no free port on %s after %d trials", address, trialLimit)
}
