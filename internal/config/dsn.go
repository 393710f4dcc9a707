package config

import (
	"net"
	"net/url"
	"strconv"
)

// hostPort joins host and port, bracketing IPv6 hosts.
func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// urlEscape keeps passwords like "pa:ss@word" from breaking the DSN.
func urlEscape(s string) string {
	return url.QueryEscape(s)
}
