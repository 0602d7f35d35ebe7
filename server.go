package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	proxyproto "github.com/pires/go-proxyproto"

	"gitlab.com/caseproxy/caseproxy/internal/netutil"
)

type keepAliveListener struct {
	net.Listener
}

type keepAliveSetter interface {
	SetKeepAlive(bool) error
	SetKeepAlivePeriod(time.Duration) error
}

func (ln *keepAliveListener) Accept() (net.Conn, error) {
	conn, err := ln.Listener.Accept()
	if err != nil {
		return nil, err
	}

	if kc, ok := conn.(keepAliveSetter); ok {
		kc.SetKeepAlive(true)
		kc.SetKeepAlivePeriod(3 * time.Minute)
	}

	return conn, nil
}

// bindAddr resolves the configured host and picks an address to bind to,
// preferring IPv4 over IPv6 when the host resolves to both.
func bindAddr(host string, port int) (string, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("resolving %q: no addresses", host)
	}

	ip := addrs[0].IP
	for _, addr := range addrs {
		if addr.IP.To4() != nil {
			ip = addr.IP
			break
		}
	}

	return net.JoinHostPort(ip.String(), strconv.Itoa(port)), nil
}

func (a *theApp) createListener() (net.Listener, error) {
	general := a.config.General

	var listener net.Listener
	var err error

	if general.SocketPath != "" {
		listener, err = net.Listen("unix", general.SocketPath)
	} else {
		var addr string
		addr, err = bindAddr(general.Host, general.Port)
		if err != nil {
			return nil, err
		}

		listener, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	listener = &keepAliveListener{listener}

	if general.MaxConns > 0 {
		listener = netutil.LimitListener(listener, netutil.NewLimiter(general.MaxConns))
	}

	if general.ProxyProtocol {
		listener = &proxyproto.Listener{Listener: listener}
	}

	return listener, nil
}
