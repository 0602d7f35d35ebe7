package netutil

import (
	"errors"
	"net"
	"sync"
	"time"

	"gitlab.com/caseproxy/caseproxy/metrics"
)

var errKeepaliveNotSupported = errors.New("keepalive not supported")

// LimitListener returns a Listener that accepts only as many simultaneous
// connections as the limiter permits. Based on
// https://godoc.org/golang.org/x/net/netutil
func LimitListener(listener net.Listener, limiter *Limiter) net.Listener {
	return &limitListener{
		Listener: listener,
		limiter:  limiter,
		done:     make(chan struct{}),
	}
}

// Limiter is a pool of connection slots. Use NewLimiter to create an
// instance.
type Limiter struct {
	sem chan struct{}
}

// NewLimiter creates a Limiter holding n connection slots.
func NewLimiter(n int) *Limiter {
	metrics.LimitListenerMaxConns.Set(float64(n))

	return &Limiter{
		sem: make(chan struct{}, n),
	}
}

type limitListener struct {
	net.Listener
	closeOnce sync.Once     // ensures the done chan is only closed once
	limiter   *Limiter      // the pool of connection slots
	done      chan struct{} // no values sent; closed when Close is called
}

// acquire acquires the limiting semaphore. Returns true if successfully
// acquired, false if the listener is closed and the semaphore is not
// acquired.
func (l *limitListener) acquire() bool {
	metrics.LimitListenerWaitingConns.Inc()
	defer metrics.LimitListenerWaitingConns.Dec()

	select {
	case <-l.done:
		return false
	case l.limiter.sem <- struct{}{}:
		metrics.LimitListenerConcurrentConns.Inc()
		return true
	}
}

func (l *limitListener) release() {
	<-l.limiter.sem
	metrics.LimitListenerConcurrentConns.Dec()
}

func (l *limitListener) Accept() (net.Conn, error) {
	acquired := l.acquire()
	// If the semaphore isn't acquired because the listener was closed, expect
	// that this call to accept won't block, but immediately return an error.
	c, err := l.Listener.Accept()
	if err != nil {
		if acquired {
			l.release()
		}
		return nil, err
	}

	// Support TCP Keepalive operations if possible
	tcpConn, _ := c.(*net.TCPConn)

	return &limitListenerConn{
		Conn:    c,
		tcpConn: tcpConn,
		release: l.release,
	}, nil
}

func (l *limitListener) Close() error {
	err := l.Listener.Close()
	l.closeOnce.Do(func() { close(l.done) })
	return err
}

type limitListenerConn struct {
	net.Conn
	tcpConn     *net.TCPConn
	releaseOnce sync.Once
	release     func()
}

func (c *limitListenerConn) Close() error {
	err := c.Conn.Close()
	c.releaseOnce.Do(c.release)
	return err
}

func (c *limitListenerConn) SetKeepAlive(enabled bool) error {
	if c.tcpConn == nil {
		return errKeepaliveNotSupported
	}

	return c.tcpConn.SetKeepAlive(enabled)
}

func (c *limitListenerConn) SetKeepAlivePeriod(period time.Duration) error {
	if c.tcpConn == nil {
		return errKeepaliveNotSupported
	}

	return c.tcpConn.SetKeepAlivePeriod(period)
}
