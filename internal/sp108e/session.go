package sp108e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

const (
	DefaultHost    = "192.168.4.1"
	DefaultPort    = 8189
	DefaultTimeout = 5 * time.Second

	maxResponse = 4096
)

// Session is one long-lived TCP connection to a controller. It is not
// reconnected: any socket error is final.
//
// Usage:
//
//	s, err := sp108e.Dial(ctx, "192.168.4.1", 8189, sp108e.WithMaxSegment(900))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	if _, err := s.SendCommand(sp108e.PreviewPacket()); err != nil {
//	    return err
//	}
type Session struct {
	conn net.Conn
	opts options

	ack        [AckBufSize]byte
	mismatches atomic.Uint64
	closed     atomic.Bool
}

type options struct {
	timeout time.Duration
	maxSeg  int
	strict  bool
	log     zerolog.Logger
}

func defaultOptions() options {
	return options{
		timeout: DefaultTimeout,
		strict:  true,
		log:     zerolog.Nop(),
	}
}

// Option configures a Session.
type Option func(*options)

// WithTimeout bounds each send/receive. Zero blocks forever.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMaxSegment hints TCP_MAXSEG before connecting. The hint is best effort
// and the session never relies on segment boundaries.
func WithMaxSegment(n int) Option {
	return func(o *options) { o.maxSeg = n }
}

// WithStrictAck makes an unexpected acknowledgment byte a protocol error.
// When off, mismatches are logged and counted.
func WithStrictAck(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Dial resolves host, connects, and disables Nagle's algorithm.
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fault.ErrResolve, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", fault.ErrResolve, host)
	}
	ip := addrs[0].IP
	for _, a := range addrs {
		if a.IP.To4() != nil {
			ip = a.IP
			break
		}
	}
	addr := net.JoinHostPort(ip.String(), strconv.Itoa(port))

	o.log.Debug().Str("host", host).Str("addr", addr).Int("max_seg", o.maxSeg).Msg("connecting")
	d := net.Dialer{Timeout: o.timeout, Control: segmentControl(o.maxSeg, o.log)}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", fault.ErrSocket, addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: TCP_NODELAY: %w", fault.ErrSocket, err)
		}
	}
	o.log.Info().Str("addr", addr).Msg("connected")
	return &Session{conn: conn, opts: o}, nil
}

// NewSession wraps an established connection.
func NewSession(conn net.Conn, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{conn: conn, opts: o}
}

func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Mismatches counts acknowledgments that were not AckOK in lenient mode.
func (s *Session) Mismatches() uint64 { return s.mismatches.Load() }

// Send writes a command that gets no reply.
func (s *Session) Send(pkt []byte) error {
	return s.write(pkt)
}

// SendCommand writes pkt and waits for the acknowledgment byte.
func (s *Session) SendCommand(pkt []byte) (byte, error) {
	if err := s.write(pkt); err != nil {
		return 0, err
	}
	return s.readAck()
}

// SendFrame writes the whole frame, then waits for the acknowledgment.
func (s *Session) SendFrame(frame []byte) (byte, error) {
	if err := s.write(frame); err != nil {
		return 0, err
	}
	return s.readAck()
}

// Request writes pkt and returns whatever the controller answers in one read.
func (s *Session) Request(pkt []byte) ([]byte, error) {
	return s.request(pkt, 1)
}

// request keeps reading until atLeast reply bytes have arrived.
func (s *Session) request(pkt []byte, atLeast int) ([]byte, error) {
	if err := s.write(pkt); err != nil {
		return nil, err
	}
	buf := make([]byte, maxResponse)
	s.deadline()
	n, err := io.ReadAtLeast(s.conn, buf, atLeast)
	if err != nil {
		return nil, fmt.Errorf("%w: recv: %w", fault.ErrSocket, err)
	}
	return buf[:n], nil
}

// DeviceName asks for the controller's name.
func (s *Session) DeviceName() (string, error) {
	b, err := s.Request(DeviceNamePacket())
	if err != nil {
		return "", err
	}
	return string(bytes.Trim(b, "\x00")), nil
}

// Status asks for and decodes the controller state.
func (s *Session) Status() (*Status, error) {
	b, err := s.request(SyncPacket(), statusLen)
	if err != nil {
		return nil, err
	}
	return ParseStatus(b)
}

// Interrupt unblocks any pending send or receive. It is safe to call from
// another goroutine, including concurrently with Close.
func (s *Session) Interrupt() {
	if s == nil || s.closed.Load() {
		return
	}
	_ = s.conn.SetDeadline(time.Now())
}

// Close closes the connection once; later calls return nil.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

func (s *Session) deadline() {
	if s.opts.timeout > 0 {
		_ = s.conn.SetDeadline(time.Now().Add(s.opts.timeout))
	}
}

// write loops until all of b is out; a short write is never assumed to be
// the whole packet.
func (s *Session) write(b []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("%w: session closed", fault.ErrSocket)
	}
	s.deadline()
	for len(b) > 0 {
		n, err := s.conn.Write(b)
		if err != nil {
			return fmt.Errorf("%w: send: %w", fault.ErrSocket, err)
		}
		b = b[n:]
	}
	return nil
}

func (s *Session) readAck() (byte, error) {
	s.deadline()
	n, err := io.ReadAtLeast(s.conn, s.ack[:], 1)
	if err != nil {
		return 0, fmt.Errorf("%w: recv ack: %w", fault.ErrSocket, err)
	}
	ack := s.ack[0]
	if ack == AckOK {
		return ack, nil
	}
	if s.opts.strict {
		return ack, fmt.Errorf("%w: ack 0x%02x, want 0x%02x", fault.ErrProtocol, ack, AckOK)
	}
	s.mismatches.Add(1)
	s.opts.log.Warn().Hex("ack", s.ack[:n]).Msg("unexpected acknowledgment")
	return ack, nil
}
