// Package server implements a request/response protocol on top of libp2p
// streams. Requests are length-prefixed with an unsigned varint, responses
// are wrapped in a scale-encoded envelope carrying either data or an error
// string.
package server

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-varint"
	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/log"
)

const (
	maxResponseData  = 1 << 24 // 16 MiB
	maxResponseError = 1024
)

var (
	// ErrNotConnected is returned when peer is not connected.
	ErrNotConnected = errors.New("peer is not connected")
)

// Host is the subset of the libp2p host used by the server.
type Host interface {
	SetStreamHandler(protocol.ID, network.StreamHandler)
	NewStream(context.Context, peer.ID, ...protocol.ID) (network.Stream, error)
	Network() network.Network
}

// Opt is a type to configure a server.
type Opt func(s *Server)

// WithTimeout configures the stream i/o timeout.
func WithTimeout(timeout time.Duration) Opt {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithLog configures logger for the server.
func WithLog(logger *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRequestSizeLimit overrides the maximum accepted request size in bytes.
func WithRequestSizeLimit(limit int) Opt {
	return func(s *Server) {
		s.requestLimit = limit
	}
}

// WithMetrics will enable metrics collection in the server.
func WithMetrics() Opt {
	return func(s *Server) {
		s.metrics = newTracker(s.protocol)
	}
}

// WithQueueSize parametrizes the number of accepted streams that will be
// kept in queue and eventually processed by the server. Streams above that
// are closed immediately.
func WithQueueSize(size int) Opt {
	return func(s *Server) {
		s.queueSize = size
	}
}

// WithRequestsPerInterval parametrizes the server rate limit.
//
// Defaults to 100 requests per second.
func WithRequestsPerInterval(n int, interval time.Duration) Opt {
	return func(s *Server) {
		s.requestsPerInterval = n
		s.interval = interval
	}
}

// Handler is a handler to be defined by the application. It receives the
// remote peer that sent the request.
type Handler func(context.Context, peer.ID, []byte) ([]byte, error)

// ServerError is used by the client to represent an error returned by the
// remote handler.
type ServerError struct {
	msg string
}

func NewServerError(msg string) *ServerError {
	return &ServerError{msg: msg}
}

func (*ServerError) Is(target error) bool {
	_, ok := target.(*ServerError)
	return ok
}

func (err *ServerError) Error() string {
	return fmt.Sprintf("peer error: %s", err.msg)
}

// Response is a server response.
type Response struct {
	Data  []byte
	Error string
}

// EncodeScale implements scale codec interface.
func (r *Response) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, r.Data, maxResponseData)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStringWithLimit(enc, r.Error, maxResponseError)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *Response) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, maxResponseData)
		if err != nil {
			return total, err
		}
		total += n
		r.Data = field
	}
	{
		field, n, err := scale.DecodeStringWithLimit(dec, maxResponseError)
		if err != nil {
			return total, err
		}
		total += n
		r.Error = field
	}
	return total, nil
}

// Server for the Handler.
type Server struct {
	logger              *zap.Logger
	protocol            string
	handler             Handler
	timeout             time.Duration
	requestLimit        int
	queueSize           int
	requestsPerInterval int
	interval            time.Duration

	metrics *tracker // metrics can be nil

	h Host
}

// New server for the handler.
func New(h Host, proto string, handler Handler, opts ...Opt) *Server {
	srv := &Server{
		logger:              zap.NewNop(),
		protocol:            proto,
		handler:             handler,
		h:                   h,
		timeout:             25 * time.Second,
		requestLimit:        1 << 21,
		queueSize:           1000,
		requestsPerInterval: 100,
		interval:            time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

type request struct {
	stream   network.Stream
	received time.Time
}

// Run installs the stream handler and processes queued streams until the
// context is canceled.
func (s *Server) Run(ctx context.Context) error {
	limit := rate.NewLimiter(rate.Every(s.interval/time.Duration(s.requestsPerInterval)), s.requestsPerInterval)
	queue := make(chan request, s.queueSize)
	if s.metrics != nil {
		s.metrics.targetQueue.Set(float64(s.queueSize))
		s.metrics.targetRps.Set(float64(limit.Limit()))
	}
	s.h.SetStreamHandler(protocol.ID(s.protocol), func(stream network.Stream) {
		select {
		case queue <- request{stream: stream, received: time.Now()}:
			if s.metrics != nil {
				s.metrics.queue.Set(float64(len(queue)))
				s.metrics.accepted.Inc()
			}
		default:
			if s.metrics != nil {
				s.metrics.dropped.Inc()
			}
			stream.Close()
		}
	})

	var eg errgroup.Group
	eg.SetLimit(s.queueSize)
	for {
		select {
		case <-ctx.Done():
			eg.Wait()
			return nil
		case req := <-queue:
			if err := limit.Wait(ctx); err != nil {
				eg.Wait()
				return nil
			}
			eg.Go(func() error {
				ok := s.queueHandler(ctx, req.stream)
				if s.metrics != nil {
					s.metrics.serverLatency.Observe(time.Since(req.received).Seconds())
					if ok {
						s.metrics.completed.Inc()
					} else {
						s.metrics.failed.Inc()
					}
				}
				return nil
			})
		}
	}
}

func (s *Server) queueHandler(ctx context.Context, stream network.Stream) bool {
	defer stream.Close()
	_ = stream.SetDeadline(time.Now().Add(s.timeout))
	remote := stream.Conn().RemotePeer()
	rd := bufio.NewReader(stream)
	size, err := varint.ReadUvarint(rd)
	if err != nil {
		s.logger.Debug("initial read failed",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	if size > uint64(s.requestLimit) {
		s.logger.Warn("request limit overflow",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Int("limit", s.requestLimit),
			zap.Uint64("request", size),
		)
		stream.Conn().Close()
		return false
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rd, buf); err != nil {
		s.logger.Debug("error reading request",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	start := time.Now()
	var resp Response
	data, err := s.handler(log.WithNewRequestID(ctx), remote, buf)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Data = data
	}
	if err := writeResponse(stream, &resp); err != nil {
		s.logger.Debug("error writing response",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	s.logger.Debug("protocol handler execution time",
		zap.String("protocol", s.protocol),
		zap.Stringer("remotePeer", remote),
		zap.Duration("duration", time.Since(start)),
	)
	return resp.Error == ""
}

// Request sends a binary request to the peer and returns the response data.
// An error string in the response envelope is surfaced as *ServerError.
func (s *Server) Request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	start := time.Now()
	data, err := s.request(ctx, pid, req)
	took := time.Since(start).Seconds()
	switch {
	case s.metrics == nil:
	case err != nil && !errors.Is(err, &ServerError{}):
		s.metrics.clientLatencyFailure.Observe(took)
	default:
		s.metrics.clientLatency.Observe(took)
	}
	s.logger.Debug("request execution time",
		log.ZContext(ctx),
		zap.String("protocol", s.protocol),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return data, err
}

func (s *Server) request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	if len(req) > s.requestLimit {
		return nil, fmt.Errorf("request length (%d) is longer than limit %d", len(req), s.requestLimit)
	}
	if s.h.Network().Connectedness(pid) != network.Connected {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, pid)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	stream, err := s.h.NewStream(network.WithNoDial(ctx, "existing connection"), pid, protocol.ID(s.protocol))
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	_ = stream.SetDeadline(time.Now().Add(s.timeout))

	wr := bufio.NewWriter(stream)
	sz := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(sz, uint64(len(req)))
	if _, err := wr.Write(sz[:n]); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if _, err := wr.Write(req); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if err := wr.Flush(); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}

	var r Response
	rd := bufio.NewReader(stream)
	if _, err := codec.DecodeFrom(rd, &r); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if r.Error != "" {
		return nil, NewServerError(r.Error)
	}
	return r.Data, nil
}

func writeResponse(w io.Writer, resp *Response) error {
	wr := bufio.NewWriter(w)
	if _, err := codec.EncodeTo(wr, resp); err != nil {
		return fmt.Errorf("failed to write response (len %d err len %d): %w",
			len(resp.Data), len(resp.Error), err)
	}
	if err := wr.Flush(); err != nil {
		return fmt.Errorf("failed to write response (len %d err len %d): %w",
			len(resp.Data), len(resp.Error), err)
	}
	return nil
}
