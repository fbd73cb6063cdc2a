package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func TestServer(t *testing.T) {
	const limit = 1024

	mesh, err := mocknet.FullMeshConnected(4)
	require.NoError(t, err)
	proto := "test"
	request := []byte("test request")
	testErr := errors.New("test error")

	handler := func(_ context.Context, pid peer.ID, msg []byte) ([]byte, error) {
		return append(msg, []byte(pid)...), nil
	}
	errhandler := func(context.Context, peer.ID, []byte) ([]byte, error) {
		return nil, testErr
	}
	opts := []Opt{
		WithTimeout(100 * time.Millisecond),
		WithLog(zaptest.NewLogger(t)),
		WithMetrics(),
	}
	client := New(
		mesh.Hosts()[0],
		proto,
		handler,
		append(opts, WithRequestSizeLimit(2*limit))...,
	)
	srv1 := New(
		mesh.Hosts()[1],
		proto,
		handler,
		append(opts, WithRequestSizeLimit(limit))...,
	)
	srv2 := New(
		mesh.Hosts()[2],
		proto,
		errhandler,
		append(opts, WithRequestSizeLimit(limit))...,
	)
	ctx, cancel := context.WithCancel(context.Background())
	var eg errgroup.Group
	eg.Go(func() error {
		return srv1.Run(ctx)
	})
	eg.Go(func() error {
		return srv2.Run(ctx)
	})
	require.Eventually(t, func() bool {
		for _, h := range mesh.Hosts()[1:3] {
			if len(h.Mux().Protocols()) == 0 {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		eg.Wait()
	})

	t.Run("ReceiveMessage", func(t *testing.T) {
		srvID := mesh.Hosts()[1].ID()
		response, err := client.Request(ctx, srvID, request)
		require.NoError(t, err)
		expected := append([]byte{}, request...)
		expected = append(expected, []byte(mesh.Hosts()[0].ID())...)
		require.Equal(t, expected, response)
	})
	t.Run("ReceiveError", func(t *testing.T) {
		srvID := mesh.Hosts()[2].ID()
		_, err := client.Request(ctx, srvID, request)
		require.ErrorIs(t, err, &ServerError{})
		require.ErrorContains(t, err, testErr.Error())
	})
	t.Run("NotConnected", func(t *testing.T) {
		_, err := client.Request(ctx, "unknown", request)
		require.ErrorIs(t, err, ErrNotConnected)
	})
	t.Run("OversizedRequest", func(t *testing.T) {
		srvID := mesh.Hosts()[1].ID()
		_, err := client.Request(ctx, srvID, make([]byte, limit+1))
		require.Error(t, err)
	})
}

func TestQueued(t *testing.T) {
	mesh, err := mocknet.FullMeshConnected(2)
	require.NoError(t, err)

	var (
		total     = 100
		proto     = "test"
		unblock   = make(chan struct{})
		wait      = make(chan struct{}, total)
		allowed   = 10
		queueSize = 10
	)

	client := New(mesh.Hosts()[0], proto, nil)
	srv := New(
		mesh.Hosts()[1],
		proto,
		func(context.Context, peer.ID, []byte) ([]byte, error) {
			wait <- struct{}{}
			<-unblock
			return []byte("ok"), nil
		},
		WithQueueSize(allowed+queueSize),
		WithRequestsPerInterval(10, time.Second),
		WithMetrics(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var srvGroup errgroup.Group
	srvGroup.Go(func() error {
		return srv.Run(ctx)
	})
	require.Eventually(t, func() bool {
		return len(mesh.Hosts()[1].Mux().Protocols()) > 0
	}, time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		srvGroup.Wait()
	})

	var eg errgroup.Group
	for i := 0; i < total; i++ {
		eg.Go(func() error {
			client.Request(ctx, mesh.Hosts()[1].ID(), []byte("ping"))
			return nil
		})
	}
	for i := 0; i < allowed; i++ {
		<-wait
	}
	close(unblock)
	eg.Wait()
}
