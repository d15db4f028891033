package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remote-wiring/wiring-go/pkg/transport"
)

func TestPipeStreamLifecycle(t *testing.T) {
	stream, peer := transport.Pipe()

	// Closed until opened.
	_, err := stream.Write([]byte{0x01})
	assert.ErrorIs(t, err, transport.ErrNotOpen)
	_, err = stream.Read(make([]byte, 1))
	assert.ErrorIs(t, err, transport.ErrNotOpen)

	require.NoError(t, stream.Open(context.Background()))
	assert.ErrorIs(t, stream.Open(context.Background()), transport.ErrAlreadyOpen)

	go func() {
		buf := make([]byte, 3)
		if _, err := peer.Read(buf); err == nil {
			_, _ = peer.Write(buf)
		}
	}()

	_, err = stream.Write([]byte{0xF0, 0x6B, 0xF7})
	require.NoError(t, err)
	require.NoError(t, stream.Flush())

	buf := make([]byte, 3)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0x6B, 0xF7}, buf[:n])

	require.NoError(t, stream.Close())
	assert.Equal(t, "pipe", stream.Description())
}

func TestPipeOpenHonorsContext(t *testing.T) {
	stream, _ := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, stream.Open(ctx))
}

func TestTCPStreamAgainstLoopback(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	echoed := make(chan []byte, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 8)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		echoed <- buf[:n]
	}()

	stream := transport.NewTCPStream(listener.Addr().String())
	require.NoError(t, stream.Open(context.Background()))
	defer stream.Close()

	assert.Contains(t, stream.Description(), listener.Addr().String())

	_, err = stream.Write([]byte{0xF9})
	require.NoError(t, err)
	require.NoError(t, stream.Flush())

	select {
	case got := <-echoed:
		assert.Equal(t, []byte{0xF9}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("write never reached listener")
	}
}

func TestTCPStreamOpenFailure(t *testing.T) {
	// A port nothing listens on.
	stream := transport.NewTCPStream("127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, stream.Open(ctx))
}
