// Package relay copies a spooled artifact from an agent connection to an
// HTTP response without buffering it on this node's disk.
package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// chunkSize is the largest single read taken from the agent connection.
	chunkSize = 1024

	// readTimeout bounds each individual read. An agent that stalls longer
	// than this aborts the transfer.
	readTimeout = 5 * time.Second

	// ackCode is sent back to the agent once the payload has been fully
	// consumed, telling it the spooled artifact can be removed.
	ackCode = uint64(2)
)

// ErrStalled is returned when the agent stops sending before the announced
// length has been transferred.
var ErrStalled = errors.New("relay: agent connection stalled")

// ReadLength reads the 8-byte big-endian payload length the agent announces
// before streaming the artifact.
func ReadLength(conn net.Conn) (int64, error) {
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return 0, fmt.Errorf("relay: failed to set read deadline: %w", err)
	}
	var buf [8]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return 0, fmt.Errorf("relay: failed to read payload length: %w", err)
	}
	length := binary.BigEndian.Uint64(buf[:])
	return int64(length), nil
}

// Stream copies exactly length bytes from conn to w in chunks, then sends
// the removal acknowledgement and closes the connection. Each read carries
// its own deadline so a stalled agent cannot pin the response forever. When
// w implements http.Flusher the response is flushed after every chunk so the
// browser sees bytes as they arrive.
func Stream(w io.Writer, conn net.Conn, length int64) error {
	defer conn.Close()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, chunkSize)
	remaining := length

	for remaining > 0 {
		want := int64(chunkSize)
		if remaining < want {
			want = remaining
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("relay: failed to set read deadline: %w", err)
		}
		n, err := conn.Read(buf[:want])
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("relay: failed to write response: %w", werr)
			}
			if flusher != nil {
				flusher.Flush()
			}
			remaining -= int64(n)
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return fmt.Errorf("%w: %d bytes left", ErrStalled, remaining)
			}
			if err == io.EOF && remaining > 0 {
				return fmt.Errorf("relay: connection closed with %d bytes left", remaining)
			}
			if err != io.EOF {
				return fmt.Errorf("relay: read failed: %w", err)
			}
		}
	}

	return acknowledge(conn)
}

// acknowledge tells the agent the transfer is complete so it deletes its
// spooled copy. Wire format: 8-byte big-endian code followed by "RE".
func acknowledge(conn net.Conn) error {
	var buf [10]byte
	binary.BigEndian.PutUint64(buf[:8], ackCode)
	copy(buf[8:], "RE")
	if err := conn.SetWriteDeadline(time.Now().Add(readTimeout)); err != nil {
		return fmt.Errorf("relay: failed to set write deadline: %w", err)
	}
	if _, err := conn.Write(buf[:]); err != nil {
		return fmt.Errorf("relay: failed to send acknowledgement: %w", err)
	}
	return nil
}
