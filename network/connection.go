package network

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const headerSize = 4

var ErrPacketTooLarge = errors.New("packet body exceeds 65535 bytes")

type Packet struct {
	MsgID  uint16
	Data   []byte
	Length uint16
}

type Connection interface {
	Send(msgID uint16, data []byte) error
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

// Encode frames a packet: 2-byte message id + 2-byte body length + body,
// big-endian.
func Encode(msgID uint16, data []byte) ([]byte, error) {
	if len(data) > math.MaxUint16 {
		return nil, ErrPacketTooLarge
	}
	packet := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[headerSize:], data)
	return packet, nil
}

// Decode parses one framed packet. Trailing bytes past the declared length
// are ignored.
func Decode(data []byte) (*Packet, error) {
	if len(data) < headerSize {
		return nil, io.ErrShortBuffer
	}
	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint16(data[2:4])
	if len(data) < headerSize+int(length) {
		return nil, io.ErrShortBuffer
	}
	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[headerSize : headerSize+int(length)],
	}, nil
}

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second
	// sendQueueSize is how many packets may wait for a slow client.
	sendQueueSize = 256
)

var (
	ErrSendQueueFull    = errors.New("send queue full")
	ErrConnectionClosed = errors.New("connection closed")
)

// WSConnection frames packets over a websocket. Send only enqueues; a
// per-connection writer goroutine does the blocking writes, so a stalled
// client never holds up the caller.
type WSConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	heartbeat time.Duration
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	c := &WSConnection{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

// Send queues a packet. A client whose queue is full is disconnected.
func (c *WSConnection) Send(msgID uint16, data []byte) error {
	packet, err := Encode(msgID, data)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- packet:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		// 发送队列已满，按慢客户端处理直接断开
		c.Close()
		return ErrSendQueueFull
	}
}

// writePump drains the send queue until the connection closes.
func (c *WSConnection) writePump() {
	for {
		select {
		case <-c.done:
			return
		case packet := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, packet); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ReadPacket blocks for the next packet and extends the read deadline when a
// heartbeat interval is set.
func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.heartbeat > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
	}
	return Decode(data)
}

// SetHeartbeat makes the connection fail when nothing arrives for two intervals.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
}

// Close stops the writer and closes the socket; packets still queued are
// dropped. It is safe to call more than once.
func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
