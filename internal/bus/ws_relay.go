package bus

import (
	"bytes"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
)

// WSRelay broadcasts batched, zstd-compressed telemetry frames to
// connected websocket clients. Grounded on the teacher's
// dxcluster_websocket.go connection-map broadcast pattern (one write
// mutex per connection, RWMutex over the connection map) and its
// pcm_binary.go use of a pooled zstd encoder for outbound frames.
type WSRelay struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex

	encoderPool sync.Pool

	batchWindow time.Duration
	batch       []Record
	batchMu     sync.Mutex
}

// NewWSRelay builds a relay that flushes accumulated records as one
// compressed frame every batchWindow.
func NewWSRelay(batchWindow time.Duration) *WSRelay {
	return &WSRelay{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		encoderPool: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
				return enc
			},
		},
		batchWindow: batchWindow,
	}
}

// HandleUpgrade upgrades an inbound HTTP request to a websocket and
// registers the connection as a relay client.
func (r *WSRelay) HandleUpgrade(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("[bus.ws] upgrade failed: %v", err)
		return
	}
	r.mu.Lock()
	r.clients[conn] = &sync.Mutex{}
	r.mu.Unlock()

	go func() {
		defer r.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (r *WSRelay) removeClient(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
	conn.Close()
}

// Relay drains feed, accumulating records into a batch flushed at most
// once per batchWindow.
func (r *WSRelay) Relay(feed <-chan Record) {
	ticker := time.NewTicker(r.batchWindow)
	defer ticker.Stop()
	for {
		select {
		case rec, ok := <-feed:
			if !ok {
				return
			}
			r.batchMu.Lock()
			r.batch = append(r.batch, rec)
			r.batchMu.Unlock()
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *WSRelay) flush() {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}
	pending := r.batch
	r.batch = nil
	r.batchMu.Unlock()

	var buf bytes.Buffer
	for _, rec := range pending {
		buf.WriteString(rec.String())
		buf.WriteByte('\n')
	}

	enc := r.encoderPool.Get().(*zstd.Encoder)
	compressed := enc.EncodeAll(buf.Bytes(), nil)
	r.encoderPool.Put(enc)

	r.broadcast(compressed)
}

func (r *WSRelay) broadcast(payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for conn, writeMu := range r.clients {
		writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err := conn.WriteMessage(websocket.BinaryMessage, payload)
		writeMu.Unlock()
		if err != nil {
			log.Printf("[bus.ws] write failed: %v", err)
		}
	}
}
