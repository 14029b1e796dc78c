package collector

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockgravity/database"
)

// Quote is one intraday tick from the realtime feed.
type Quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// RealtimeFeed maintains a websocket subscription to the intraday quote
// stream and overlays ticks onto the stock pool. The dashboard keeps
// showing daily closes when the feed is down; ticks are an overlay, never
// a source of record.
type RealtimeFeed struct {
	url  string
	pool *database.PoolRepository

	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan bool
}

// NewRealtimeFeed creates a realtime quote feed.
func NewRealtimeFeed(url string, pool *database.PoolRepository) *RealtimeFeed {
	return &RealtimeFeed{
		url:  url,
		pool: pool,
		done: make(chan bool),
	}
}

// Start connects and runs the read loop in the background, reconnecting
// with backoff until Stop is called.
func (f *RealtimeFeed) Start() {
	go f.run()
}

// Stop closes the feed.
func (f *RealtimeFeed) Stop() {
	close(f.done)
	f.writeMu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.writeMu.Unlock()
}

func (f *RealtimeFeed) run() {
	backoff := time.Second
	for {
		select {
		case <-f.done:
			return
		default:
		}

		if err := f.connect(); err != nil {
			log.Printf("⚠️ Realtime feed connect failed: %v, retrying in %s", err, backoff)
			select {
			case <-time.After(backoff):
			case <-f.done:
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		f.readLoop()
	}
}

func (f *RealtimeFeed) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.writeMu.Lock()
	f.conn = conn
	f.writeMu.Unlock()

	log.Printf("✅ Realtime feed connected to %s", f.url)
	f.subscribe()
	go f.pingLoop(conn)
	return nil
}

// subscribe asks the feed for ticks on every ticker currently in the pool.
func (f *RealtimeFeed) subscribe() {
	entries, err := f.pool.GetPool(database.PoolFilter{})
	if err != nil {
		log.Printf("⚠️ Realtime feed subscription skipped: %v", err)
		return
	}
	tickers := make([]string, 0, len(entries))
	for _, e := range entries {
		tickers = append(tickers, e.Ticker)
	}

	msg := map[string]interface{}{"action": "subscribe", "tickers": tickers}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if f.conn == nil {
		return
	}
	if err := f.conn.WriteJSON(msg); err != nil {
		log.Printf("⚠️ Realtime feed subscribe failed: %v", err)
	}
}

func (f *RealtimeFeed) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			f.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-f.done:
			return
		}
	}
}

func (f *RealtimeFeed) readLoop() {
	for {
		f.writeMu.Lock()
		conn := f.conn
		f.writeMu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
			default:
				log.Printf("⚠️ Realtime feed read failed: %v", err)
			}
			conn.Close()
			return
		}

		var quote Quote
		if err := json.Unmarshal(data, &quote); err != nil || quote.Ticker == "" {
			continue
		}
		if err := f.pool.UpdateRealtime(quote.Ticker, quote.Price, quote.Volume); err != nil {
			log.Printf("⚠️ Realtime overlay failed for %s: %v", quote.Ticker, err)
		}
	}
}
