package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/MeKo-Tech/qrfeed/internal/reader"
)

// mockReader is a readerInterface whose state is set by the test.
type mockReader struct {
	mu       sync.Mutex
	state    string
	last     string
	err      error
	enables  int
	disables int
	subs     map[string]chan string
	nextID   int
	feed     reader.FeedSink
}

func newMockReader() *mockReader {
	return &mockReader{state: "disabled", subs: make(map[string]chan string)}
}

func (m *mockReader) Enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.enables++
	m.state = "starting"
	return nil
}

func (m *mockReader) Disable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.disables++
	m.state = "disabled"
	m.last = ""
	return nil
}

func (m *mockReader) LastResult() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *mockReader) Status() reader.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return reader.Status{State: m.state, LastResult: m.last, Width: 512, Height: 512}
}

func (m *mockReader) Subscribe() (string, <-chan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := string(rune('a' + m.nextID))
	ch := make(chan string, 4)
	m.subs[id] = ch
	return id, ch
}

func (m *mockReader) Unsubscribe(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.subs[id]
	if !ok {
		return false
	}
	delete(m.subs, id)
	close(ch)
	return true
}

func (m *mockReader) SetFeedSink(s reader.FeedSink) {
	m.mu.Lock()
	m.feed = s
	m.mu.Unlock()
}

// detect publishes text to every subscriber.
func (m *mockReader) detect(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = text
	for _, ch := range m.subs {
		ch <- text
	}
}

func (m *mockReader) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(r readerInterface, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	return NewServer(r, cfg)
}

func doRequest(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
