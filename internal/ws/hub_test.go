package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h, cancel
}

func receive(t *testing.T, c *client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHubDeliversToEveryConnectionOfUser(t *testing.T) {
	h, _ := startHub(t)
	a1 := &client{hub: h, send: make(chan []byte, 4), userID: "a"}
	a2 := &client{hub: h, send: make(chan []byte, 4), userID: "a"}
	b := &client{hub: h, send: make(chan []byte, 4), userID: "b"}
	for _, c := range []*client{a1, a2, b} {
		require.True(t, h.attach(c))
	}

	h.Notify("a", Message{Type: "saved_search_match", Title: "New listing"})

	for _, c := range []*client{a1, a2} {
		var got Message
		require.NoError(t, json.Unmarshal(receive(t, c), &got))
		assert.Equal(t, "saved_search_match", got.Type)
		assert.False(t, got.CreatedAt.IsZero())
	}
	select {
	case <-b.send:
		t.Fatal("other users must not receive the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	h, cancel := startHub(t)
	c := &client{hub: h, send: make(chan []byte, 1), userID: "a"}
	require.True(t, h.attach(c))

	cancel()
	<-h.done
	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, h.attach(&client{hub: h, send: make(chan []byte), userID: "late"}))
}

func TestNilHubNotifyIsNoop(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Notify("a", Message{Type: "x"}) })
}

func TestHandlerRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := startHub(t)

	r := gin.New()
	r.GET("/ws", Handler(h))
	r.GET("/off", Handler(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/off", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
