package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/http/handlers"
	"dispatch-console/internal/logx"
)

func TestEventsHandler_ManagerStream(t *testing.T) {
	t.Parallel()

	broker := broadcast.New(8, logx.Nop(), nil, nil, nil)
	defer broker.Close()

	h := handlers.NewEventsHandler(logx.Nop(), broker)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Stream(w, asManager(r))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// headers are sent after the subscription registers, so by the time
	// http.Get returned the publish below is guaranteed to be delivered
	broker.Publish(broadcast.Event{
		Kind: broadcast.KindOrderAssigned, OrderID: "o1", PartnerID: "p1",
	})

	buf := make([]byte, 512)
	n, readErr := resp.Body.Read(buf)
	require.Positive(t, n, "no event frame received: %v", readErr)

	frame := string(buf[:n])
	assert.Contains(t, frame, "event: order_assigned")
	assert.Contains(t, frame, `"order_id":"o1"`)
}

func TestEventsHandler_PartnerChannelSelection(t *testing.T) {
	t.Parallel()

	subs := make(chan string, 1)
	src := &stubEventSource{
		subscribeFn: func(key string) *broadcast.Subscription {
			subs <- key
			b := broadcast.New(1, logx.Nop(), nil, nil, nil)
			sub := b.Subscribe(key)
			b.Close() // returns a closed subscription so Stream exits at once
			return sub
		},
	}
	h := handlers.NewEventsHandler(logx.Nop(), src)

	req := asPartner(httptest.NewRequest(http.MethodGet, "/events", nil), "p9")
	rr := httptest.NewRecorder()

	h.Stream(rr, req)

	require.Equal(t, broadcast.PartnerChannel("p9"), <-subs)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestEventsHandler_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := handlers.NewEventsHandler(logx.Nop(), &stubEventSource{})

	rr := httptest.NewRecorder()
	h.Stream(rr, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "unauthorized"))
}

type stubEventSource struct {
	subscribeFn func(key string) *broadcast.Subscription
}

func (s *stubEventSource) Subscribe(key string) *broadcast.Subscription {
	return s.subscribeFn(key)
}

func (s *stubEventSource) Unsubscribe(*broadcast.Subscription) {}
