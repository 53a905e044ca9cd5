package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wyydra/signalhub/internal/adapter/driven/trust"
	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/Wyydra/signalhub/internal/core/service"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	registry := service.NewRegistry()
	tracker := service.NewTracker()
	router := service.NewRouter(registry, tracker)
	rooms := service.NewRooms(registry, tracker)
	pool := service.NewPool()
	auth := service.NewAuthenticator(trust.NewBackend(), registry, []string{"4.4"}, true)
	gateway := service.NewGateway(auth, registry, router, tracker, rooms, pool)

	h := NewHandler(gateway, 64<<10, time.Second)
	server := httptest.NewServer(h.NewRouter())
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return server, wsURL
}

// testClient drives one WebSocket connection, demultiplexing acks from
// asynchronous notices.
type testClient struct {
	t       *testing.T
	conn    *websocket.Conn
	notices []domain.Notice
}

func dialTestClient(t *testing.T, wsURL string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) read() ([]byte, error) {
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// call sends one envelope and reads until its ack arrives, stashing any
// notices seen on the way.
func (c *testClient) call(env domain.Envelope) domain.Ack {
	c.t.Helper()
	if err := c.conn.WriteJSON(env); err != nil {
		c.t.Fatalf("write %s: %v", env.Type, err)
	}
	for {
		data, err := c.read()
		if err != nil {
			c.t.Fatalf("waiting for ack of %s: %v", env.Type, err)
		}
		var probe struct {
			Type string `json:"type"`
			Seq  uint64 `json:"seq"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			c.t.Fatalf("decode frame: %v", err)
		}
		if probe.Type == "ack" {
			if probe.Seq != env.Seq {
				c.t.Fatalf("ack for seq %d while waiting for %d", probe.Seq, env.Seq)
			}
			var ack domain.Ack
			json.Unmarshal(data, &ack)
			return ack
		}
		var notice domain.Notice
		json.Unmarshal(data, &notice)
		c.notices = append(c.notices, notice)
	}
}

// waitNotice returns the next notice of the given type, reading more frames
// if none is stashed.
func (c *testClient) waitNotice(noticeType string) domain.Notice {
	c.t.Helper()
	for i, n := range c.notices {
		if n.Type == noticeType {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return n
		}
	}
	for {
		data, err := c.read()
		if err != nil {
			c.t.Fatalf("waiting for %s notice: %v", noticeType, err)
		}
		var notice domain.Notice
		if err := json.Unmarshal(data, &notice); err != nil {
			c.t.Fatalf("decode notice: %v", err)
		}
		if notice.Type == noticeType {
			return notice
		}
		c.notices = append(c.notices, notice)
	}
}

func (c *testClient) authenticate(token string) domain.Ack {
	c.t.Helper()
	return c.call(domain.Envelope{Type: domain.TypeAuthentication, Seq: 1, Token: token, Version: "4.4"})
}

func TestServeWSAuthenticationAck(t *testing.T) {
	_, wsURL := newTestServer(t)

	client := dialTestClient(t, wsURL)
	ack := client.authenticate("tok-A")
	if ack.Error != "" {
		t.Fatalf("authentication failed: %+v", ack)
	}
	if ack.Identity != "tok-A" {
		t.Fatalf("ack identity = %q, want tok-A", ack.Identity)
	}
	if n := client.waitNotice(domain.NoticeAuthenticated); n.Identity != "tok-A" {
		t.Fatalf("server-authenticated identity = %q, want tok-A", n.Identity)
	}
}

func TestServeWSAnonymousIdentity(t *testing.T) {
	_, wsURL := newTestServer(t)

	client := dialTestClient(t, wsURL)
	ack := client.authenticate("")
	if ack.Error != "" {
		t.Fatalf("authentication failed: %+v", ack)
	}
	if !strings.HasSuffix(ack.Identity, "@anonymous") {
		t.Fatalf("ack identity = %q, want a server-minted anonymous id", ack.Identity)
	}
}

func TestServeWSUnsupportedVersion(t *testing.T) {
	_, wsURL := newTestServer(t)

	client := dialTestClient(t, wsURL)
	ack := client.call(domain.Envelope{Type: domain.TypeAuthentication, Seq: 1, Token: "tok", Version: "0.9"})
	if ack.Error != domain.CodeUnsupportedVersion || ack.Code != 2103 {
		t.Fatalf("got ack %+v, want UnsupportedVersion/2103", ack)
	}
	if _, err := client.read(); err == nil {
		t.Fatal("connection stayed open after version rejection")
	}
}

func TestServeWSUnauthenticatedHardClose(t *testing.T) {
	_, wsURL := newTestServer(t)

	client := dialTestClient(t, wsURL)
	ack := client.call(domain.Envelope{Type: domain.TypeMessage, Seq: 7, To: "u2"})
	if ack.Error != domain.CodeUnauthenticated || ack.Code != 2120 {
		t.Fatalf("got ack %+v, want Unauthenticated/2120", ack)
	}
	if _, err := client.read(); err == nil {
		t.Fatal("connection stayed open after unauthenticated call")
	}
}

func TestServeWSMessageRouting(t *testing.T) {
	_, wsURL := newTestServer(t)

	sender := dialTestClient(t, wsURL)
	recipient := dialTestClient(t, wsURL)
	sender.authenticate("u1")
	recipient.authenticate("u2")

	payload := json.RawMessage(`{"sdp":"offer-blob"}`)
	ack := sender.call(domain.Envelope{Type: domain.TypeMessage, Seq: 2, To: "u2", Payload: payload})
	if ack.Error != "" {
		t.Fatalf("route failed: %+v", ack)
	}

	msg := recipient.waitNotice(domain.NoticeMessage)
	if msg.From != "u1" {
		t.Fatalf("delivered from = %q, want u1", msg.From)
	}
	if string(msg.Payload) != string(payload) {
		t.Fatalf("payload = %s, want %s", msg.Payload, payload)
	}

	ack = sender.call(domain.Envelope{Type: domain.TypeMessage, Seq: 3, To: "ghost", Payload: payload})
	if ack.Error != domain.CodeUnreachablePeer || ack.Code != 2201 {
		t.Fatalf("got ack %+v, want UnreachablePeer/2201", ack)
	}
}

func TestServeWSPreemption(t *testing.T) {
	_, wsURL := newTestServer(t)

	first := dialTestClient(t, wsURL)
	first.authenticate("tok-A")

	second := dialTestClient(t, wsURL)
	second.authenticate("tok-A")

	first.waitNotice(domain.NoticeDisconnect)
	if _, err := first.read(); err == nil {
		t.Fatal("superseded connection stayed open")
	}

	// The successor is routable immediately.
	third := dialTestClient(t, wsURL)
	third.authenticate("u3")
	ack := third.call(domain.Envelope{Type: domain.TypeMessage, Seq: 2, To: "tok-A", Payload: json.RawMessage(`{}`)})
	if ack.Error != "" {
		t.Fatalf("routing to reconnected identity failed: %+v", ack)
	}
}

func TestServeWSRoomPairing(t *testing.T) {
	_, wsURL := newTestServer(t)

	u1 := dialTestClient(t, wsURL)
	u2 := dialTestClient(t, wsURL)
	u1.authenticate("u1")
	u2.authenticate("u2")

	if ack := u1.call(domain.Envelope{Type: domain.TypeRoomJoin, Seq: 2, RoomID: "r"}); ack.Error != "" {
		t.Fatalf("join failed: %+v", ack)
	}
	u1.waitNotice(domain.NoticePeerWaiting)

	if ack := u2.call(domain.Envelope{Type: domain.TypeRoomJoin, Seq: 2, RoomID: "r"}); ack.Error != "" {
		t.Fatalf("join failed: %+v", ack)
	}

	paired1 := u1.waitNotice(domain.NoticePeerPaired)
	if paired1.Peer != "u2" || paired1.Role != domain.RoleAnswerer {
		t.Fatalf("u1 pairing = %+v, want peer u2 role answerer", paired1)
	}
	paired2 := u2.waitNotice(domain.NoticePeerPaired)
	if paired2.Peer != "u1" || paired2.Role != domain.RoleOfferer {
		t.Fatalf("u2 pairing = %+v, want peer u1 role offerer", paired2)
	}
}

func TestServeWSInstanceBind(t *testing.T) {
	_, wsURL := newTestServer(t)

	worker := dialTestClient(t, wsURL)
	worker.call(domain.Envelope{Type: domain.TypeAuthentication, Seq: 1, Token: "w1", Version: "4.4", Role: domain.RoleInstance})

	c1 := dialTestClient(t, wsURL)
	c2 := dialTestClient(t, wsURL)
	c1.authenticate("c1")
	c2.authenticate("c2")

	ack := c1.call(domain.Envelope{Type: domain.TypeInstanceBind, Seq: 2, To: "w1"})
	if ack.Status != string(domain.BindBound) {
		t.Fatalf("bind status = %q, want bound", ack.Status)
	}
	ack = c2.call(domain.Envelope{Type: domain.TypeInstanceBind, Seq: 2, To: "w1"})
	if ack.Status != string(domain.BindOccupied) {
		t.Fatalf("bind status = %q, want occupied", ack.Status)
	}

	if ack := c1.call(domain.Envelope{Type: domain.TypeInstanceRelease, Seq: 3, To: "w1"}); ack.Error != "" {
		t.Fatalf("release failed: %+v", ack)
	}
	ack = c2.call(domain.Envelope{Type: domain.TypeInstanceBind, Seq: 4, To: "w1"})
	if ack.Status != string(domain.BindBound) {
		t.Fatalf("bind after release = %q, want bound", ack.Status)
	}
}

func TestRouterRejectsPlainHTTP(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/anything")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 405 {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
