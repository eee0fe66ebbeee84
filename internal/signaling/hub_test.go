package signaling

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, h *Hub, id, name string) *Client {
	t.Helper()
	c := NewClient(h, nil, id, name)
	h.Register(c)
	return c
}

func joinRoom(h *Hub, c *Client, roomID, userID, role string) {
	h.route(c, envelope(EventJoinRoom, JoinRoomData{RoomID: roomID, UserID: userID, Role: role}))
}

func envelope(event string, data any) Envelope {
	b, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return Envelope{Event: event, Data: b}
}

// drain empties the client's send buffer and returns the decoded envelopes.
func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case b := <-c.Send:
			var env Envelope
			if err := json.Unmarshal(b, &env); err != nil {
				t.Fatalf("failed to decode envelope: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventsOf(envs []Envelope) []string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Event
	}
	return names
}

func countEvent(envs []Envelope, name string) int {
	n := 0
	for _, e := range envs {
		if e.Event == name {
			n++
		}
	}
	return n
}

func findEvent(t *testing.T, envs []Envelope, name string) json.RawMessage {
	t.Helper()
	for _, e := range envs {
		if e.Event == name {
			return e.Data
		}
	}
	t.Fatalf("event %q not found in %v", name, eventsOf(envs))
	return nil
}

func TestJoinSendsRoomPicture(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "host-1", "")
	joinRoom(h, host, "room-a", "Alice", "host")
	drain(t, host)

	p := newTestClient(t, h, "peer-1", "")
	joinRoom(h, p, "room-a", "Bob", "participant")
	got := drain(t, p)

	var users []RoomUser
	if err := json.Unmarshal(findEvent(t, got, EventAllUsers), &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].ConnectionID != "host-1" || users[0].Name != "Alice" {
		t.Errorf("all-users = %+v, want [{host-1 Alice}]", users)
	}

	var perm ChatPermissionData
	if err := json.Unmarshal(findEvent(t, got, EventChatPermission), &perm); err != nil {
		t.Fatal(err)
	}
	if !perm.Enabled {
		t.Error("chat should be enabled by default")
	}

	var info HostInfoData
	if err := json.Unmarshal(findEvent(t, got, EventHostInfo), &info); err != nil {
		t.Fatal(err)
	}
	if info.SocketID != "host-1" {
		t.Errorf("host-info.socketId = %q, want host-1", info.SocketID)
	}

	// Host is told about the newcomer.
	hostGot := drain(t, host)
	var connected UserConnectedData
	if err := json.Unmarshal(findEvent(t, hostGot, EventUserConnected), &connected); err != nil {
		t.Fatal(err)
	}
	if connected.ConnectionID != "peer-1" || connected.Name != "Bob" {
		t.Errorf("user-connected = %+v, want {peer-1 Bob}", connected)
	}
}

func TestMembershipTracksJoinsAndLeaves(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")

	clients := make([]*Client, 0, 4)
	for i := 0; i < 4; i++ {
		c := newTestClient(t, h, fmt.Sprintf("p%d", i), "")
		joinRoom(h, c, "r", fmt.Sprintf("P%d", i), "participant")
		clients = append(clients, c)
	}

	room, ok := h.registry.Get("r")
	if !ok {
		t.Fatal("room missing")
	}
	if got := len(room.members("")); got != 5 {
		t.Fatalf("membership = %d, want 5", got)
	}

	h.Disconnect(clients[0])
	h.Disconnect(clients[1])
	if got := len(room.members("")); got != 3 {
		t.Fatalf("membership after two leaves = %d, want 3", got)
	}
}

func TestHostSlotLastJoinWins(t *testing.T) {
	h := NewHub(NewRegistry())
	h1 := newTestClient(t, h, "h1", "")
	joinRoom(h, h1, "r", "First", "host")
	h2 := newTestClient(t, h, "h2", "")
	joinRoom(h, h2, "r", "Second", "host")

	room, _ := h.registry.Get("r")
	if room.HostID() != "h2" {
		t.Fatalf("hostID = %q, want h2", room.HostID())
	}

	// The previous host stays joined but no longer holds the host role.
	hosts := 0
	for _, m := range room.members("") {
		if m.Role == RoleHost {
			hosts++
		}
	}
	if hosts != 1 {
		t.Errorf("rooms must hold at most one host identity, got %d", hosts)
	}

	// A demoted host disconnecting must not tear the room down.
	h.Disconnect(h1)
	if _, ok := h.registry.Get("r"); !ok {
		t.Fatal("room torn down by demoted host's departure")
	}
}

func TestTargetedRelay(t *testing.T) {
	h := NewHub(NewRegistry())
	x := newTestClient(t, h, "x", "")
	y := newTestClient(t, h, "y", "")
	z := newTestClient(t, h, "z", "")

	h.route(y, envelope(EventSendOffer, SignalData{
		Offer: json.RawMessage(`{"sdp":"v=0"}`),
		To:    "x",
	}))

	got := drain(t, x)
	if countEvent(got, EventReceiveOffer) != 1 {
		t.Fatalf("want exactly one receive-offer at x, got %v", eventsOf(got))
	}
	var sig SignalData
	if err := json.Unmarshal(findEvent(t, got, EventReceiveOffer), &sig); err != nil {
		t.Fatal(err)
	}
	if sig.From != "y" {
		t.Errorf("from = %q, want y", sig.From)
	}
	if string(sig.Offer) != `{"sdp":"v=0"}` {
		t.Errorf("offer payload not forwarded verbatim: %s", sig.Offer)
	}
	if n := len(drain(t, y)) + len(drain(t, z)); n != 0 {
		t.Errorf("relay leaked %d deliveries beyond the target", n)
	}
}

func TestRelayToStaleTargetIsSilent(t *testing.T) {
	h := NewHub(NewRegistry())
	y := newTestClient(t, h, "y", "")

	h.route(y, envelope(EventSendICECandidate, SignalData{
		Candidate: json.RawMessage(`{"candidate":"c"}`),
		To:        "gone",
	}))

	if got := drain(t, y); len(got) != 0 {
		t.Errorf("sender must not be told about a stale target, got %v", eventsOf(got))
	}
}

func TestAnswerRelay(t *testing.T) {
	h := NewHub(NewRegistry())
	x := newTestClient(t, h, "x", "")
	y := newTestClient(t, h, "y", "")

	h.route(x, envelope(EventSendAnswer, SignalData{
		Answer: json.RawMessage(`{"sdp":"a"}`),
		To:     "y",
	}))

	got := drain(t, y)
	if countEvent(got, EventReceiveAnswer) != 1 {
		t.Fatalf("want one receive-answer, got %v", eventsOf(got))
	}
}

func TestChatHistoryCap(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")

	for i := 0; i < maxChatHistory+1; i++ {
		h.route(host, envelope(EventSendChat, SendChatData{
			RoomID:  "r",
			Message: fmt.Sprintf("msg-%d", i),
		}))
	}

	history := h.History("r")
	if len(history) != maxChatHistory {
		t.Fatalf("history length = %d, want %d", len(history), maxChatHistory)
	}
	if history[0].Message != "msg-1" {
		t.Errorf("oldest retained = %q, want msg-1 (msg-0 evicted)", history[0].Message)
	}
	if last := history[len(history)-1].Message; last != fmt.Sprintf("msg-%d", maxChatHistory) {
		t.Errorf("newest retained = %q", last)
	}
}

func TestChatPermissionGate(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "Peer", "participant")

	h.route(host, envelope(EventToggleChat, ToggleChatData{RoomID: "r", Enabled: false}))
	drain(t, host)
	drain(t, p)

	// Non-host message vanishes: no delivery anywhere, no history append.
	h.route(p, envelope(EventSendChat, SendChatData{RoomID: "r", Message: "blocked"}))
	if got := drain(t, host); len(got) != 0 {
		t.Errorf("blocked message delivered to host: %v", eventsOf(got))
	}
	if got := drain(t, p); len(got) != 0 {
		t.Errorf("blocked message echoed to sender: %v", eventsOf(got))
	}
	if n := len(h.History("r")); n != 0 {
		t.Errorf("blocked message appended to history, len = %d", n)
	}

	// The host still gets through with chat disabled.
	h.route(host, envelope(EventSendChat, SendChatData{RoomID: "r", Message: "host speaks"}))
	if countEvent(drain(t, p), EventReceiveChat) != 1 {
		t.Error("host message not delivered while chat disabled")
	}
	if n := len(h.History("r")); n != 1 {
		t.Errorf("history length = %d, want 1", n)
	}
}

func TestToggleChatByNonHostIsIgnored(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "Peer", "participant")
	drain(t, host)
	drain(t, p)

	h.route(p, envelope(EventToggleChat, ToggleChatData{RoomID: "r", Enabled: false}))

	room, _ := h.registry.Get("r")
	if !room.ChatEnabled() {
		t.Error("non-host toggled chat off")
	}
	if got := drain(t, host); countEvent(got, EventChatPermission) != 0 {
		t.Errorf("non-host toggle broadcast a permission update: %v", eventsOf(got))
	}
}

func TestToggleChatBroadcastsToWholeRoom(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "Peer", "participant")
	drain(t, host)
	drain(t, p)

	h.route(host, envelope(EventToggleChat, ToggleChatData{RoomID: "r", Enabled: false}))

	for _, c := range []*Client{host, p} {
		got := drain(t, c)
		data := findEvent(t, got, EventChatPermission)
		var perm ChatPermissionData
		if err := json.Unmarshal(data, &perm); err != nil {
			t.Fatal(err)
		}
		if perm.Enabled {
			t.Errorf("peer %s saw enabled=true, want false", c.ID)
		}
	}
}

func TestPrivateChatEcho(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	a := newTestClient(t, h, "a", "")
	joinRoom(h, a, "r", "Anna", "participant")
	b := newTestClient(t, h, "b", "")
	joinRoom(h, b, "r", "Ben", "participant")
	drain(t, host)
	drain(t, a)
	drain(t, b)

	h.route(a, envelope(EventSendChat, SendChatData{RoomID: "r", Message: "psst", To: "b"}))

	aGot := drain(t, a)
	bGot := drain(t, b)
	if countEvent(aGot, EventReceiveChat) != 1 || countEvent(bGot, EventReceiveChat) != 1 {
		t.Fatalf("private chat: sender got %v, target got %v", eventsOf(aGot), eventsOf(bGot))
	}
	if got := drain(t, host); len(got) != 0 {
		t.Errorf("private chat leaked to third party: %v", eventsOf(got))
	}

	var toTarget, toSender ChatMessage
	if err := json.Unmarshal(findEvent(t, bGot, EventReceiveChat), &toTarget); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(findEvent(t, aGot, EventReceiveChat), &toSender); err != nil {
		t.Fatal(err)
	}
	if toTarget != toSender {
		t.Errorf("echo differs from delivery: %+v vs %+v", toSender, toTarget)
	}
	if toTarget.From != "Anna" || toTarget.To != "b" {
		t.Errorf("payload = %+v", toTarget)
	}
}

func TestBroadcastChatIncludesSender(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "Peer", "participant")
	drain(t, host)
	drain(t, p)

	h.route(p, envelope(EventSendChat, SendChatData{RoomID: "r", Message: "hello"}))

	if countEvent(drain(t, p), EventReceiveChat) != 1 {
		t.Error("sender missing from room broadcast")
	}
	got := drain(t, host)
	var msg ChatMessage
	if err := json.Unmarshal(findEvent(t, got, EventReceiveChat), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.To != "all" {
		t.Errorf("to = %q, want all", msg.To)
	}
	if msg.Timestamp == 0 {
		t.Error("timestamp not set")
	}
}

func TestHostDisconnectEndsSession(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p1 := newTestClient(t, h, "p1", "")
	joinRoom(h, p1, "r", "P1", "participant")
	p2 := newTestClient(t, h, "p2", "")
	joinRoom(h, p2, "r", "P2", "participant")
	drain(t, p1)
	drain(t, p2)

	h.Disconnect(host)

	if _, ok := h.registry.Get("r"); ok {
		t.Fatal("room still present after host disconnect")
	}
	for _, c := range []*Client{p1, p2} {
		if countEvent(drain(t, c), EventHostDisconnected) != 1 {
			t.Errorf("peer %s missed host-disconnected", c.ID)
		}
	}
}

func TestParticipantDisconnect(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p1 := newTestClient(t, h, "p1", "")
	joinRoom(h, p1, "r", "P1", "participant")
	p2 := newTestClient(t, h, "p2", "")
	joinRoom(h, p2, "r", "P2", "participant")
	drain(t, host)
	drain(t, p2)

	h.Disconnect(p1)

	room, ok := h.registry.Get("r")
	if !ok {
		t.Fatal("room removed although host is still present")
	}
	if got := len(room.members("")); got != 2 {
		t.Fatalf("membership = %d, want 2", got)
	}
	for _, c := range []*Client{host, p2} {
		got := drain(t, c)
		data := findEvent(t, got, EventParticipantLeft)
		var left ParticipantLeftData
		if err := json.Unmarshal(data, &left); err != nil {
			t.Fatal(err)
		}
		if left.SocketID != "p1" {
			t.Errorf("participant-left.socketId = %q, want p1", left.SocketID)
		}
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "P", "participant")

	h.Disconnect(p)
	h.Disconnect(p) // duplicate close signal
	drain(t, host)

	room, ok := h.registry.Get("r")
	if !ok {
		t.Fatal("room gone")
	}
	if got := len(room.members("")); got != 1 {
		t.Errorf("membership = %d, want 1", got)
	}
}

func TestLastEmptyRoomCleanup(t *testing.T) {
	h := NewHub(NewRegistry())
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "Solo", "participant")

	if h.Registry().Len() != 1 {
		t.Fatalf("rooms = %d, want 1", h.Registry().Len())
	}

	h.Disconnect(p)

	if _, ok := h.registry.Get("r"); ok {
		t.Fatal("empty room not removed")
	}

	probe := newTestClient(t, h, "q", "")
	h.route(probe, envelope(EventCheckHost, CheckHostData{RoomID: "r"}))
	got := drain(t, probe)
	var present HostPresentData
	if err := json.Unmarshal(findEvent(t, got, EventHostPresent), &present); err != nil {
		t.Fatal(err)
	}
	if present.HostPresent {
		t.Error("check-host reported a host for a removed room")
	}
}

func TestCheckHostWithLiveHost(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")

	probe := newTestClient(t, h, "q", "")
	h.route(probe, envelope(EventCheckHost, CheckHostData{RoomID: "r"}))
	var present HostPresentData
	if err := json.Unmarshal(findEvent(t, drain(t, probe), EventHostPresent), &present); err != nil {
		t.Fatal(err)
	}
	if !present.HostPresent {
		t.Error("check-host = false with a live host")
	}
}

func TestMediaControlExcludesSender(t *testing.T) {
	h := NewHub(NewRegistry())
	host := newTestClient(t, h, "h", "")
	joinRoom(h, host, "r", "Host", "host")
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "r", "Peer", "participant")
	drain(t, host)
	drain(t, p)

	h.route(p, envelope(EventMuteToggle, MuteToggleData{RoomID: "r", UserID: "Peer", IsMuted: true}))

	if got := drain(t, p); len(got) != 0 {
		t.Errorf("mute notification echoed to sender: %v", eventsOf(got))
	}
	got := drain(t, host)
	var muted MuteToggleData
	if err := json.Unmarshal(findEvent(t, got, EventUserMuted), &muted); err != nil {
		t.Fatal(err)
	}
	if muted.UserID != "Peer" || !muted.IsMuted {
		t.Errorf("user-muted = %+v", muted)
	}

	h.route(p, envelope(EventScreenShareStarted, nil))
	got = drain(t, host)
	var share ScreenShareData
	if err := json.Unmarshal(findEvent(t, got, EventScreenShareStarted), &share); err != nil {
		t.Fatal(err)
	}
	if share.UserID != "Peer" || share.ConnectionID != "p" {
		t.Errorf("screen-share-started = %+v", share)
	}
}

// silenceLogs suppresses the per-connection log lines for tests that churn
// through thousands of joins.
func silenceLogs(t *testing.T) {
	t.Helper()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
}

func TestConcurrentJoinLeaveKeepsMembersRegistered(t *testing.T) {
	silenceLogs(t)
	h := NewHub(NewRegistry())

	const workers = 4
	const iterations = 2000

	var violations atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				c := NewClient(h, nil, fmt.Sprintf("w%d-%d", w, i), "")
				h.Register(c)
				h.handleJoin(c, JoinRoomData{RoomID: "r", UserID: "U", Role: "participant"})

				// Between a connection's join and its own leave, the
				// room must be present and must contain it: a
				// concurrent leave may only remove the room when the
				// membership is empty, and this member is not.
				room, ok := h.registry.Get("r")
				if !ok {
					violations.Add(1)
				} else {
					seated := false
					for _, m := range room.members("") {
						if m.ConnectionID == c.ID {
							seated = true
							break
						}
					}
					if !seated {
						violations.Add(1)
					}
				}

				h.Disconnect(c)
			}
		}(w)
	}
	wg.Wait()

	if n := violations.Load(); n > 0 {
		t.Fatalf("room absent or member missing while a joined connection existed: %d times", n)
	}
}

func TestConcurrentHostTakeoverAndChat(t *testing.T) {
	silenceLogs(t)
	h := NewHub(NewRegistry())

	speaker := newTestClient(t, h, "speaker", "")
	joinRoom(h, speaker, "r", "Speaker", "participant")

	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			c := NewClient(h, nil, fmt.Sprintf("h%d", i), "")
			h.Register(c)
			h.handleJoin(c, JoinRoomData{RoomID: "r", UserID: "Host", Role: "host"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			h.route(speaker, envelope(EventSendChat, SendChatData{RoomID: "r", Message: "hi"}))
		}
	}()
	wg.Wait()

	history := h.History("r")
	if len(history) != maxChatHistory {
		t.Fatalf("history length = %d, want %d", len(history), maxChatHistory)
	}
	for _, msg := range history {
		if msg.From != "Speaker" || msg.Role != RoleParticipant {
			t.Fatalf("history entry = %+v, want Speaker/participant", msg)
		}
	}
}

func TestEmptyRoomIDIsAValidRoom(t *testing.T) {
	h := NewHub(NewRegistry())
	p := newTestClient(t, h, "p", "")
	joinRoom(h, p, "", "Anon", "participant")

	if _, ok := h.registry.Get(""); !ok {
		t.Fatal("empty roomId did not create a room")
	}
	got := drain(t, p)
	if countEvent(got, EventAllUsers) != 1 || countEvent(got, EventChatPermission) != 1 {
		t.Errorf("joiner of empty-id room missed the room picture: %v", eventsOf(got))
	}
}
