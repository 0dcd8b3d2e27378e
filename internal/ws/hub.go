package ws

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/nidhijagga/quicktalk-be/internal/metrics"

	"github.com/rs/zerolog/log"
)

type inbound struct {
	client *Client
	data   []byte
}

// Hub 维护实时连接、按用户划分的广播组与在线用户集合。
// 这些状态只在 Run 所在的 goroutine 内读写，外部通过 channel 投递事件。
type Hub struct {
	clients map[*Client]struct{}
	groups  map[string]map[*Client]struct{}
	dead    map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}

	// 供 REST 接口读取的在线用户快照。
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		dead:       make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		done:       make(chan struct{}),
		online:     make(map[string]struct{}),
	}
}

// Run 是事件循环，ctx 取消后关闭所有连接并返回。
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.WsConnections.Inc()
			log.Debug().Str("socket_id", c.id).Int("connections", len(h.clients)).Msg("ws connect")
		case c := <-h.unregister:
			h.remove(c)
		case in := <-h.inbound:
			h.handle(in.client, in.data)
		}
		h.reap()
	}
}

// Register 对应 connect：创建连接，此时尚未关联用户。
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 对应 disconnect。
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch 把客户端发来的一帧交给事件循环处理。
func (h *Hub) Dispatch(c *Client, data []byte) {
	select {
	case h.inbound <- inbound{client: c, data: data}:
	case <-h.done:
	}
}

// OnlineUsers 返回排序后的在线用户 id。
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.online))
	for id := range h.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.online[userID]
	return ok
}

func (h *Hub) handle(c *Client, data []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("socket_id", c.id).Msg("ws invalid frame")
		return
	}
	metrics.WsEventsTotal.WithLabelValues(eventLabel(env.Event)).Inc()

	switch env.Event {
	case EventJoin:
		h.join(c, parseUserID(env.Data))
	case EventSendMessage:
		h.forward(c, EventMessage, env.Data, true)
	case EventTyping, EventStopTyping:
		h.forward(c, env.Event, env.Data, false)
	default:
		log.Debug().Str("socket_id", c.id).Str("event", env.Event).Msg("ws unknown event")
	}
}

func (h *Hub) join(c *Client, userID string) {
	if userID == "" {
		log.Debug().Str("socket_id", c.id).Msg("ws join without user id")
		return
	}
	if c.userID == userID {
		// 重复 join 不改变分组，但仍下发列表让客户端重新同步。
		h.broadcastOnline()
		return
	}
	if c.userID != "" {
		h.leave(c)
	}
	c.userID = userID
	group := h.groups[userID]
	if group == nil {
		group = make(map[*Client]struct{})
		h.groups[userID] = group
	}
	group[c] = struct{}{}
	log.Debug().Str("socket_id", c.id).Str("user_id", userID).Msg("ws join")
	h.broadcastOnline()
}

// leave 把连接移出它的用户组。组为空时用户才算离线。
func (h *Hub) leave(c *Client) {
	group := h.groups[c.userID]
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, c.userID)
	}
	c.userID = ""
}

// forward 把 data 原样转发给接收方的用户组；echo 为 true 时发送方连接也收到一份。
func (h *Hub) forward(c *Client, event string, data json.RawMessage, echo bool) {
	var r route
	if err := json.Unmarshal(data, &r); err != nil {
		log.Debug().Err(err).Str("socket_id", c.id).Str("event", event).Msg("ws invalid payload")
		return
	}
	recipient := parseUserID(r.Recipient)
	if recipient == "" {
		return
	}
	b, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	for cli := range h.groups[recipient] {
		h.deliver(cli, b)
	}
	if echo {
		// 发给自己的消息只回显一次。
		if _, inGroup := h.groups[recipient][c]; !inGroup {
			h.deliver(c, b)
		}
	}
}

func (h *Hub) broadcastOnline() {
	users := h.publish()
	b, err := encode(EventOnlineUsers, users)
	if err != nil {
		return
	}
	for cli := range h.clients {
		h.deliver(cli, b)
	}
}

// publish 刷新在线快照并返回排序后的列表。
func (h *Hub) publish() []string {
	users := make([]string, 0, len(h.groups))
	online := make(map[string]struct{}, len(h.groups))
	for id := range h.groups {
		users = append(users, id)
		online[id] = struct{}{}
	}
	sort.Strings(users)
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
	metrics.OnlineUsers.Set(float64(len(users)))
	return users
}

// deliver 非阻塞写入发送队列，队列满的连接在本轮事件结束后被踢出。
func (h *Hub) deliver(c *Client, b []byte) {
	if _, dead := h.dead[c]; dead {
		return
	}
	select {
	case c.send <- b:
	default:
		h.dead[c] = struct{}{}
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	delete(h.dead, c)
	close(c.send)
	metrics.WsConnections.Dec()
	log.Debug().Str("socket_id", c.id).Str("user_id", c.userID).Int("connections", len(h.clients)).Msg("ws disconnect")
	if c.userID != "" {
		h.leave(c)
		h.broadcastOnline()
	}
}

// reap 踢出慢消费者；踢出时的 onlineUsers 广播可能产生新的慢消费者，所以循环处理。
func (h *Hub) reap() {
	for len(h.dead) > 0 {
		batch := h.dead
		h.dead = make(map[*Client]struct{})
		for c := range batch {
			log.Warn().Str("socket_id", c.id).Str("user_id", c.userID).Msg("ws dropping slow connection")
			h.remove(c)
		}
	}
}

func (h *Hub) shutdown() {
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		metrics.WsConnections.Dec()
	}
	h.groups = make(map[string]map[*Client]struct{})
	h.publish()
}

func eventLabel(event string) string {
	switch event {
	case EventJoin, EventSendMessage, EventTyping, EventStopTyping:
		return event
	default:
		return "unknown"
	}
}
