package ws

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// 事件名与客户端保持一致，不可随意修改。
const (
	EventJoin        = "join"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"

	EventMessage     = "message"
	EventOnlineUsers = "onlineUsers"
)

// Envelope 是 websocket 上传输的帧：{"event": "...", "data": ...}。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// route 只取出路由所需字段，data 本身原样转发。
type route struct {
	Sender    json.RawMessage `json:"sender"`
	Recipient json.RawMessage `json:"recipient"`
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// parseUserID 接受 JSON 字符串或数字形式的用户 id。
func parseUserID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	// 数字 id 统一成十进制整数形式，7、7.0、7e0 落在同一个分组。
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return strconv.FormatUint(u, 10)
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f > maxExactFloat {
		return ""
	}
	return strconv.FormatUint(uint64(f), 10)
}

// maxExactFloat 是 float64 能精确表示的最大整数。
const maxExactFloat = 1 << 53
