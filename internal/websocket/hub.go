package websocket

import (
	"encoding/json"
	"sync"
)

// Hub 管理所有 WebSocket 连接
// 客户端可订阅单个申请,也可不带过滤订阅全部领域事件
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 广播领域事件到订阅的客户端
	events chan []byte

	// 互斥锁,保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		events:     make(chan []byte, 256),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.events:
			h.dispatch(message)
		}
	}
}

// BroadcastEvent 把序列化后的领域事件送入广播队列,满时丢弃
// 推送对订阅者尽力而为,不阻塞事件投递
func (h *Hub) BroadcastEvent(message []byte) {
	select {
	case h.events <- message:
	default:
	}
}

// dispatch 按申请订阅过滤后推送
func (h *Hub) dispatch(message []byte) {
	var envelope struct {
		ApplicationID string `json:"application_id"`
	}
	_ = json.Unmarshal(message, &envelope)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.ApplicationID != "" && client.ApplicationID != envelope.ApplicationID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			// 发送缓冲已满,视为失联
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
