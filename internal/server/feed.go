package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shouni/go-comicflow/pkg/domain"
)

const (
	feedWriteWait = 5 * time.Second
	// feedSendBuffer を超えて溜まった購読者は遅すぎるとみなして切断する
	feedSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedEvent はフィードで配信されるメッセージです。
type FeedEvent struct {
	Type    string         `json:"type"`
	StoryID string         `json:"story_id"`
	Panel   *PanelResponse `json:"panel,omitempty"`
	At      time.Time      `json:"at"`
}

// subscriber は 1 接続ぶんの送信キューです。書き込みは writeLoop だけが行う。
type subscriber struct {
	ws   *websocket.Conn
	send chan []byte
}

func (s *subscriber) writeLoop(storyID string) {
	for payload := range s.send {
		_ = s.ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := s.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("フィード購読者への送信に失敗したため切断します", "story_id", storyID, "error", err)
			_ = s.ws.Close()
			return
		}
	}
}

// Feed はストーリーごとの購読者にパネル追記を配信する websocket ハブです。
type Feed struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]*subscriber
}

// NewFeed は空の Feed を生成します。
func NewFeed() *Feed {
	return &Feed{rooms: make(map[string]map[*websocket.Conn]*subscriber)}
}

// Join は接続を storyID の購読者に加えます。
func (f *Feed) Join(storyID string, ws *websocket.Conn) {
	sub := &subscriber{ws: ws, send: make(chan []byte, feedSendBuffer)}
	go sub.writeLoop(storyID)

	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[storyID]
	if !ok {
		room = make(map[*websocket.Conn]*subscriber)
		f.rooms[storyID] = room
	}
	room[ws] = sub
}

// Leave は接続を購読者から外して閉じます。
func (f *Feed) Leave(storyID string, ws *websocket.Conn) {
	f.mu.Lock()
	f.removeLocked(storyID, ws)
	f.mu.Unlock()

	_ = ws.Close()
}

// Subscribers は storyID の購読者数を返します。
func (f *Feed) Subscribers(storyID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rooms[storyID])
}

// PanelAdded は永続化されたパネルを購読者へ配信します。送信の完了は待ちません。
func (f *Feed) PanelAdded(storyID string, panel domain.Panel) {
	resp := toPanelResponse(panel)
	f.broadcast(FeedEvent{
		Type:    "panel",
		StoryID: storyID,
		Panel:   &resp,
		At:      time.Now().UTC(),
	})
}

func (f *Feed) broadcast(ev FeedEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("フィードイベントのエンコードに失敗しました", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for ws, sub := range f.rooms[ev.StoryID] {
		select {
		case sub.send <- payload:
		default:
			slog.Warn("フィード購読者の送信キューが溢れたため切断します", "story_id", ev.StoryID)
			f.removeLocked(ev.StoryID, ws)
			_ = ws.Close()
		}
	}
}

// removeLocked は購読者を外して送信キューを閉じます。f.mu を保持して呼ぶこと。
func (f *Feed) removeLocked(storyID string, ws *websocket.Conn) {
	room, ok := f.rooms[storyID]
	if !ok {
		return
	}
	if sub, exists := room[ws]; exists {
		close(sub.send)
		delete(room, ws)
	}
	if len(room) == 0 {
		delete(f.rooms, storyID)
	}
}
