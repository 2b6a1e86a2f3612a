package service

import (
	"context"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/gorilla/websocket"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/reporter"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *nethttp.Request) bool {
		return true
	},
}

// StreamMessage websocket 下行消息，Type 为 status、block、report、error 之一
type StreamMessage struct {
	Type     string       `json:"type"`
	State    string       `json:"state,omitempty"`
	Label    string       `json:"label,omitempty"`
	Expanded bool         `json:"expanded,omitempty"`
	Kind     string       `json:"kind,omitempty"`
	Text     string       `json:"text,omitempty"`
	Report   *ReportReply `json:"report,omitempty"`
	Error    string       `json:"error,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// wsStream 同一连接上串行写入，同时实现 reporter.Sink 与 report.Status
type wsStream struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	s      *ReportService
}

func (w *wsStream) send(msg *StreamMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteJSON(msg); err != nil {
		w.closed = true
		w.s.log.Warnf("websocket 写入失败: %v", err)
	}
}

func (w *wsStream) Append(b reporter.Block) {
	w.send(&StreamMessage{Type: "block", Kind: string(b.Kind), Text: b.Text})
}

func (w *wsStream) Update(state report.State, label string, expanded bool) {
	if state == report.StateError {
		return
	}
	w.send(&StreamMessage{Type: "status", State: string(state), Label: label, Expanded: expanded})
}

// StreamReport 升级为 websocket 后生成报告，子问题回答完成即推送。客户端断开时取消生成
func (s *ReportService) StreamReport(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := r.URL.Query().Get("company")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	stream := &wsStream{conn: conn, s: s}
	rec, err := s.uc.Generate(ctx, name, stream, stream)
	if err != nil {
		msg := &StreamMessage{Type: "error", Error: err.Error()}
		if se := errors.FromError(err); se != nil {
			msg.Reason = se.Reason
			msg.Error = se.Message
		}
		stream.send(msg)
	} else {
		stream.send(&StreamMessage{Type: "report", Report: toReportReply(rec)})
	}

	stream.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	stream.mu.Unlock()
}
