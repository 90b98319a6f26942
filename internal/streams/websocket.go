package streams

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
	"github.com/knotlang/knot/internal/strs"
)

// WS adapts a websocket connection to the byte-stream method contract:
// received messages queue up in buf and drain a byte at a time, writes
// send one text message per STREAM_PUTS.
type WS struct {
	conn   *websocket.Conn
	buf    []byte
	closed bool
}

func (ws *WS) getch() (byte, bool) {
	for len(ws.buf) == 0 {
		if ws.closed {
			return 0, false
		}
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			ws.closed = true
			return 0, false
		}
		ws.buf = data
	}
	b := ws.buf[0]
	ws.buf = ws.buf[1:]
	return b, true
}

func (ws *WS) puts(s string) error {
	return ws.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

func (ws *WS) ungets(s string) {
	ws.buf = append([]byte(s), ws.buf...)
}

func (ws *WS) close() {
	if ws.closed {
		return
	}
	ws.closed = true
	ws.conn.Close()
}

func wsGetch(m heap.Machine) heap.Status {
	in := m.(*machine.Interpreter)
	self := m.Pop()
	ws, ok := self.Ptr.(*WS)
	if !ok {
		return in.St.NotImpl
	}
	b, ok := ws.getch()
	if !ok {
		m.Push(heap.EOF(m.Heap()))
		return nil
	}
	m.Push(strs.Character(m.Heap(), b))
	return nil
}

func wsPuts(m heap.Machine) heap.Status {
	in := m.(*machine.Interpreter)
	self := m.Pop()
	ws, ok := self.Ptr.(*WS)
	if !ok {
		return in.St.NotImpl
	}
	s := m.Pop()
	if err := ws.puts(strs.Text(s)); err != nil {
		m.Push(heap.NewString(m.Heap(), "I/O error: "+err.Error()))
		return in.St.Error
	}
	return nil
}

func wsUngets(m heap.Machine) heap.Status {
	in := m.(*machine.Interpreter)
	self := m.Pop()
	ws, ok := self.Ptr.(*WS)
	if !ok {
		return in.St.NotImpl
	}
	s := m.Pop()
	ws.ungets(strs.Text(s))
	return nil
}

// WebsocketModule registers the websocket stream flavor. It shares the
// Stream variant with file streams; dispatch order plus the per-payload
// decline in each method body picks the right flavor.
func WebsocketModule() *registry.Module {
	return &registry.Module{
		Name: "streams/websocket",
		Methods: []*registry.Method{
			{Tag: heap.TagStream, Kind: registry.STREAM_GETCH, Fn: wsGetch},
			{Tag: heap.TagStream, Kind: registry.STREAM_PUTS, Fn: wsPuts},
			{Tag: heap.TagStream, Kind: registry.STREAM_UNGETS, Fn: wsUngets},
		},
		Funcs: []*heap.ModFunc{
			{
				Name: "WsConnect",
				Doc:  "(url -- stream) dial a websocket server",
				Fn: func(m heap.Machine, _ *heap.Cell) heap.Status {
					in := m.(*machine.Interpreter)
					urlc, ok := in.PopChecked()
					if !ok {
						in.Push(heap.NewString(in.Mem, "arity error: WsConnect needs 1 item(s) on the stack"))
						return in.St.Error
					}
					dialer := *websocket.DefaultDialer
					dialer.HandshakeTimeout = 10 * time.Second
					conn, _, err := dialer.Dial(strs.Text(urlc), nil)
					if err != nil {
						in.Push(heap.NewString(in.Mem, "websocket dial failed: "+err.Error()))
						return in.St.Error
					}
					ws := &WS{conn: conn}
					in.Push(heap.Stream(in.Mem, ws, func(*heap.Cell) { ws.close() }))
					return nil
				},
			},
		},
	}
}
