package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/image/draw"

	volray "github.com/gekko3d/volray"
	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
	"github.com/gekko3d/volray/volrt/rt/soft"
)

// FrameMessage is sent to every client after each rendered frame.
type FrameMessage struct {
	Type   string  `json:"type"`
	Seq    uint64  `json:"seq"`
	Step   float32 `json:"step"`
	Source string  `json:"source"`
	PNG    string  `json:"png"`
}

// KeyMessage is what clients send for key presses and releases.
type KeyMessage struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	Down bool   `json:"down"`
}

type client struct {
	id uuid.UUID
	mu sync.Mutex
}

// Server renders the volume on the CPU and streams frames over websockets.
// Remote key input drives the same Controller as the window.
type Server struct {
	Controller *control.Controller
	Pipeline   *soft.Pipeline
	Camera     *core.OrbitCamera
	Width      int
	Interval   time.Duration

	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*client

	frameMu sync.Mutex
	latest  *FrameMessage
	seq     uint64

	log volray.Logger
}

func NewServer(ctrl *control.Controller, pipeline *soft.Pipeline, cam *core.OrbitCamera, width int, interval time.Duration, log volray.Logger) *Server {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Server{
		Controller: ctrl,
		Pipeline:   pipeline,
		Camera:     cam,
		Width:      width,
		Interval:   interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, any origin
			},
		},
		clients: make(map[*websocket.Conn]*client),
		log:     volray.OrNop(log),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveHome)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(viewerHTML))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	c := &client{id: uuid.New()}
	s.clientsMu.Lock()
	s.clients[conn] = c
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		s.log.Infof("session %s closed", c.id)
	}()
	s.log.Infof("session %s connected from %s", c.id, r.RemoteAddr)

	if msg := s.Latest(); msg != nil {
		s.send(conn, c, msg)
	}

	for {
		var msg KeyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("session %s read: %v", c.id, err)
			}
			return
		}
		s.HandleKey(msg)
	}
}

// HandleKey forwards a remote key message to the controller. Unknown
// message types and empty keys are ignored.
func (s *Server) HandleKey(msg KeyMessage) {
	if msg.Type != "key" {
		return
	}
	key, ok := keyCode(msg.Key)
	if !ok {
		return
	}
	if msg.Down {
		s.Controller.KeyDown(key)
	} else {
		s.Controller.KeyUp(key)
	}
}

func keyCode(name string) (int, bool) {
	switch name {
	case "Escape":
		return control.KeyEscape, true
	case " ", "Space":
		return control.KeySpace, true
	}
	if len(name) != 1 {
		return 0, false
	}
	return control.Normalize(int(name[0])), true
}

func (s *Server) send(conn *websocket.Conn, c *client, msg *FrameMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warnf("session %s write: %v", c.id, err)
		return false
	}
	return true
}

func (s *Server) broadcast(msg *FrameMessage) {
	s.clientsMu.RLock()
	var dead []*websocket.Conn
	for conn, c := range s.clients {
		if !s.send(conn, c, msg) {
			dead = append(dead, conn)
		}
	}
	s.clientsMu.RUnlock()

	for _, conn := range dead {
		conn.Close()
	}
}

func (s *Server) Latest() *FrameMessage {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.latest
}

// RenderFrame advances the camera, polls held keys and renders one frame
// into a FrameMessage.
func (s *Server) RenderFrame() (*FrameMessage, error) {
	s.Controller.Poll()
	s.Camera.Advance()

	step := s.Controller.Step().Get()
	src := s.Controller.Source()
	frame := s.Pipeline.Render(s.Camera.Frame(s.Pipeline.Width, s.Pipeline.Height), step, src)

	encoded, err := encodePNG(scaleTo(soft.ToRGBA8(frame.Presented), s.Width))
	if err != nil {
		return nil, err
	}

	s.frameMu.Lock()
	s.seq++
	msg := &FrameMessage{
		Type:   "frame",
		Seq:    s.seq,
		Step:   step,
		Source: src.String(),
		PNG:    encoded,
	}
	s.latest = msg
	s.frameMu.Unlock()
	return msg, nil
}

// Run renders and broadcasts frames until ctx is done. A frame in progress
// always completes.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			msg, err := s.RenderFrame()
			if err != nil {
				s.log.Errorf("preview frame: %v", err)
				continue
			}
			s.broadcast(msg)
		}
	}
}

// ListenAndServe serves the viewer on addr and renders until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	go func() {
		_ = s.Run(ctx)
	}()
	s.log.Infof("preview on http://%s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// scaleTo resizes img to the given width, keeping the aspect ratio.
func scaleTo(img *image.RGBA, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || width == b.Dx() {
		return img
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
