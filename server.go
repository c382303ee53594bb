package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CodedInternet/gomixer/logging"
	"github.com/CodedInternet/gomixer/onboard"
	"github.com/CodedInternet/gomixer/onboard/hardware"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// STATE_RATE is how many state snapshots a websocket client receives per second.
const STATE_RATE = 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	device   *onboard.Multirotor
	runner   *onboard.Runner
	registry *prometheus.Registry
	log      logging.Logger
}

type StatePayload struct {
	Frame  string                    `json:"frame"`
	Armed  bool                      `json:"armed"`
	Cmd    hardware.Command          `json:"command"`
	Motors []onboard.NamedMotorState `json:"motors"`
}

// CommandRequest is the body of POST /api/command and of websocket messages.
type CommandRequest struct {
	*hardware.Command
}

func (c *CommandRequest) Bind(r *http.Request) error {
	if c.Command == nil {
		return fmt.Errorf("missing command fields")
	}
	return nil
}

type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "invalid request",
		ErrorText:      err.Error(),
	}
}

func NewServer(device *onboard.Multirotor, runner *onboard.Runner, registry *prometheus.Registry, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{device: device, runner: runner, registry: registry, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/motors", s.motors)
		r.Get("/gains", s.gains)
		r.Post("/command", s.command)
		r.Post("/stop", s.stop)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/ws", func(r chi.Router) {
		r.Get("/state", s.stateSocket)
	})

	return r
}

func (s *Server) state() StatePayload {
	cmd, armed := s.runner.Command()
	return StatePayload{
		Frame:  s.device.Name,
		Armed:  armed,
		Cmd:    cmd,
		Motors: s.device.State(),
	}
}

func (s *Server) motors(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.state())
}

func (s *Server) gains(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.device.Gains())
}

func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	data := &CommandRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	s.runner.SetCommand(*data.Command)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, s.device.Preview(*data.Command))
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	s.runner.Stop()
	render.JSON(w, r, s.state())
}

// stateSocket streams state snapshots and accepts commands on the same
// connection. A client that goes away stops nothing; the failsafe covers it.
func (s *Server) stateSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			var cmd hardware.Command
			if err := conn.ReadJSON(&cmd); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Debug(ctx, "websocket read", logging.Err(err))
				}
				return
			}
			s.runner.SetCommand(cmd)
		}
	}()

	ticker := time.NewTicker(time.Second / STATE_RATE)
	defer ticker.Stop()

	for {
		if err := conn.SetWriteDeadline(time.Now().Add(time.Second)); err != nil {
			return
		}
		if err := conn.WriteJSON(s.state()); err != nil {
			s.log.Debug(ctx, "websocket write", logging.Err(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
