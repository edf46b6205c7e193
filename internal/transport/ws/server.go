package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KungSimon/VillageOfTesting/internal/protocol"
	"github.com/KungSimon/VillageOfTesting/internal/sim/host"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

type Server struct {
	host *host.Host
	log  *log.Logger

	welcome  protocol.WelcomeMsg
	sessions atomic.Uint64

	upgrader websocket.Upgrader
}

// NewServer must be called before h.Run starts; it reads the immutable
// catalog and rules of the hosted village.
func NewServer(h *host.Host, logger *log.Logger) *Server {
	s := &Server{
		host:    h,
		log:     logger,
		welcome: welcomeFor(h.Village()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hello, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan []byte, 16)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		if hello.Subscribe {
			id, states := s.host.Subscribe()
			defer s.host.Unsubscribe(id)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case st, ok := <-states:
						if !ok {
							return
						}
						s.send(ctx, out, stateMsg(st))
					}
				}
			}()
		}

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.handleMessage(ctx, out, msg)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, out chan<- []byte, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeCmd {
		s.send(ctx, out, badRequest("", protocol.ErrProtoBadRequest, "expected CMD"))
		return
	}
	var cmd protocol.CmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		s.send(ctx, out, badRequest("", protocol.ErrProtoBadRequest, "malformed CMD"))
		return
	}
	if cmd.ProtocolVersion != protocol.Version {
		s.send(ctx, out, badRequest(cmd.CmdID, protocol.ErrProtoBadRequest, "bad protocol_version"))
		return
	}
	hc, err := hostCommand(cmd)
	if err != nil {
		s.send(ctx, out, badRequest(cmd.CmdID, protocol.ErrBadRequest, err.Error()))
		return
	}

	res, err := s.host.Submit(ctx, hc)
	if err != nil {
		if ctx.Err() == nil && s.log != nil {
			s.log.Printf("submit %s: %v", cmd.Op, err)
		}
		s.send(ctx, out, badRequest(cmd.CmdID, protocol.ErrInternal, err.Error()))
		return
	}
	s.send(ctx, out, ackMsg(cmd.CmdID, res))
	if cmd.Op == protocol.OpState {
		s.send(ctx, out, stateMsg(res.State))
	}
}

func (s *Server) send(ctx context.Context, out chan<- []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	case <-ctx.Done():
	}
}

func (s *Server) handshake(conn *websocket.Conn) (protocol.HelloMsg, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return protocol.HelloMsg{}, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return protocol.HelloMsg{}, false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return protocol.HelloMsg{}, false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return protocol.HelloMsg{}, false
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	welcome := s.welcome
	welcome.SessionID = fmt.Sprintf("S%d", s.sessions.Add(1))
	if err := writeJSON(conn, welcome); err != nil {
		return protocol.HelloMsg{}, false
	}
	if s.log != nil {
		s.log.Printf("session %s client=%q subscribe=%v", welcome.SessionID, hello.ClientName, hello.Subscribe)
	}
	return hello, true
}

func hostCommand(cmd protocol.CmdMsg) (host.Command, error) {
	switch cmd.Op {
	case protocol.OpAddWorker:
		return host.Command{Op: host.OpAddWorker, Name: cmd.Name, Occupation: cmd.Occupation}, nil
	case protocol.OpAddProject:
		return host.Command{Op: host.OpAddProject, Name: cmd.Name}, nil
	case protocol.OpDay:
		if cmd.Days < 0 || cmd.Days > host.MaxDaysPerCommand {
			return host.Command{}, fmt.Errorf("days out of range: %d", cmd.Days)
		}
		return host.Command{Op: host.OpDay, Days: cmd.Days}, nil
	case protocol.OpState:
		return host.Command{Op: host.OpState}, nil
	default:
		return host.Command{}, fmt.Errorf("unknown op %q", cmd.Op)
	}
}

// codeFor maps a village rejection to a protocol error code.
func codeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, village.ErrUnknownOccupation):
		return protocol.ErrUnknownOccupation
	case errors.Is(err, village.ErrUnknownProject):
		return protocol.ErrUnknownProject
	case errors.Is(err, village.ErrRosterFull):
		return protocol.ErrRosterFull
	case errors.Is(err, village.ErrInsufficientResources):
		return protocol.ErrNoResource
	case errors.Is(err, village.ErrGameOver):
		return protocol.ErrGameOver
	case errors.Is(err, host.ErrBadOp):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
