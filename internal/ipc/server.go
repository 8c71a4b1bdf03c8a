// Package ipc bridges a host shell to the app over a unix socket. Each line
// on the socket is one JSON request and gets one JSON response line back.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"nearby_go/internal/coordinator"
	"nearby_go/internal/lifecycle"
	"nearby_go/internal/notify"
)

// Controller is the slice of the coordinator the bridge drives.
type Controller interface {
	Snapshot() coordinator.State
	Refresh()
}

type ItemCounter interface {
	Size() int
}

type LifecyclePublisher interface {
	Publish(state lifecycle.State)
}

type NotificationPublisher interface {
	Publish(event notify.Event)
}

type Server struct {
	socketPath    string
	ctrl          Controller
	items         ItemCounter
	lifecycle     LifecyclePublisher
	notifications NotificationPublisher
	logger        *log.Entry
}

func New(socketPath string, ctrl Controller, items ItemCounter, states LifecyclePublisher, notes NotificationPublisher) *Server {
	return &Server{
		socketPath:    strings.TrimSpace(socketPath),
		ctrl:          ctrl,
		items:         items,
		lifecycle:     states,
		notifications: notes,
		logger:        log.WithField("component", "ipc"),
	}
}

// Run listens until ctx is cancelled. An empty socket path disables it.
func (s *Server) Run(ctx context.Context) error {
	if s.socketPath == "" || s.ctrl == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.socketPath, err)
	}
	defer func() {
		_ = ln.Close()
		_ = os.Remove(s.socketPath)
	}()
	_ = os.Chmod(s.socketPath, 0o600)
	s.logger.WithField("socket", s.socketPath).Info("ipc listening")

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	enc := json.NewEncoder(conn)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			_ = enc.Encode(Response{OK: false, Error: "invalid json"})
			continue
		}

		if err := enc.Encode(s.handleRequest(req)); err != nil {
			s.logger.WithError(err).Debug("write response")
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	typ := strings.ToLower(strings.TrimSpace(req.Type))
	s.logger.WithField("type", typ).Debug("request")

	switch typ {
	case "status":
		return s.ok(typ)

	case "lifecycle":
		state, err := lifecycle.ParseState(req.State)
		if err != nil {
			return Response{OK: false, Action: typ, Error: err.Error()}
		}
		if s.lifecycle != nil {
			s.lifecycle.Publish(state)
		}
		return s.ok(typ)

	case "notification":
		event, err := notify.ParseEvent(req.Event)
		if err != nil {
			return Response{OK: false, Action: typ, Error: err.Error()}
		}
		if s.notifications != nil {
			s.notifications.Publish(event)
		}
		return s.ok(typ)

	case "refresh":
		s.ctrl.Refresh()
		return s.ok(typ)
	}

	return Response{
		OK:    false,
		Error: fmt.Sprintf("unsupported type: %s", req.Type),
	}
}

// ok answers with the coordinator state after every earlier request has
// been applied.
func (s *Server) ok(action string) Response {
	st := s.ctrl.Snapshot()
	resp := Response{OK: true, Action: action, State: &st}
	if s.items != nil {
		resp.Items = s.items.Size()
	}
	return resp
}

type Request struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	Event string `json:"event,omitempty"`
}

type Response struct {
	OK     bool               `json:"ok"`
	Action string             `json:"action,omitempty"`
	Error  string             `json:"error,omitempty"`
	State  *coordinator.State `json:"state,omitempty"`
	Items  int                `json:"items"`
}
