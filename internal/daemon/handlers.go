package daemon

import (
	"encoding/json"
	"fmt"
	"time"
)

type handlerFunc func(s *Server, params json.RawMessage) (any, error)

var handlers = map[string]handlerFunc{
	MethodStatus: (*Server).handleStatus,
	MethodSet:    (*Server).handleSet,
	MethodStart:  action(MethodStart, Timer.Start),
	MethodPause:  action(MethodPause, Timer.Pause),
	MethodReset:  action(MethodReset, Timer.Reset),
	MethodStop:   (*Server).handleStop,
}

// dispatch runs the handler for req and encodes its result.
func (s *Server) dispatch(req *Request) Response {
	h, ok := handlers[req.Method]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown method %q", req.Method)}
	}

	result, err := h(s, req.Params)
	if err != nil {
		return Response{Error: err.Error()}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return Response{Error: fmt.Sprintf("encode result: %v", err)}
	}
	return Response{Result: data}
}

func (s *Server) handleStatus(json.RawMessage) (any, error) {
	return s.status(), nil
}

// handleSet configures a new duration. Like the countdown itself, a
// non-positive duration is ignored and reported as unchanged.
func (s *Server) handleSet(params json.RawMessage) (any, error) {
	var p SetParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	changed := s.timer.SetDuration(p.Seconds)
	s.logger.Info("control set", "seconds", p.Seconds, "changed", changed)
	return ActionResponse{Changed: changed, Status: s.status()}, nil
}

// action adapts a parameterless countdown operation.
func action(method string, op func(Timer) bool) handlerFunc {
	return func(s *Server, _ json.RawMessage) (any, error) {
		changed := op(s.timer)
		s.logger.Info("control "+method, "changed", changed)
		return ActionResponse{Changed: changed, Status: s.status()}, nil
	}
}

// handleStop stops the countdown and closes the socket, immediately when
// forced and after the stop grace otherwise.
func (s *Server) handleStop(params json.RawMessage) (any, error) {
	var p StopParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	s.logger.Info("control stop", "force", p.Force)
	s.timer.Stop()

	if p.Force || s.stopGrace <= 0 {
		_ = s.Close()
	} else {
		time.AfterFunc(s.stopGrace, func() { _ = s.Close() })
	}
	return "stopping", nil
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
