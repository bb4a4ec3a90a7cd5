// Package dui serves the DUI (Diplomacy Universal Interface) protocol from
// the engine side: it reads commands line by line, keeps the position and
// power being searched, and runs searches in the background so "stop" and
// "isready" are answered while a search is in progress.
package dui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProtocolVersion is the DUI protocol version reported in the handshake.
const ProtocolVersion = 1

// Request is one go command with the position it applies to.
type Request struct {
	Position string // DFEN
	Power    string
	Params   GoParams
}

// Searcher runs the searches of a session.
type Searcher interface {
	// SetOption applies a setoption command.
	SetOption(name, value string) error
	// Search returns the bestorders payload. It must return promptly once
	// ctx is done, with the best orders found so far.
	Search(ctx context.Context, req Request, info func(Info)) (string, error)
}

// Session is one protocol conversation.
type Session struct {
	ID      EngineID
	Options []EngineOption
	Logger  zerolog.Logger

	searcher Searcher

	mu sync.Mutex // guards w
	w  io.Writer

	position string
	power    string
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSession returns a session answering go commands with s.
func NewSession(id EngineID, s Searcher, options ...EngineOption) *Session {
	if id.ProtocolVersion == 0 {
		id.ProtocolVersion = ProtocolVersion
	}
	return &Session{ID: id, Options: options, Logger: zerolog.Nop(), searcher: s}
}

// Serve reads commands from r and writes responses to w until quit, end of
// input, or ctx is done. A search still running at that point is stopped
// and its bestorders written before Serve returns.
func (s *Session) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.w = w
	defer s.stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := s.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, line string) (quit bool) {
	cmd, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)
	s.Logger.Debug().Str("cmd", cmd).Str("args", args).Msg("dui command")

	switch cmd {
	case "":
	case "dui":
		s.handshake()
	case "isready":
		s.send("readyok")
	case "setoption":
		name, value, err := parseSetOption(args)
		if err == nil {
			err = s.searcher.SetOption(name, value)
		}
		if err != nil {
			s.sendError(err)
		}
	case "newgame":
		s.stop()
		s.position, s.power = "", ""
	case "position":
		s.position = args
	case "setpower":
		s.power = args
	case "go":
		s.start(ctx, args)
	case "stop":
		s.stop()
	case "quit":
		return true
	default:
		s.sendError(fmt.Errorf("unknown command %q", cmd))
	}
	return false
}

func (s *Session) handshake() {
	s.send("id name " + s.ID.Name)
	if s.ID.Author != "" {
		s.send("id author " + s.ID.Author)
	}
	for _, o := range s.Options {
		s.send(o.String())
	}
	s.send(fmt.Sprintf("protocol_version %d", s.ID.ProtocolVersion))
	s.send("duiok")
}

// start launches a search unless one is already running.
func (s *Session) start(ctx context.Context, args string) {
	if s.searching() {
		s.sendError(errors.New("search already running"))
		return
	}
	params, err := ParseGoParams(args)
	if err != nil {
		s.sendError(err)
		s.send("bestorders")
		return
	}
	if s.position == "" || s.power == "" {
		s.sendError(errors.New("position and setpower must precede go"))
		s.send("bestorders")
		return
	}

	var searchCtx context.Context
	var cancel context.CancelFunc
	if params.MoveTime > 0 && !params.Infinite {
		searchCtx, cancel = context.WithTimeout(ctx, time.Duration(params.MoveTime)*time.Millisecond)
	} else {
		searchCtx, cancel = context.WithCancel(ctx)
	}
	req := Request{Position: s.position, Power: s.power, Params: params}
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		orders, err := s.searcher.Search(searchCtx, req, func(i Info) { s.send(i.String()) })
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.sendError(err)
		}
		s.send(strings.TrimSpace("bestorders " + orders))
	}()
}

func (s *Session) searching() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// stop cancels a running search and waits for its bestorders line.
func (s *Session) stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

func (s *Session) sendError(err error) {
	s.Logger.Warn().Err(err).Msg("dui error")
	s.send("info string error: " + err.Error())
}

func (s *Session) send(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s\n", line)
}
