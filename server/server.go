// Package server wires a Lobby to a raw TCP listener, spawning one Session
// per accepted connection.
//
// Grounded on the teacher's main.go runHTTPServer: a listener goroutine
// plus signal-driven graceful shutdown, generalized from
// http.Server.ListenAndServe to a net.Listener.Accept loop since §6.2 fixes
// the wire protocol as raw TCP, not HTTP.
package server

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/crosswd/xserver/lobby"
	"github.com/crosswd/xserver/session"
)

// Server accepts connections on a TCP listener and runs one Session per
// connection against a shared Lobby.
type Server struct {
	addr  string
	lobby *lobby.Lobby
	log   *log.Logger

	mu       sync.Mutex
	ln       net.Listener
	wg       sync.WaitGroup
	shutdown bool
}

// New builds a Server that will listen on addr (host:port) once Run starts.
func New(addr string, l *lobby.Lobby) *Server {
	return &Server{
		addr:  addr,
		lobby: l,
		log:   log.New(log.Writer(), "[server] ", log.LstdFlags),
	}
}

// Run listens on s.addr and accepts connections until the listener is
// closed by Shutdown, or Listen or Accept fails. After Shutdown it blocks
// until every spawned Session has returned; on a Listen or Accept failure
// it returns at once.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Printf("listening on %s", s.addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			shuttingDown := s.shutdown
			s.mu.Unlock()
			if shuttingDown {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		connID := uuid.NewString()
		s.log.Printf("conn %s: accepted from %s", connID, conn.RemoteAddr())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.log.Printf("conn %s: closed", connID)
			session.New(conn, s.lobby).Run()
		}()
	}
}

// Shutdown closes the listener, causing Run's Accept loop to exit once any
// in-flight connections finish. It does not forcibly close live Sessions:
// each keeps running until its own client disconnects or quits.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	ln := s.ln
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
}
