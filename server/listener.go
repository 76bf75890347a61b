package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/flyclient-go/superlight/logging"
	"github.com/flyclient-go/superlight/wire"
)

// Listener runs the TCP accept loop. Each accepted connection carries
// exactly one request, per the protocol's connection-per-request half-close
// framing: the client writes the request, half-closes its write side, the
// server reads to EOF, writes the response, and closes.
type Listener struct {
	listener net.Listener
	writer   *Writer
	log      logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewListener binds addr and returns a Listener ready to Serve.
func NewListener(addr string, writer *Writer) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		listener: ln,
		writer:   writer,
		log:      logging.For("listener"),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Serve runs the accept loop until Stop is called. It blocks.
func (l *Listener) Serve() {
	l.running.Store(true)
	l.wg.Add(1)
	defer l.wg.Done()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.ctx.Done():
				return
			default:
				if errors.Is(err, net.ErrClosed) {
					return
				}
				l.log.Infof("accept: %v", err)
				continue
			}
		}
		l.wg.Add(1)
		go l.handleConn(conn)
	}
}

// Stop closes the listener and waits for in-flight connection handlers to
// finish.
func (l *Listener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.cancel()
	l.listener.Close()
	l.wg.Wait()
}

func (l *Listener) handleConn(conn net.Conn) {
	defer l.wg.Done()
	defer conn.Close()

	connID := uuid.NewString()

	raw, err := io.ReadAll(conn)
	if err != nil {
		l.log.Infof("[%s] read request: %v", connID, err)
		return
	}

	req, err := wire.DecodeRequest(raw)
	if err != nil {
		l.log.Infof("[%s] decode request: %v", connID, err)
		writeError(conn, err)
		return
	}

	resp, err := l.writer.Submit(connID, req)
	if err != nil {
		writeError(conn, err)
		return
	}

	if _, err := conn.Write(resp.Encode()); err != nil {
		l.log.Infof("[%s] write response: %v", connID, err)
	}
}

func writeError(conn net.Conn, err error) {
	resp := wire.Response{Tag: wire.RespError, ErrorMessage: err.Error()}
	conn.Write(resp.Encode())
}
