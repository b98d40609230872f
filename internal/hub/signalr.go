package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/philippseith/signalr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/model"
)

var errConnClosed = errors.New("hub connection closed")

// SignalRDialer opens hub connections over the SignalR JSON protocol.
type SignalRDialer struct {
	URL            string
	ConnectTimeout time.Duration
	// Debug enables the library's verbose protocol logging.
	Debug bool
}

func NewSignalRDialer(url string, connectTimeout time.Duration) *SignalRDialer {
	return &SignalRDialer{URL: url, ConnectTimeout: connectTimeout}
}

func (d *SignalRDialer) Dial(ctx context.Context, creds Credentials, handlers Handlers) (Conn, error) {
	connCtx, cancel := context.WithCancel(context.Background())

	// Dialing is bounded by the caller's ctx and the connect timeout; the
	// established connection lives until Close.
	timer := time.AfterFunc(d.ConnectTimeout, cancel)
	stopWatch := context.AfterFunc(ctx, cancel)
	defer func() {
		timer.Stop()
		stopWatch()
	}()

	headers := func() http.Header {
		h := make(http.Header)
		h.Set("UID", creds.DeviceHash)
		h.Set("Authorization", creds.AuthorizationHeader())
		return h
	}

	start := time.Now()
	httpConn, err := signalr.NewHTTPConnection(connCtx, d.URL, signalr.WithHTTPHeaders(headers))
	if err != nil {
		cancel()
		return nil, apperrors.HubConnectFailed(err)
	}

	client, err := signalr.NewClient(connCtx,
		signalr.WithConnection(httpConn),
		signalr.WithReceiver(&receiver{handlers: handlers}),
		signalr.Logger(newLogAdapter(log.Logger), d.Debug),
	)
	if err != nil {
		cancel()
		return nil, apperrors.HubConnectFailed(err)
	}

	client.Start()
	if err := <-client.WaitForState(connCtx, signalr.ClientConnected); err != nil {
		client.Stop()
		cancel()
		return nil, apperrors.HubConnectFailed(err)
	}

	c := &signalrConn{
		client: client,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.watch(connCtx)

	log.Info().
		Str("url", d.URL).
		Str("userId", creds.UserID).
		Dur("elapsed", time.Since(start)).
		Msg("hub connected")

	return c, nil
}

type signalrConn struct {
	client signalr.Client
	cancel context.CancelFunc

	once sync.Once
	done chan struct{}
}

func (c *signalrConn) watch(ctx context.Context) {
	<-c.client.WaitForState(ctx, signalr.ClientClosed)
	c.once.Do(func() { close(c.done) })
}

func (c *signalrConn) Invoke(ctx context.Context, method string, args ...any) error {
	select {
	case result := <-c.client.Invoke(method, args...):
		if result.Error != nil {
			return fmt.Errorf("invoke %s: %w", method, result.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errConnClosed
	}
}

func (c *signalrConn) Done() <-chan struct{} {
	return c.done
}

func (c *signalrConn) Close() error {
	c.client.Stop()
	c.cancel()
	c.once.Do(func() { close(c.done) })
	return nil
}

// receiver exposes the server-invoked methods. Arguments arrive as raw JSON
// so decode failures can be logged with the payload.
type receiver struct {
	handlers Handlers
}

func (r *receiver) ReceiveStatusUpdate(raw json.RawMessage) {
	var status model.UserStatus
	if decode(MethodReceiveStatusUpdate, raw, &status) {
		r.handlers.StatusUpdate(status)
	}
}

func (r *receiver) ReceiveSessionUpdate(raw json.RawMessage) {
	var session model.SessionInfo
	if decode(MethodReceiveSessionUpdate, raw, &session) {
		r.handlers.SessionUpdate(session)
	}
}

func (r *receiver) ReceiveMessage(raw json.RawMessage) {
	var msg model.Message
	if decode(MethodReceiveMessage, raw, &msg) {
		r.handlers.MessageReceived(msg)
	}
}

func (r *receiver) MessageSent(raw json.RawMessage) {
	var msg model.Message
	if decode(MethodMessageSent, raw, &msg) {
		r.handlers.MessageSent(msg)
	}
}

func (r *receiver) Debug(text string) {
	r.handlers.ServerLog(text)
}

func decode(method string, raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		log.Error().
			Err(apperrors.HubProtocol(err.Error())).
			Str("method", method).
			Str("body", string(raw)).
			Msg("failed to decode hub push")
		return false
	}
	return true
}

// logAdapter routes the library's key/value log lines to zerolog.
type logAdapter struct {
	logger zerolog.Logger
}

func newLogAdapter(logger zerolog.Logger) *logAdapter {
	return &logAdapter{logger: logger.With().Str("component", "signalr").Logger()}
}

func (a *logAdapter) Log(keyvals ...interface{}) error {
	level := zerolog.DebugLevel
	msg := ""
	fields := make(map[string]interface{}, len(keyvals)/2)

	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		value := keyvals[i+1]
		switch key {
		case "level":
			if parsed, err := zerolog.ParseLevel(fmt.Sprint(value)); err == nil && parsed != zerolog.NoLevel {
				level = parsed
			}
		case "msg", "message":
			msg = fmt.Sprint(value)
		default:
			fields[key] = value
		}
	}

	a.logger.WithLevel(level).Fields(fields).Msg(msg)
	return nil
}
