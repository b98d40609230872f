// Package backend runs the orchestrator: a single goroutine that owns the
// API session and the hub connection, processes UI commands in order and
// reports results as events.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/api"
	"github.com/resbox/resbox-core/internal/config"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/hub"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/state"
)

var (
	ErrClosed         = errors.New("backend command queue closed")
	errCommandsClosed = errors.New("command channel closed")
)

// APIClient is the REST surface the orchestrator drives.
type APIClient interface {
	Login(ctx context.Context, username string, auth model.Authentication, rememberMe bool) (string, error)
	GetUser(ctx context.Context, id string) (*model.UserInfo, error)
	GetUsers(ctx context.Context, query string) ([]model.UserInfo, error)
	GetContacts(ctx context.Context, ownerID string) ([]model.Contact, error)
	GetMessages(ctx context.Context, ownerID string) ([]model.Message, error)
	GetStatus(ctx context.Context, userID string) (*model.UserStatus, error)
	Session() api.Session
}

// Archive persists conversation history between runs.
type Archive interface {
	SaveMessages(ctx context.Context, msgs []model.Message) error
	LoadMessages(ctx context.Context, ownerID string) ([]model.Message, error)
}

type Deps struct {
	API    APIClient
	Dialer hub.Dialer
	State  *state.AppState

	// Optional.
	Archive Archive

	StatusInterval time.Duration
	InvokeTimeout  time.Duration
	Now            func() time.Time
}

type Backend struct {
	deps     Deps
	handlers *hub.PushHandlers

	commands chan Command
	events   chan Event
	stopped  chan struct{}
	done     chan struct{}

	sendMu sync.RWMutex
	closed bool

	phase    atomic.Int32
	hubPhase atomic.Int32

	// Owned by the loop goroutine.
	conn hub.Conn
}

// Start launches the orchestrator. It stops on Shutdown, when ctx is
// cancelled, or when the command queue is closed.
func Start(ctx context.Context, deps Deps, initial InitialLogin) *Backend {
	if deps.StatusInterval <= 0 {
		deps.StatusInterval = 10 * time.Second
	}
	if deps.InvokeTimeout <= 0 {
		deps.InvokeTimeout = config.HubInvokeTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if initial == nil {
		initial = FreshLogin{}
	}

	b := &Backend{
		deps:     deps,
		handlers: hub.NewPushHandlers(deps.State),
		commands: make(chan Command, config.CommandQueueSize),
		events:   make(chan Event, config.EventQueueSize),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	if deps.Archive != nil {
		b.handlers.OnMessages = b.archivePushed
	}

	go b.supervise(ctx, initial)
	return b
}

// Send enqueues cmd. It blocks only while the queue is full, and fails
// with ErrClosed once the loop has exited.
func (b *Backend) Send(cmd Command) error {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.commands <- cmd:
		return nil
	case <-b.stopped:
		return ErrClosed
	}
}

// refuseCommands releases blocked senders, then makes every later Send
// fail. It runs before done is closed.
func (b *Backend) refuseCommands() {
	close(b.stopped)
	b.sendMu.Lock()
	b.closed = true
	b.sendMu.Unlock()
}

// Close closes the command queue. A running loop treats this as a crash.
func (b *Backend) Close() {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.commands)
	}
}

// Events is closed after the loop exits.
func (b *Backend) Events() <-chan Event {
	return b.events
}

// TryRecv returns the next pending event without blocking.
func (b *Backend) TryRecv() (Event, bool) {
	select {
	case ev, ok := <-b.events:
		return ev, ok
	default:
		return nil, false
	}
}

func (b *Backend) Done() <-chan struct{} {
	return b.done
}

func (b *Backend) Phase() Phase {
	return Phase(b.phase.Load())
}

func (b *Backend) HubPhase() HubPhase {
	return HubPhase(b.hubPhase.Load())
}

func (b *Backend) setPhase(p Phase) {
	b.phase.Store(int32(p))
}

func (b *Backend) setHubPhase(p HubPhase) {
	b.hubPhase.Store(int32(p))
}

func (b *Backend) supervise(ctx context.Context, initial InitialLogin) {
	defer close(b.done)
	defer b.refuseCommands()
	defer close(b.events)

	err := b.runSafely(ctx, initial)
	b.setPhase(PhaseShuttingDown)
	b.closeHub()

	if err != nil {
		log.Error().Err(err).Msg("orchestrator crashed")
		b.emit(ctx, Crashed{Err: err})
		return
	}
	log.Info().Msg("orchestrator stopped")
}

func (b *Backend) runSafely(ctx context.Context, initial InitialLogin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("orchestrator panic: %v", r)
		}
	}()
	return b.run(ctx, initial)
}

func (b *Backend) run(ctx context.Context, initial InitialLogin) error {
	b.initialLogin(ctx, initial)
	b.refresh(ctx)

	ticker := time.NewTicker(b.deps.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-b.commands:
			if !ok {
				return errCommandsClosed
			}
			if stop := b.handle(ctx, cmd); stop {
				return nil
			}
		case <-ticker.C:
			b.tick(ctx)
		case <-b.deps.State.Dirty():
			b.refresh(ctx)
		case <-b.hubDone():
			b.hubLost(ctx)
		}
	}
}

func (b *Backend) initialLogin(ctx context.Context, initial InitialLogin) {
	b.setPhase(PhaseAwaitingLogin)

	resume, ok := initial.(PreviousToken)
	if !ok {
		b.emit(ctx, PreviousTokenInvalid{})
		b.setPhase(PhaseLoggedOut)
		return
	}

	b.setPhase(PhaseLoggingIn)
	token, err := b.deps.API.Login(ctx, resume.Username, model.TokenAuth{SessionToken: resume.SessionToken}, true)
	if err != nil {
		log.Warn().Err(err).Str("username", resume.Username).Msg("previous token rejected")
		b.setPhase(PhaseLoggedOut)
		b.emit(ctx, PreviousTokenInvalid{Err: apperrors.PreviousTokenInvalid(err)})
		return
	}
	b.loggedIn(ctx, token)
}

func (b *Backend) handle(ctx context.Context, cmd Command) bool {
	log.Debug().Str("command", cmd.Name()).Msg("processing command")

	switch c := cmd.(type) {
	case LoginCommand:
		b.login(ctx, c)
	case UserInfoRequest:
		b.userInfo(ctx, c)
	case UserStatusRequest:
		if _, err := b.deps.API.GetStatus(ctx, c.UserID); err != nil {
			b.fetchFailed(ctx, "status", err)
		}
	case ConnectHub:
		b.connectHub(ctx, c)
	case InitializeStatus:
		b.invoke(ctx, c, hub.MethodInitializeStatus)
	case ListenOnKey:
		b.invoke(ctx, c, hub.MethodListenOnKey, c.Key)
	case RequestStatus:
		b.invoke(ctx, c, hub.MethodRequestStatus, c.UserID, c.Invisible)
	case BroadcastStatus:
		b.deps.State.Statuses.Put(c.Status)
		b.deps.State.MarkDirty()
		b.invoke(ctx, c, hub.MethodBroadcastStatus, c.Status, c.Target)
	case SendMessage:
		b.sendMessage(ctx, c)
	case Shutdown:
		log.Info().Msg("shutdown requested")
		return true
	default:
		log.Warn().Str("command", cmd.Name()).Msg("unhandled command")
	}
	return false
}

func (b *Backend) login(ctx context.Context, c LoginCommand) {
	if b.deps.API.Session().LoggedIn {
		b.emit(ctx, LoginFailed{Err: apperrors.AlreadyLoggedIn()})
		return
	}

	b.setPhase(PhaseLoggingIn)
	token, err := b.deps.API.Login(ctx, c.Username, model.PasswordAuth{Password: c.Password}, c.RememberMe)
	if err != nil {
		b.setPhase(PhaseLoggedOut)
		b.emit(ctx, LoginFailed{Err: err})
		return
	}
	b.loggedIn(ctx, token)
}

// loggedIn announces the session and loads the user's own record, contacts
// and messages.
func (b *Backend) loggedIn(ctx context.Context, token string) {
	b.setPhase(PhaseLoggedIn)
	b.setHubPhase(HubDisconnectedPhase)

	userID := b.deps.API.Session().UserID
	b.emit(ctx, LoggedIn{Token: token, UserID: userID})

	if b.deps.Archive != nil {
		archived, err := b.deps.Archive.LoadMessages(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("userId", userID).Msg("failed to load archived messages")
		} else if len(archived) > 0 {
			b.deps.State.Messages.Merge(archived)
			b.deps.State.MarkDirty()
		}
	}

	if you, err := b.deps.API.GetUser(ctx, userID); err != nil {
		b.fetchFailed(ctx, "user", err)
	} else {
		b.emit(ctx, UserInfoResponse{UserID: userID, Info: *you})
	}

	if _, err := b.deps.API.GetContacts(ctx, userID); err != nil {
		b.fetchFailed(ctx, "contacts", err)
	}

	msgs, err := b.deps.API.GetMessages(ctx, userID)
	if err != nil {
		b.fetchFailed(ctx, "messages", err)
		return
	}
	b.archive(ctx, msgs)
}

func (b *Backend) userInfo(ctx context.Context, c UserInfoRequest) {
	users, err := b.deps.API.GetUsers(ctx, c.Query)
	if err != nil {
		b.fetchFailed(ctx, "users", err)
		return
	}
	for _, user := range users {
		b.emit(ctx, UserInfoResponse{UserID: user.ID, Info: user})
	}
}

func (b *Backend) connectHub(ctx context.Context, c ConnectHub) {
	creds := hub.Credentials{
		DeviceHash: b.deps.API.Session().DeviceHash,
		UserID:     c.UserID,
		Token:      c.Token,
	}
	if creds.UserID == "" || creds.Token == "" {
		session := b.deps.API.Session()
		creds.UserID, creds.Token = session.UserID, session.Token
	}

	b.closeHub()
	b.setHubPhase(HubConnectingPhase)

	conn, err := b.deps.Dialer.Dial(ctx, creds, b.handlers)
	if err != nil {
		b.setHubPhase(HubDisconnectedPhase)
		b.emit(ctx, HubConnectFailed{Err: err})
		return
	}

	b.conn = conn
	b.setHubPhase(HubConnectedPhase)
	b.emit(ctx, HubConnected{})
}

func (b *Backend) sendMessage(ctx context.Context, c SendMessage) {
	if b.conn == nil {
		b.emit(ctx, HubUninitialized{Command: c.Name()})
		return
	}

	session := b.deps.API.Session()
	if !session.LoggedIn {
		b.emit(ctx, HubRequestFailed{
			Method: hub.MethodSendMessage,
			Err:    apperrors.HubRequestFailed(hub.MethodSendMessage, apperrors.NotLoggedIn()),
		})
		return
	}

	msg := model.NewTextMessage(session.UserID, c.RecipientID, c.Content, b.deps.Now())
	b.invoke(ctx, c, hub.MethodSendMessage, msg)
}

// invoke calls a hub method, reporting a missing connection or a failed
// call as an event.
func (b *Backend) invoke(ctx context.Context, cmd Command, method string, args ...any) {
	if b.conn == nil {
		b.emit(ctx, HubUninitialized{Command: cmd.Name()})
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.deps.InvokeTimeout)
	defer cancel()

	start := time.Now()
	if err := b.conn.Invoke(callCtx, method, args...); err != nil {
		log.Warn().Err(err).Str("method", method).Dur("elapsed", time.Since(start)).Msg("hub invocation failed")
		b.emit(ctx, HubRequestFailed{Method: method, Err: apperrors.HubRequestFailed(method, err)})
		return
	}
	log.Debug().Str("method", method).Dur("elapsed", time.Since(start)).Msg("hub invocation")
}

// tick refreshes contact statuses while the hub is connected.
func (b *Backend) tick(ctx context.Context) {
	if b.conn == nil {
		return
	}
	b.invoke(ctx, RequestStatus{}, hub.MethodRequestStatus, (*string)(nil), false)
}

func (b *Backend) refresh(ctx context.Context) {
	if !b.deps.State.TakeDirty() {
		return
	}
	// Refresh signals coalesce; dropping one while the queue is full is harmless.
	select {
	case b.events <- RefreshRequested{}:
	default:
	}
}

func (b *Backend) hubDone() <-chan struct{} {
	if b.conn == nil {
		return nil
	}
	return b.conn.Done()
}

func (b *Backend) hubLost(ctx context.Context) {
	log.Warn().Msg("hub connection lost")
	// Close releases the client's context even though the server already hung up.
	b.closeHub()
	b.emit(ctx, HubDisconnected{})
}

func (b *Backend) closeHub() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close hub connection")
	}
	b.conn = nil
	b.setHubPhase(HubDisconnectedPhase)
}

func (b *Backend) fetchFailed(ctx context.Context, resource string, err error) {
	log.Warn().Err(err).Str("resource", resource).Msg("fetch failed")
	b.emit(ctx, FetchFailed{Resource: resource, Err: err})
}

func (b *Backend) archive(ctx context.Context, msgs []model.Message) {
	if b.deps.Archive == nil || len(msgs) == 0 {
		return
	}
	if err := b.deps.Archive.SaveMessages(ctx, msgs); err != nil {
		log.Warn().Err(err).Int("count", len(msgs)).Msg("failed to archive messages")
	}
}

func (b *Backend) archivePushed(msgs []model.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	defer cancel()
	b.archive(ctx, msgs)
}

// emit delivers ev unless ctx is cancelled first.
func (b *Backend) emit(ctx context.Context, ev Event) {
	select {
	case b.events <- ev:
	case <-ctx.Done():
		log.Debug().Str("event", ev.Name()).Msg("dropping event after cancellation")
	}
}
