package backend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/hub"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/state"
)

const waitTimeout = 2 * time.Second

type harness struct {
	backend *Backend
	api     *fakeAPI
	dialer  *fakeDialer
	conn    *fakeConn
	state   *state.AppState
}

func newHarness(t *testing.T, initial InitialLogin, configure ...func(*fakeAPI, *Deps)) *harness {
	t.Helper()
	st := state.New()
	fake := newFakeAPI(st)
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn}
	deps := Deps{
		API:            fake,
		Dialer:         dialer,
		State:          st,
		StatusInterval: time.Hour,
		Now:            func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	for _, fn := range configure {
		fn(fake, &deps)
	}

	h := &harness{
		backend: Start(context.Background(), deps, initial),
		api:     fake,
		dialer:  dialer,
		conn:    conn,
		state:   st,
	}
	t.Cleanup(func() { h.stop(t) })
	return h
}

// next returns the next event other than a refresh signal.
func (h *harness) next(t *testing.T) Event {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-h.backend.Events():
			require.True(t, ok, "event channel closed")
			if _, skip := ev.(RefreshRequested); skip {
				continue
			}
			return ev
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

func (h *harness) send(t *testing.T, cmd Command) {
	t.Helper()
	require.NoError(t, h.backend.Send(cmd))
}

// stop shuts the loop down and returns every non-refresh event emitted
// before the event channel closed.
func (h *harness) stop(t *testing.T) []Event {
	t.Helper()
	_ = h.backend.Send(Shutdown{})

	var rest []Event
	timeout := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-h.backend.Events():
			if !ok {
				<-h.backend.Done()
				return rest
			}
			if _, skip := ev.(RefreshRequested); !skip {
				rest = append(rest, ev)
			}
		case <-timeout:
			t.Fatal("backend did not stop")
			return rest
		}
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.send(t, LoginCommand{Username: "alice", Password: "pw", RememberMe: true})
	require.IsType(t, LoggedIn{}, h.next(t))
	require.IsType(t, UserInfoResponse{}, h.next(t))
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	h.send(t, ConnectHub{})
	require.IsType(t, HubConnected{}, h.next(t))
}

func TestBackend_FreshStart(t *testing.T) {
	h := newHarness(t, FreshLogin{})

	ev := h.next(t)
	require.IsType(t, PreviousTokenInvalid{}, ev)
	assert.NoError(t, ev.(PreviousTokenInvalid).Err)
	assert.Equal(t, PhaseLoggedOut, h.backend.Phase())
	assert.Empty(t, h.api.Calls())
}

func TestBackend_PreviousToken(t *testing.T) {
	t.Run("resumes session", func(t *testing.T) {
		h := newHarness(t, PreviousToken{Username: "alice", SessionToken: "old"})

		ev := h.next(t)
		require.IsType(t, LoggedIn{}, ev)
		assert.Equal(t, "U-me", ev.(LoggedIn).UserID)
		assert.Equal(t, "tok-alice", ev.(LoggedIn).Token)

		info := h.next(t)
		require.IsType(t, UserInfoResponse{}, info)
		assert.Equal(t, "U-me", info.(UserInfoResponse).UserID)

		assert.Empty(t, h.stop(t))
		assert.Equal(t, []string{"login:sessionToken", "user:U-me", "contacts:U-me", "messages:U-me"}, h.api.Calls())
	})

	t.Run("rejected token", func(t *testing.T) {
		h := newHarness(t, PreviousToken{Username: "alice", SessionToken: "old"}, func(f *fakeAPI, _ *Deps) {
			f.loginErr = apperrors.InvalidCredentials()
		})

		ev := h.next(t)
		require.IsType(t, PreviousTokenInvalid{}, ev)
		assert.Equal(t, apperrors.ErrCodePreviousTokenInvalid, apperrors.GetCode(ev.(PreviousTokenInvalid).Err))
		assert.Equal(t, PhaseLoggedOut, h.backend.Phase())
	})
}

func TestBackend_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t, FreshLogin{})
		h.next(t)

		h.login(t)
		assert.Equal(t, PhaseLoggedIn, h.backend.Phase())
		assert.Equal(t, HubDisconnectedPhase, h.backend.HubPhase())
	})

	t.Run("invalid credentials", func(t *testing.T) {
		h := newHarness(t, FreshLogin{}, func(f *fakeAPI, _ *Deps) {
			f.loginErr = apperrors.InvalidCredentials()
		})
		h.next(t)

		h.send(t, LoginCommand{Username: "alice", Password: "wrong"})
		ev := h.next(t)
		require.IsType(t, LoginFailed{}, ev)
		assert.Equal(t, apperrors.ErrCodeInvalidCredentials, apperrors.GetCode(ev.(LoginFailed).Err))
		assert.Equal(t, PhaseLoggedOut, h.backend.Phase())
	})

	t.Run("already logged in", func(t *testing.T) {
		h := newHarness(t, FreshLogin{})
		h.next(t)
		h.login(t)

		h.send(t, LoginCommand{Username: "alice", Password: "pw"})
		ev := h.next(t)
		require.IsType(t, LoginFailed{}, ev)
		assert.Equal(t, apperrors.ErrCodeAlreadyLoggedIn, apperrors.GetCode(ev.(LoginFailed).Err))
		assert.Equal(t, 1, countPrefix(h.api.Calls(), "login:"))
	})

	t.Run("fetch failures are reported", func(t *testing.T) {
		h := newHarness(t, FreshLogin{}, func(f *fakeAPI, _ *Deps) {
			f.contactsErr = errTransport
			f.messagesErr = apperrors.JSONParseFailed(nil)
		})
		h.next(t)
		h.login(t)

		first := h.next(t)
		require.IsType(t, FetchFailed{}, first)
		assert.Equal(t, "contacts", first.(FetchFailed).Resource)
		second := h.next(t)
		require.IsType(t, FetchFailed{}, second)
		assert.Equal(t, "messages", second.(FetchFailed).Resource)
	})
}

func TestBackend_HubCommandsWithoutHub(t *testing.T) {
	invisible := "U-x"
	commands := []Command{
		InitializeStatus{},
		ListenOnKey{Key: "k"},
		RequestStatus{},
		RequestStatus{UserID: &invisible, Invisible: true},
		BroadcastStatus{Status: model.NewUserStatus("U-me", time.Now()), Target: model.PublicBroadcast()},
		SendMessage{RecipientID: "U-a", Content: "hi"},
	}

	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			h := newHarness(t, FreshLogin{})
			h.next(t)

			h.send(t, cmd)
			rest := h.stop(t)

			require.Len(t, rest, 1)
			require.IsType(t, HubUninitialized{}, rest[0])
			assert.Equal(t, cmd.Name(), rest[0].(HubUninitialized).Command)
			assert.Empty(t, h.conn.Invocations())
			assert.Empty(t, h.dialer.Dials())
		})
	}
}

func TestBackend_BroadcastStatusCachesFirst(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.next(t)

	status := model.NewUserStatus("U-me", time.Now())
	h.send(t, BroadcastStatus{Status: status, Target: model.PublicBroadcast()})
	require.IsType(t, HubUninitialized{}, h.next(t))

	cached, ok := h.state.Statuses.Get("U-me")
	require.True(t, ok)
	assert.Equal(t, status.UserSessionID, cached.UserSessionID)
}

func TestBackend_ConnectHub(t *testing.T) {
	t.Run("uses session credentials", func(t *testing.T) {
		h := newHarness(t, FreshLogin{})
		h.next(t)
		h.login(t)
		h.connect(t)

		dials := h.dialer.Dials()
		require.Len(t, dials, 1)
		assert.Equal(t, hub.Credentials{DeviceHash: "device-hash", UserID: "U-me", Token: "tok-alice"}, dials[0])
		assert.Equal(t, HubConnectedPhase, h.backend.HubPhase())
	})

	t.Run("explicit credentials", func(t *testing.T) {
		h := newHarness(t, FreshLogin{})
		h.next(t)

		h.send(t, ConnectHub{UserID: "U-other", Token: "t"})
		require.IsType(t, HubConnected{}, h.next(t))
		assert.Equal(t, "U-other", h.dialer.Dials()[0].UserID)
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t, FreshLogin{})
		h.dialer.err = apperrors.HubConnectFailed(context.DeadlineExceeded)
		h.next(t)

		h.send(t, ConnectHub{})
		ev := h.next(t)
		require.IsType(t, HubConnectFailed{}, ev)
		assert.Equal(t, apperrors.ErrCodeHubConnectFailed, apperrors.GetCode(ev.(HubConnectFailed).Err))
		assert.Equal(t, HubDisconnectedPhase, h.backend.HubPhase())
	})
}

func TestBackend_RequestStatusIsNotDeduplicated(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.next(t)
	h.login(t)
	h.connect(t)

	h.send(t, RequestStatus{})
	h.send(t, RequestStatus{})
	assert.Empty(t, h.stop(t))

	calls := h.conn.Invocations()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.Equal(t, hub.MethodRequestStatus, call.Method)
		assert.Equal(t, []any{(*string)(nil), false}, call.Args)
	}
}

func TestBackend_HubInvocations(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.next(t)
	h.login(t)
	h.connect(t)

	status := model.NewUserStatus("U-me", time.Now())
	h.send(t, InitializeStatus{})
	h.send(t, ListenOnKey{Key: "secret"})
	h.send(t, BroadcastStatus{Status: status, Target: model.PublicBroadcast()})
	h.send(t, SendMessage{RecipientID: "U-a", Content: "hello"})
	assert.Empty(t, h.stop(t))

	calls := h.conn.Invocations()
	require.Len(t, calls, 4)
	assert.Equal(t, hub.MethodInitializeStatus, calls[0].Method)
	assert.Empty(t, calls[0].Args)
	assert.Equal(t, []any{"secret"}, calls[1].Args)
	assert.Equal(t, []any{status, model.PublicBroadcast()}, calls[2].Args)

	require.Len(t, calls[3].Args, 1)
	msg := calls[3].Args[0].(model.Message)
	assert.Equal(t, "U-me", msg.SenderID)
	assert.Equal(t, "U-me", msg.OwnerID)
	assert.Equal(t, "U-a", msg.RecipientID)
	assert.Equal(t, "U-a", msg.OtherID)
	assert.Equal(t, model.MessageTypeText, msg.MessageType)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), msg.SendTime.Time)
	assert.True(t, h.conn.IsClosed())
}

func TestBackend_SendMessageRequiresLogin(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.next(t)
	h.send(t, ConnectHub{UserID: "U-me", Token: "t"})
	require.IsType(t, HubConnected{}, h.next(t))

	h.send(t, SendMessage{RecipientID: "U-a", Content: "hi"})
	ev := h.next(t)
	require.IsType(t, HubRequestFailed{}, ev)
	assert.Equal(t, hub.MethodSendMessage, ev.(HubRequestFailed).Method)
	assert.True(t, apperrors.Is(ev.(HubRequestFailed).Err, apperrors.ErrCodeNotLoggedIn))
	assert.Empty(t, h.conn.Invocations())
}

func TestBackend_HubRequestFailed(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.conn.invokeErr = context.DeadlineExceeded
	h.next(t)
	h.login(t)
	h.connect(t)

	h.send(t, ListenOnKey{Key: "k"})
	ev := h.next(t)
	require.IsType(t, HubRequestFailed{}, ev)
	assert.Equal(t, hub.MethodListenOnKey, ev.(HubRequestFailed).Method)
	assert.Equal(t, apperrors.ErrCodeHubRequestFailed, apperrors.GetCode(ev.(HubRequestFailed).Err))
	assert.ErrorIs(t, ev.(HubRequestFailed).Err, context.DeadlineExceeded)
}

func TestBackend_StatusTimer(t *testing.T) {
	h := newHarness(t, FreshLogin{}, func(_ *fakeAPI, d *Deps) {
		d.StatusInterval = 10 * time.Millisecond
	})
	h.next(t)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.conn.Invocations(), "timer must not invoke without a hub")

	h.login(t)
	h.connect(t)

	require.Eventually(t, func() bool {
		return len(h.conn.Invocations()) >= 2
	}, waitTimeout, 5*time.Millisecond)
	for _, call := range h.conn.Invocations() {
		assert.Equal(t, hub.MethodRequestStatus, call.Method)
	}
}

func TestBackend_HubLost(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.next(t)
	h.login(t)
	h.connect(t)

	h.conn.drop()
	require.IsType(t, HubDisconnected{}, h.next(t))
	assert.Equal(t, HubDisconnectedPhase, h.backend.HubPhase())
	assert.True(t, h.conn.IsClosed(), "a dropped connection is still closed to release the client")

	h.send(t, InitializeStatus{})
	require.IsType(t, HubUninitialized{}, h.next(t))
}

func TestBackend_UserInfoRequest(t *testing.T) {
	h := newHarness(t, FreshLogin{}, func(f *fakeAPI, _ *Deps) {
		f.users = []model.UserInfo{{ID: "U-a"}, {ID: "U-b"}}
	})
	h.next(t)
	h.login(t)

	h.send(t, UserInfoRequest{Query: "bob"})
	assert.Equal(t, "U-a", h.next(t).(UserInfoResponse).UserID)
	assert.Equal(t, "U-b", h.next(t).(UserInfoResponse).UserID)

	h.api.usersErr = apperrors.NoResults()
	h.send(t, UserInfoRequest{Query: "nobody"})
	ev := h.next(t)
	require.IsType(t, FetchFailed{}, ev)
	assert.Equal(t, apperrors.ErrCodeNoResults, apperrors.GetCode(ev.(FetchFailed).Err))
}

func TestBackend_UserStatusRequest(t *testing.T) {
	h := newHarness(t, FreshLogin{})
	h.next(t)

	h.send(t, UserStatusRequest{UserID: "U-a"})
	assert.Empty(t, h.stop(t))
	assert.Contains(t, h.api.Calls(), "status:U-a")
}

func TestBackend_Crash(t *testing.T) {
	t.Run("closed command queue", func(t *testing.T) {
		h := newHarness(t, FreshLogin{})
		h.next(t)

		h.backend.Close()
		rest := h.stop(t)
		require.Len(t, rest, 1)
		require.IsType(t, Crashed{}, rest[0])
		assert.ErrorIs(t, h.backend.Send(InitializeStatus{}), ErrClosed)
	})

	t.Run("panic in loop", func(t *testing.T) {
		h := newHarness(t, FreshLogin{}, func(f *fakeAPI, _ *Deps) {
			f.panicOn = "users:explode"
		})
		h.next(t)

		h.send(t, UserInfoRequest{Query: "explode"})
		ev := h.next(t)
		require.IsType(t, Crashed{}, ev)
		assert.Contains(t, ev.(Crashed).Err.Error(), "boom")

		select {
		case _, ok := <-h.backend.Events():
			assert.False(t, ok)
		case <-time.After(waitTimeout):
			t.Fatal("event channel not closed")
		}
	})
}

func TestBackend_ShutdownReleasesEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t, FreshLogin{})
	h.next(t)
	h.login(t)
	h.connect(t)

	assert.Empty(t, h.stop(t))
	assert.True(t, h.conn.IsClosed())
	assert.Equal(t, PhaseShuttingDown, h.backend.Phase())
	assert.ErrorIs(t, h.backend.Send(InitializeStatus{}), ErrClosed)
}

func TestBackend_SendAfterShutdownAlwaysFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	for i := 0; i < 50; i++ {
		st := state.New()
		b := Start(context.Background(), Deps{API: newFakeAPI(st), Dialer: &fakeDialer{conn: newFakeConn()}, State: st}, FreshLogin{})
		require.NoError(t, b.Send(Shutdown{}))
		<-b.Done()

		require.ErrorIs(t, b.Send(InitializeStatus{}), ErrClosed, "run %d", i)
	}
}

func TestBackend_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	st := state.New()
	b := Start(ctx, Deps{API: newFakeAPI(st), Dialer: &fakeDialer{conn: newFakeConn()}, State: st}, FreshLogin{})
	require.IsType(t, PreviousTokenInvalid{}, <-b.Events())

	cancel()
	select {
	case <-b.Done():
	case <-time.After(waitTimeout):
		t.Fatal("backend did not stop on cancel")
	}
}

func TestBackend_Archive(t *testing.T) {
	archived := []model.Message{{
		ID: "old", SenderID: "U-a", RecipientID: "U-me", OtherID: "U-a", OwnerID: "U-me",
		MessageType: model.MessageTypeText,
	}}
	fetched := []model.Message{{
		ID: "new", SenderID: "U-a", RecipientID: "U-me", OtherID: "U-a", OwnerID: "U-me",
		MessageType: model.MessageTypeText,
	}}

	archive := new(mockArchive)
	archive.On("LoadMessages", mock.Anything, "U-me").Return(archived, nil)
	archive.On("SaveMessages", mock.Anything, fetched).Return(nil)

	h := newHarness(t, FreshLogin{}, func(f *fakeAPI, d *Deps) {
		f.messages = fetched
		d.Archive = archive
	})
	h.next(t)
	h.login(t)
	assert.Empty(t, h.stop(t))

	assert.Len(t, h.state.Messages.Peer("U-a"), 2)
	archive.AssertExpectations(t)
}

func countPrefix(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
