package backend

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/resbox/resbox-core/internal/api"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/hub"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/state"
)

type fakeAPI struct {
	mu      sync.Mutex
	state   *state.AppState
	session api.Session
	calls   []string

	loginErr    error
	userErr     error
	usersErr    error
	contactsErr error
	messagesErr error
	messages    []model.Message
	users       []model.UserInfo
	panicOn     string
}

func newFakeAPI(st *state.AppState) *fakeAPI {
	return &fakeAPI{state: st, session: api.Session{DeviceHash: "device-hash"}}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.panicOn == call {
		panic("boom in " + call)
	}
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Login(_ context.Context, username string, auth model.Authentication, _ bool) (string, error) {
	f.record("login:" + auth.AuthType())
	if f.loginErr != nil {
		return "", f.loginErr
	}
	f.mu.Lock()
	f.session.UserID = "U-me"
	f.session.Token = "tok-" + username
	f.session.LoggedIn = true
	f.mu.Unlock()
	return "tok-" + username, nil
}

func (f *fakeAPI) GetUser(_ context.Context, id string) (*model.UserInfo, error) {
	f.record("user:" + id)
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &model.UserInfo{ID: id, Username: "me"}, nil
}

func (f *fakeAPI) GetUsers(_ context.Context, query string) ([]model.UserInfo, error) {
	f.record("users:" + query)
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeAPI) GetContacts(_ context.Context, ownerID string) ([]model.Contact, error) {
	f.record("contacts:" + ownerID)
	return nil, f.contactsErr
}

func (f *fakeAPI) GetMessages(_ context.Context, ownerID string) ([]model.Message, error) {
	f.record("messages:" + ownerID)
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	f.state.Messages.Merge(f.messages)
	f.state.MarkDirty()
	return f.messages, nil
}

func (f *fakeAPI) GetStatus(_ context.Context, userID string) (*model.UserStatus, error) {
	f.record("status:" + userID)
	return &model.UserStatus{UserID: userID}, nil
}

func (f *fakeAPI) Session() api.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

type invocation struct {
	Method string
	Args   []any
}

type fakeConn struct {
	mu          sync.Mutex
	invocations []invocation
	invokeErr   error
	closed      bool

	once sync.Once
	done chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{done: make(chan struct{})}
}

func (c *fakeConn) Invoke(_ context.Context, method string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invocations = append(c.invocations, invocation{Method: method, Args: args})
	return c.invokeErr
}

func (c *fakeConn) Invocations() []invocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]invocation(nil), c.invocations...)
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.drop()
	return nil
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drop simulates the server ending the connection.
func (c *fakeConn) drop() {
	c.once.Do(func() { close(c.done) })
}

type fakeDialer struct {
	mu    sync.Mutex
	conn  *fakeConn
	err   error
	creds []hub.Credentials
}

func (d *fakeDialer) Dial(_ context.Context, creds hub.Credentials, _ hub.Handlers) (hub.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creds = append(d.creds, creds)
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func (d *fakeDialer) Dials() []hub.Credentials {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]hub.Credentials(nil), d.creds...)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) SaveMessages(ctx context.Context, msgs []model.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockArchive) LoadMessages(ctx context.Context, ownerID string) ([]model.Message, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

var errTransport = apperrors.RequestFailed(context.DeadlineExceeded)
