package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"github.com/dmitrijs2005/gophdrop/internal/server/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]error
}

func (f *fakeSender) Send(ctx context.Context, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[m.ToEmail]; err != nil {
		return err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeResolver struct {
	recipients []models.Recipient
	err        error
}

func (f *fakeResolver) Resolve(ctx context.Context, destination string) ([]models.Recipient, error) {
	return f.recipients, f.err
}

var (
	alice = models.Recipient{Username: "alice", Name: "Alice", Email: "alice@example.com", HomeDir: "/docs"}
	bob   = models.Recipient{Username: "bob", Name: "Bob", Email: "bob@example.com", HomeDir: "/"}
)

func TestCompose(t *testing.T) {
	m, err := Compose(alice, "/docs", []string{"a.txt", "<b>.txt"})
	require.NoError(t, err)

	assert.Equal(t, Subject, m.Subject)
	assert.Equal(t, "alice@example.com", m.ToEmail)
	assert.Equal(t, "Alice", m.ToName)

	assert.Contains(t, m.Text, "Hello Alice,")
	assert.Contains(t, m.Text, "(/docs)")
	assert.Contains(t, m.Text, "- a.txt\n- <b>.txt\n")

	assert.Contains(t, m.HTML, "<li>a.txt</li>")
	assert.Contains(t, m.HTML, "<li>&lt;b&gt;.txt</li>")
	assert.NotContains(t, m.HTML, "<li><b>")
}

func TestCompose_FallsBackToUsername(t *testing.T) {
	m, err := Compose(models.Recipient{Username: "carol", Email: "c@example.com"}, "/", []string{"x"})
	require.NoError(t, err)
	assert.Contains(t, m.Text, "Hello carol,")
}

func TestDispatcher_ContinuesPastFailures(t *testing.T) {
	s := &fakeSender{fail: map[string]error{"alice@example.com": errors.New("mailbox full")}}
	d := NewDispatcher(s, logging.Discard())

	sent, err := d.Dispatch(context.Background(), []models.Recipient{alice, bob}, "/docs", []string{"a"})
	assert.Equal(t, 1, sent)
	assert.ErrorIs(t, err, common.ErrDispatchFailure)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "bob@example.com", s.sent[0].ToEmail)
}

func TestDispatcher_AllOK(t *testing.T) {
	s := &fakeSender{}
	d := NewDispatcher(s, logging.Discard())

	sent, err := d.Dispatch(context.Background(), []models.Recipient{alice, bob}, "/docs", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestNullSender(t *testing.T) {
	assert.NoError(t, NullSender{}.Send(context.Background(), Message{}))
}

func newNotifier(t *testing.T, r RecipientResolver, s Sender) (*Notifier, *queue.Queue, *queue.ProcessLocker) {
	t.Helper()
	locker := queue.NewProcessLocker()
	q := queue.New(filepath.Join(t.TempDir(), "queue.json"), locker, logging.Discard())
	n := NewNotifier(r, q, NewDispatcher(s, logging.Discard()), logging.Discard())
	return n, q, locker
}

func TestNotifier_DispatchFolder(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{}
	n, q, _ := newNotifier(t, &fakeResolver{recipients: []models.Recipient{alice, bob}}, s)

	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))
	require.NoError(t, q.Enqueue(ctx, "/docs", "b.txt"))

	out, err := n.DispatchFolder(ctx, "/docs/")
	require.NoError(t, err)
	assert.Equal(t, Sent, out)
	require.Len(t, s.sent, 2)
	assert.Contains(t, s.sent[0].Text, "- a.txt\n- b.txt\n")

	out, err = n.DispatchFolder(ctx, "/docs")
	require.NoError(t, err)
	assert.Equal(t, NoPending, out)
}

func TestNotifier_NoRecipientsKeepsBatch(t *testing.T) {
	ctx := context.Background()
	n, q, _ := newNotifier(t, &fakeResolver{}, &fakeSender{})
	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))

	out, err := n.DispatchFolder(ctx, "/docs")
	require.NoError(t, err)
	assert.Equal(t, NotSent, out)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestNotifier_ResolverError(t *testing.T) {
	boom := errors.New("directory down")
	n, _, _ := newNotifier(t, &fakeResolver{err: boom}, &fakeSender{})

	out, err := n.DispatchFolder(context.Background(), "/docs")
	assert.Equal(t, NotSent, out)
	assert.ErrorIs(t, err, boom)
}

func TestNotifier_LockBusy(t *testing.T) {
	ctx := context.Background()
	n, q, locker := newNotifier(t, &fakeResolver{recipients: []models.Recipient{alice}}, &fakeSender{})
	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))

	unlock, err := locker.Lock(ctx)
	require.NoError(t, err)
	out, err := n.DispatchFolder(ctx, "/docs")
	unlock()

	assert.Equal(t, NotSent, out)
	assert.ErrorIs(t, err, common.ErrLockUnavailable)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestNotifier_TotalFailureRequeues(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{fail: map[string]error{"alice@example.com": errors.New("refused")}}
	n, q, _ := newNotifier(t, &fakeResolver{recipients: []models.Recipient{alice}}, s)
	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))

	out, err := n.DispatchFolder(ctx, "/docs")
	assert.Equal(t, NotSent, out)
	assert.ErrorIs(t, err, common.ErrDispatchFailure)

	e, found, err := q.ExtractFolder(ctx, "/docs")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a.txt"}, e.Files)
}

func TestNotifier_FlushDue(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{}
	n, q, _ := newNotifier(t, &fakeResolver{recipients: []models.Recipient{alice}}, s)

	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))
	require.NoError(t, q.Enqueue(ctx, "/other", "b.txt"))

	sent, err := n.FlushDue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, s.sent, 2)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNotifier_FlushDueSkipsFreshBatches(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{}
	n, q, _ := newNotifier(t, &fakeResolver{recipients: []models.Recipient{alice}}, s)
	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))

	sent, err := n.FlushDue(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, s.sent)
}

func TestNotifier_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &fakeSender{}
	n, q, _ := newNotifier(t, &fakeResolver{recipients: []models.Recipient{alice}}, s)
	require.NoError(t, q.Enqueue(ctx, "/docs", "a.txt"))

	done := make(chan struct{})
	go func() {
		n.Run(ctx, 0, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "Sent", Sent.String())
	assert.Equal(t, "NoPending", NoPending.String())
	assert.Equal(t, "NotSent", NotSent.String())
	assert.True(t, strings.HasPrefix(Outcome(9).String(), "Outcome("))
}
