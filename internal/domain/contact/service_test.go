package contact

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

func TestServiceSubmitStoresAndNotifies(t *testing.T) {
	repo := newMemoryRepo()
	q := &inlineQueue{}
	svc := newTestService(repo, q)
	q.handler = svc.HandleJob

	resp, err := svc.Submit(context.Background(), Request{
		Name:    "  Asha ",
		Email:   "Asha@Farm.example",
		Subject: "Sensor offline",
		Message: "IRR-003 stopped reporting",
		Urgency: "HIGH",
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.True(t, strings.HasPrefix(resp.Reference, "SI-"))
	require.Len(t, resp.Reference, len("SI-")+10)

	require.Len(t, repo.messages, 1)
	for _, msg := range repo.messages {
		require.Equal(t, "Asha", msg.Name)
		require.Equal(t, "asha@farm.example", msg.Email)
		require.Equal(t, UrgencyHigh, msg.Urgency)
		require.Equal(t, resp.Reference, msg.Reference)
		require.Equal(t, StatusNotified, msg.Status)
		require.NotNil(t, msg.NotifiedAt)
	}
	require.Equal(t, []string{JobNotify}, q.names)
}

func TestServiceSubmitDefaultsUrgency(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	_, err := svc.Submit(context.Background(), Request{Name: "A", Email: "a@b.co", Subject: "s", Message: "m"})
	require.NoError(t, err)
	for _, msg := range repo.messages {
		require.Equal(t, UrgencyNormal, msg.Urgency)
		require.Equal(t, StatusReceived, msg.Status)
	}
}

func TestServiceSubmitValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	valid := Request{Name: "A", Email: "a@b.co", Subject: "s", Message: "m", Urgency: "low"}

	cases := map[string]func(r *Request){
		"missing name":    func(r *Request) { r.Name = " " },
		"missing email":   func(r *Request) { r.Email = "" },
		"invalid email":   func(r *Request) { r.Email = "not-an-email" },
		"missing subject": func(r *Request) { r.Subject = "" },
		"missing message": func(r *Request) { r.Message = "\n" },
		"bad urgency":     func(r *Request) { r.Urgency = "asap" },
		"long message":    func(r *Request) { r.Message = strings.Repeat("x", maxMessageLength+1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid
			mutate(&req)
			_, err := svc.Submit(context.Background(), req)
			require.True(t, apperrors.IsCode(err, "invalid_input"))
		})
	}
}

func TestHandleJobIgnoresUnknown(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	svc.HandleJob(context.Background(), "other", map[string]any{"id": "x"})
	svc.HandleJob(context.Background(), JobNotify, map[string]any{"id": "missing"})
	svc.HandleJob(context.Background(), JobNotify, map[string]any{})
	require.Zero(t, repo.marks)
}

func newTestService(repo Repository, q JobQueue) *service {
	svc := NewService(repo, q, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.now = func() time.Time { return time.Date(2024, 7, 8, 9, 0, 0, 0, time.UTC) }
	return svc
}

type memoryRepo struct {
	messages map[string]Message
	marks    int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{messages: make(map[string]Message)}
}

func (m *memoryRepo) Create(_ context.Context, msg Message) error {
	m.messages[msg.ID] = msg
	return nil
}

func (m *memoryRepo) MarkNotified(_ context.Context, id string, at time.Time) (bool, error) {
	msg, ok := m.messages[id]
	if !ok {
		return false, nil
	}
	m.marks++
	msg.Status = StatusNotified
	msg.NotifiedAt = &at
	m.messages[id] = msg
	return true, nil
}

type inlineQueue struct {
	handler func(ctx context.Context, name string, payload map[string]any)
	names   []string
}

func (q *inlineQueue) Enqueue(ctx context.Context, name string, payload any) error {
	q.names = append(q.names, name)
	if q.handler != nil {
		q.handler(ctx, name, payload.(map[string]any))
	}
	return nil
}
