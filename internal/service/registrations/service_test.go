package registrations

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/domain/users"
	"venue-backend/internal/service/announce"
)

type row struct {
	reg      registrations.Registration
	kind     registrations.Kind
	targetID uint
}

type memRepo struct {
	mu      sync.Mutex
	targets map[registrations.Kind]map[uint]registrations.Target
	rows    []row
	nextID  uint
}

type memTx struct {
	repo   *memRepo
	kind   registrations.Kind
	target uint
	staged []row
}

func (t *memTx) active() []row {
	var out []row
	for _, r := range append(append([]row{}, t.repo.rows...), t.staged...) {
		if r.kind == t.kind && r.targetID == t.target && r.reg.Status != registrations.StatusCancelled {
			out = append(out, r)
		}
	}
	return out
}

func (t *memTx) HasActive(userID uint) (bool, error) {
	for _, r := range t.active() {
		if r.reg.OwnedBy(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CountActive() (int64, error) { return int64(len(t.active())), nil }

func (t *memTx) Create(r *registrations.Registration) error {
	t.repo.nextID++
	r.ID = t.repo.nextID
	t.staged = append(t.staged, row{reg: *r, kind: t.kind, targetID: t.target})
	return nil
}

func (m *memRepo) LockTarget(_ context.Context, kind registrations.Kind, id uint, fn func(registrations.Target, Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[kind][id]
	if !ok {
		return apperr.NotFound("%s %d not found", kind, id)
	}
	tx := &memTx{repo: m, kind: kind, target: id}
	if err := fn(t, tx); err != nil {
		return err
	}
	m.rows = append(m.rows, tx.staged...)
	return nil
}

func (m *memRepo) ByID(_ context.Context, kind registrations.Kind, id uint) (*registrations.Registration, error) {
	for _, r := range m.rows {
		if r.kind == kind && r.reg.ID == id {
			cp := r.reg
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("registration %d not found", id)
}

func (m *memRepo) SetStatus(_ context.Context, kind registrations.Kind, id uint, s registrations.Status) error {
	for i := range m.rows {
		if m.rows[i].kind == kind && m.rows[i].reg.ID == id {
			m.rows[i].reg.Status = s
			return nil
		}
	}
	return apperr.NotFound("registration %d not found", id)
}

func newRepo() *memRepo {
	return &memRepo{targets: map[registrations.Kind]map[uint]registrations.Target{
		registrations.KindTournament: {
			1: {Kind: registrations.KindTournament, ID: 1, Name: "Beat Saber Cup", EntryFeeCents: 1500, Capacity: 2},
		},
		registrations.KindEvent: {
			2: {Kind: registrations.KindEvent, ID: 2, Name: "Open Night", EntryFeeCents: 0},
		},
	}}
}

func newTestService(repo Repository) *Service {
	a, _ := announce.NewRecording()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(repo, a, log)
}

func TestRegisterEnforcesDuplicatesAndCapacity(t *testing.T) {
	repo := newRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	in := func(p purchaser.Purchaser) RegisterInput {
		return RegisterInput{Kind: registrations.KindTournament, TargetID: 1, Purchaser: p, PaymentOption: registrations.PayAtEvent}
	}

	r, err := svc.Register(ctx, in(purchaser.User(1)))
	require.NoError(t, err)
	assert.Equal(t, registrations.StatusRegistered, r.Status)
	assert.Equal(t, registrations.PaymentPending, r.PaymentStatus)
	require.NotNil(t, r.RegistrationReference)

	_, err = svc.Register(ctx, in(purchaser.User(1)))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Register(ctx, in(purchaser.Guest("Ana", "ana@example.com", "")))
	require.NoError(t, err)

	_, err = svc.Register(ctx, in(purchaser.User(3)))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "full")
	assert.Len(t, repo.rows, 2)
}

func TestCancelledRegistrationFreesThePlace(t *testing.T) {
	repo := newRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	r, err := svc.Register(ctx, RegisterInput{Kind: registrations.KindTournament, TargetID: 1, Purchaser: purchaser.User(1)})
	require.NoError(t, err)
	assert.Equal(t, registrations.PayOnline, r.PaymentOption)

	_, err = svc.CancelRegistration(ctx, registrations.KindTournament, r.ID, users.Actor{UserID: 2})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	cancelled, err := svc.CancelRegistration(ctx, registrations.KindTournament, r.ID, users.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, registrations.StatusCancelled, cancelled.Status)

	_, err = svc.CancelRegistration(ctx, registrations.KindTournament, r.ID, users.Actor{UserID: 1})
	assert.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Kind: registrations.KindTournament, TargetID: 1, Purchaser: purchaser.User(1)})
	assert.NoError(t, err)
}

func TestFreeEventIsConfirmedImmediately(t *testing.T) {
	svc := newTestService(newRepo())

	r, err := svc.Register(context.Background(), RegisterInput{Kind: registrations.KindEvent, TargetID: 2, Purchaser: purchaser.User(5)})
	require.NoError(t, err)

	assert.Equal(t, registrations.StatusConfirmed, r.Status)
	assert.Equal(t, registrations.PaymentPaid, r.PaymentStatus)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Kind: registrations.KindEvent, TargetID: 2})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Kind: registrations.KindEvent, TargetID: 2, Purchaser: purchaser.User(1), PaymentOption: "crypto"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Kind: registrations.KindEvent, TargetID: 99, Purchaser: purchaser.User(1)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
