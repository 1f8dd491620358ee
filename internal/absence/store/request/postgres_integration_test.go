//go:build integration

package request

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"hrportal/internal/absence/models"
	historystore "hrportal/internal/absence/store/history"
	authmodels "hrportal/internal/auth/models"
	userstore "hrportal/internal/auth/store/user"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/platform/tx"
	"hrportal/pkg/testutil/containers"
)

type pgFixture struct {
	requests *Postgres
	history  *historystore.Postgres
	runner   tx.SQLRunner
	employee *authmodels.User
	approver *authmodels.User
	now      time.Time
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	pg := containers.NewPostgresContainer(t)

	f := &pgFixture{
		requests: NewPostgres(pg.DB),
		history:  historystore.NewPostgres(pg.DB),
		runner:   tx.SQLRunner{DB: pg.DB},
		now:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	users := userstore.NewPostgres(pg.DB)
	ctx := context.Background()
	newUser := func(name, email string, role id.Role) *authmodels.User {
		u, err := authmodels.NewUser(id.UserID(uuid.New()), name, email, "$2a$10$fakehash", role, nil, f.now)
		require.NoError(t, err)
		require.NoError(t, users.CreateIfEmailAvailable(ctx, u))
		return u
	}
	f.employee = newUser("Eli Ortiz", "eli@example.com", id.RoleEmployee)
	f.approver = newUser("Sam Boss", "sam@example.com", id.RoleSupervisor)
	return f
}

func (f *pgFixture) newRequest(t *testing.T) *models.AbsenceRequest {
	t.Helper()
	r, err := models.NewAbsenceRequest(
		id.RequestID(uuid.New()), f.employee.ID, "VACATION",
		f.now, f.now.AddDate(0, 0, 2), 3, "long weekend",
		models.DefaultStages().First(), f.now,
	)
	require.NoError(t, err)
	return r
}

func TestPostgresRequestRoundTrip(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	r := f.newRequest(t)
	require.NoError(t, f.requests.Create(ctx, r))

	got, err := f.requests.FindByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, got.Status)
	require.Equal(t, "SUPERVISOR", got.CurrentStage)
	require.Nil(t, got.ApprovedBy)
	require.True(t, got.StartDate.Equal(r.StartDate))

	mine, err := f.requests.ListByEmployee(ctx, f.employee.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.requests.FindByID(ctx, id.RequestID(uuid.New()))
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

// A transition and its ledger entry must commit together and be visible
// afterwards.
func TestPostgresExecuteWithLedgerInOneTransaction(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	r := f.newRequest(t)
	require.NoError(t, f.requests.Create(ctx, r))

	err := f.runner.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := f.requests.Execute(ctx, r.ID,
			func(cur *models.AbsenceRequest) error { return cur.CanDecide() },
			func(cur *models.AbsenceRequest) { cur.ApplyApproval(f.approver.ID, f.now.Add(time.Hour)) },
		)
		if err != nil {
			return err
		}
		entry, err := models.NewApprovalHistoryEntry(
			id.EntryID(uuid.New()), updated.ID, f.approver.ID, "SUPERVISOR",
			models.ActionApprove, "fine", f.now.Add(time.Hour))
		if err != nil {
			return err
		}
		return f.history.Append(ctx, entry)
	})
	require.NoError(t, err)

	got, err := f.requests.FindByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	require.Equal(t, f.approver.ID, *got.ApprovedBy)

	entries, err := f.history.ListByRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.ActionApprove, entries[0].Action)
	require.Equal(t, f.approver.ID, entries[0].ApproverID)
}

// A failed validation rolls the whole transaction back: no status change and
// no ledger row.
func TestPostgresExecuteRollsBackOnValidationFailure(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	r := f.newRequest(t)
	r.Status = models.StatusCancelled
	require.NoError(t, f.requests.Create(ctx, r))

	err := f.runner.RunInTx(ctx, func(ctx context.Context) error {
		_, err := f.requests.Execute(ctx, r.ID,
			func(cur *models.AbsenceRequest) error { return cur.CanDecide() },
			func(cur *models.AbsenceRequest) { cur.ApplyApproval(f.approver.ID, f.now) },
		)
		return err
	})
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	got, err := f.requests.FindByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, got.Status)

	entries, err := f.history.ListByRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}
