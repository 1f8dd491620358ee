package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hrportal/internal/absence/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

type HistoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *HistoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
}

func TestHistoryStoreSuite(t *testing.T) {
	suite.Run(t, new(HistoryStoreSuite))
}

func (s *HistoryStoreSuite) newEntry(requestID id.RequestID, stage string, action models.Action, at time.Time) *models.ApprovalHistoryEntry {
	e, err := models.NewApprovalHistoryEntry(
		id.EntryID(uuid.New()), requestID, id.UserID(uuid.New()),
		stage, action, "", at,
	)
	s.Require().NoError(err)
	return e
}

func (s *HistoryStoreSuite) TestAppendAndListInOrder() {
	requestID := id.RequestID(uuid.New())
	supervisor := s.newEntry(requestID, "SUPERVISOR", models.ActionApprove, s.now)
	hr := s.newEntry(requestID, "HR", models.ActionReject, s.now.Add(time.Hour))

	s.Require().NoError(s.store.Append(s.ctx, supervisor))
	s.Require().NoError(s.store.Append(s.ctx, hr))

	got, err := s.store.ListByRequest(s.ctx, requestID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("SUPERVISOR", got[0].ApprovalStage)
	s.Equal(models.ActionApprove, got[0].Action)
	s.Equal("HR", got[1].ApprovalStage)
	s.Equal(models.ActionReject, got[1].Action)
}

func (s *HistoryStoreSuite) TestListScopedToRequest() {
	mine := id.RequestID(uuid.New())
	other := id.RequestID(uuid.New())

	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(mine, "SUPERVISOR", models.ActionApprove, s.now)))
	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(other, "SUPERVISOR", models.ActionCancel, s.now)))

	got, err := s.store.ListByRequest(s.ctx, mine)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(mine, got[0].RequestID)

	empty, err := s.store.ListByRequest(s.ctx, id.RequestID(uuid.New()))
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *HistoryStoreSuite) TestDuplicateEntryConflicts() {
	e := s.newEntry(id.RequestID(uuid.New()), "HR", models.ActionApprove, s.now)
	s.Require().NoError(s.store.Append(s.ctx, e))
	s.Require().ErrorIs(s.store.Append(s.ctx, e), sentinel.ErrConflict)
}

func (s *HistoryStoreSuite) TestListReturnsCopies() {
	requestID := id.RequestID(uuid.New())
	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(requestID, "HR", models.ActionApprove, s.now)))

	got, err := s.store.ListByRequest(s.ctx, requestID)
	s.Require().NoError(err)
	got[0].Comments = "mutated"

	again, err := s.store.ListByRequest(s.ctx, requestID)
	s.Require().NoError(err)
	s.Empty(again[0].Comments)
}
