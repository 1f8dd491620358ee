package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"hrportal/internal/absence/models"
	"hrportal/internal/absence/service"
	historystore "hrportal/internal/absence/store/history"
	requeststore "hrportal/internal/absence/store/request"
	authmodels "hrportal/internal/auth/models"
	userstore "hrportal/internal/auth/store/user"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/tx"
	"hrportal/pkg/requestcontext"
	"hrportal/pkg/testutil"
)

type handlerFixture struct {
	router     chi.Router
	svc        *service.Service
	employee   *authmodels.User
	coworker   *authmodels.User
	supervisor *authmodels.User
	hr         *authmodels.User
	now        time.Time
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}

	users := userstore.NewInMemory()
	addUser := func(name, email string, role id.Role, supervisorID *id.UserID) *authmodels.User {
		u, err := authmodels.NewUser(id.UserID(uuid.New()), name, email, "$2a$10$fakehash", role, supervisorID, f.now)
		require.NoError(t, err)
		require.NoError(t, users.CreateIfEmailAvailable(context.Background(), u))
		return u
	}
	f.supervisor = addUser("Sam Boss", "sam@example.com", id.RoleSupervisor, nil)
	f.hr = addUser("Hana Reyes", "hana@example.com", id.RoleHR, nil)
	f.employee = addUser("Eli Ortiz", "eli@example.com", id.RoleEmployee, &f.supervisor.ID)
	f.coworker = addUser("Pat Lee", "pat@example.com", id.RoleEmployee, &f.supervisor.ID)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	f.svc = service.New(requeststore.NewInMemory(), historystore.NewInMemory(), users,
		tx.NopRunner{}, models.DefaultStages(), logger)

	f.router = chi.NewRouter()
	New(f.svc, logger).RegisterProtected(f.router)
	return f
}

func (f *handlerFixture) identityCtx(u *authmodels.User) context.Context {
	ctx := requestcontext.WithTime(context.Background(), f.now)
	return requestcontext.WithIdentity(ctx, requestcontext.AuthIdentity{
		SubjectID: u.ID, Email: u.Email, Role: u.Role,
	})
}

func (f *handlerFixture) submitFor(t *testing.T, u *authmodels.User) *models.AbsenceRequest {
	t.Helper()
	r, err := f.svc.Submit(f.identityCtx(u), service.SubmitInput{
		EmployeeID:  u.ID,
		RequestType: "VACATION",
		StartDate:   f.now,
		EndDate:     f.now.AddDate(0, 0, 2),
		TotalDays:   3,
	})
	require.NoError(t, err)
	return r
}

func requestBody(employeeID *id.UserID, start, end time.Time) map[string]any {
	body := map[string]any{
		"request_type": "VACATION",
		"start_date":   start.Format(time.RFC3339),
		"end_date":     end.Format(time.RFC3339),
		"total_days":   3,
		"reason":       "long weekend",
	}
	if employeeID != nil {
		body["employee_id"] = employeeID.String()
	}
	return body
}

func TestSubmitRoundTrip(t *testing.T) {
	f := newHandlerFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost,
		"/users/"+f.employee.ID.String()+"/absence-requests",
		requestBody(&f.employee.ID, f.now, f.now.AddDate(0, 0, 2)))
	rr := testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role), f.now))

	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.AbsenceRequest](t, rr)
	require.Equal(t, models.StatusPending, created.Status)
	require.Equal(t, "SUPERVISOR", created.CurrentStage)
	require.Equal(t, f.employee.ID, created.EmployeeID)
}

// A payload that declares a different owner than the path is rejected before
// anything persists.
func TestSubmitPayloadOwnerMismatch(t *testing.T) {
	f := newHandlerFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost,
		"/users/"+f.employee.ID.String()+"/absence-requests",
		requestBody(&f.coworker.ID, f.now, f.now.AddDate(0, 0, 2)))
	rr := testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role), f.now))

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	list, err := f.svc.ListByEmployee(context.Background(), f.employee.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

// Foreign-owned nested resources read as absent, never as forbidden.
func TestNestedRoutesHideForeignResources(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.submitFor(t, f.employee)

	// Another employee cannot enter the owner's collection at all.
	req := testutil.NewRequest(t, http.MethodGet, "/users/"+f.employee.ID.String()+"/absence-requests")
	rr := testutil.DoRequest(f.router, testutil.AsUser(req, f.coworker.ID, f.coworker.Email, f.coworker.Role))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	// The owner's request fetched under a different user path is absent.
	req = testutil.NewRequest(t, http.MethodGet, "/users/"+f.coworker.ID.String()+"/absence-requests/"+r.ID.String())
	rr = testutil.DoRequest(f.router, testutil.AsUser(req, f.coworker.ID, f.coworker.Email, f.coworker.Role))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	// The owner sees it.
	req = testutil.NewRequest(t, http.MethodGet, "/users/"+f.employee.ID.String()+"/absence-requests/"+r.ID.String())
	rr = testutil.DoRequest(f.router, testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestDeleteCancelsPendingRequest(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.submitFor(t, f.employee)
	path := "/users/" + f.employee.ID.String() + "/absence-requests/" + r.ID.String()

	req := testutil.NewRequest(t, http.MethodDelete, path)
	rr := testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role), f.now))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	got, err := f.svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, got.Status)

	// A second delete conflicts: the request is no longer pending.
	req = testutil.NewRequest(t, http.MethodDelete, path)
	rr = testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role), f.now))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

func TestEditRejectedOnceDecided(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.submitFor(t, f.employee)

	_, err := f.svc.Decide(f.identityCtx(f.supervisor), r.ID, models.ActionApprove, "")
	require.NoError(t, err)
	_, err = f.svc.Decide(f.identityCtx(f.hr), r.ID, models.ActionApprove, "")
	require.NoError(t, err)

	req := testutil.NewJSONRequest(t, http.MethodPut,
		"/users/"+f.employee.ID.String()+"/absence-requests/"+r.ID.String(),
		requestBody(nil, f.now, f.now.AddDate(0, 0, 1)))
	rr := testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role), f.now))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

func TestFlatListRequiresReviewerRole(t *testing.T) {
	f := newHandlerFixture(t)
	f.submitFor(t, f.employee)

	req := testutil.NewRequest(t, http.MethodGet, "/absence-requests")
	rr := testutil.DoRequest(f.router, testutil.AsUser(req, f.employee.ID, f.employee.Email, f.employee.Role))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	req = testutil.NewRequest(t, http.MethodGet, "/absence-requests")
	rr = testutil.DoRequest(f.router, testutil.AsUser(req, f.hr.ID, f.hr.Email, f.hr.Role))
	testutil.AssertStatus(t, rr, http.StatusOK)
	list := testutil.UnmarshalResponse[[]*models.AbsenceRequest](t, rr)
	require.Len(t, *list, 1)
}

func TestDecisionEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.submitFor(t, f.employee)
	path := "/absence-requests/" + r.ID.String() + "/decisions"

	// Unknown actions never reach the workflow.
	req := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{"action": "ESCALATE"})
	rr := testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.supervisor.ID, f.supervisor.Email, f.supervisor.Role), f.now))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	req = testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{"action": "APPROVE", "comments": "fine"})
	rr = testutil.DoRequest(f.router, testutil.AtTime(testutil.AsUser(req, f.supervisor.ID, f.supervisor.Email, f.supervisor.Role), f.now))
	testutil.AssertStatus(t, rr, http.StatusOK)
	updated := testutil.UnmarshalResponse[models.AbsenceRequest](t, rr)
	require.Equal(t, "HR", updated.CurrentStage)

	// The ledger shows the supervisor's decision.
	req = testutil.NewRequest(t, http.MethodGet, "/absence-requests/"+r.ID.String()+"/approval-history")
	rr = testutil.DoRequest(f.router, testutil.AsUser(req, f.hr.ID, f.hr.Email, f.hr.Role))
	testutil.AssertStatus(t, rr, http.StatusOK)
	entries := testutil.UnmarshalResponse[[]*models.ApprovalHistoryEntry](t, rr)
	require.Len(t, *entries, 1)
	require.Equal(t, models.ActionApprove, (*entries)[0].Action)
}

func TestUnknownRequestIDsRead404(t *testing.T) {
	f := newHandlerFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/absence-requests/not-a-uuid")
	rr := testutil.DoRequest(f.router, testutil.AsUser(req, f.hr.ID, f.hr.Email, f.hr.Role))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	req = testutil.NewRequest(t, http.MethodGet, "/absence-requests/"+uuid.NewString())
	rr = testutil.DoRequest(f.router, testutil.AsUser(req, f.hr.ID, f.hr.Email, f.hr.Role))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
