package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"surveillance/internal/model"
	"surveillance/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type registrationFixture struct {
	svc   RegistrationService
	regs  *fakeRegistrations
	users *fakeUsers
	roles *fakeRoles
	audit *recordingAudit
}

func newRegistrationFixture() *registrationFixture {
	roles := newFakeRoles(model.RoleASHA, model.RoleDoctor)
	f := &registrationFixture{
		regs:  newFakeRegistrations(),
		users: newFakeUsers(roles),
		roles: roles,
		audit: &recordingAudit{},
	}
	f.svc = NewRegistrationService(f.regs, f.users, f.roles, f.audit, &serialTx{}, zap.NewNop())
	return f
}

func validRegistration(username string) RegisterRequest {
	return RegisterRequest{
		Username:        username,
		Email:           username + "@example.org",
		FirstName:       "Lakshmi",
		PhoneNumber:     "9000000000",
		Password:        "s3cure-pass",
		PasswordConfirm: "s3cure-pass",
		RequestedRole:   model.RoleASHA,
		Reason:          "Village health worker",
	}
}

func (f *registrationFixture) submit(t *testing.T, username string) SubmitResult {
	t.Helper()
	res, err := f.svc.Submit(context.Background(), validRegistration(username))
	require.NoError(t, err)
	return res
}

func TestSubmitStoresPendingRegistrationWithHash(t *testing.T) {
	f := newRegistrationFixture()

	res := f.submit(t, "asha1")
	assert.Equal(t, model.RegistrationPending, res.Status)
	assert.Equal(t, "asha1", res.Username)

	regs := f.regs.all()
	require.Len(t, regs, 1)
	assert.NotEqual(t, "s3cure-pass", regs[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(regs[0].PasswordHash), []byte("s3cure-pass")))
	assert.Equal(t, f.roles.mustID(model.RoleASHA), regs[0].RequestedRoleID)
	assert.Zero(t, f.users.count(), "submission must not create a user")
	assert.Equal(t, []string{model.ActionRegistrationSubmitted}, f.audit.actions())
	assert.Nil(t, f.audit.entries[0].UserID)
}

func TestSubmitValidation(t *testing.T) {
	f := newRegistrationFixture()
	require.NoError(t, f.users.Create(context.Background(), &model.User{Username: "taken", Email: "taken@example.org"}))

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"password mismatch", func(r *RegisterRequest) { r.PasswordConfirm = "different" }},
		{"username held by user", func(r *RegisterRequest) { r.Username = "taken" }},
		{"email held by user", func(r *RegisterRequest) { r.Email = "TAKEN@example.org" }},
		{"unknown role name", func(r *RegisterRequest) { r.RequestedRole = "Pharmacist" }},
		{"malformed role id", func(r *RegisterRequest) { r.RequestedRole = ""; r.RequestedRoleID = "not-a-uuid" }},
		{"no role", func(r *RegisterRequest) { r.RequestedRole = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration("newcomer")
			tt.mutate(&req)
			_, err := f.svc.Submit(context.Background(), req)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}
	assert.Zero(t, f.regs.count())
}

func TestSubmitRejectsDuplicatePendingUsername(t *testing.T) {
	f := newRegistrationFixture()
	f.submit(t, "asha1")

	_, err := f.svc.Submit(context.Background(), validRegistration("asha1"))
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestListRequiresAdmin(t *testing.T) {
	f := newRegistrationFixture()
	f.submit(t, "asha1")

	_, _, err := f.svc.ListPending(context.Background(), identityWithRole("doc", model.RoleDoctor), ListParams{})
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	items, total, err := f.svc.ListPending(context.Background(), adminIdentity(), ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "asha1", items[0].Username)
}

func TestApproveCreatesUserWithStoredHash(t *testing.T) {
	f := newRegistrationFixture()
	res := f.submit(t, "asha1")
	admin := adminIdentity()

	approved, err := f.svc.Approve(context.Background(), admin, res.RegistrationID, "Verified ID")
	require.NoError(t, err)
	assert.Equal(t, "asha1", approved.Username)
	assert.Equal(t, "User asha1 approved successfully", approved.Message)

	reg := f.regs.all()[0]
	user, err := f.users.FindByUsername(context.Background(), "asha1")
	require.NoError(t, err)
	assert.Equal(t, reg.PasswordHash, user.Password)
	assert.True(t, user.IsApproved)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.ApprovedBy)
	assert.Equal(t, admin.UserID, *user.ApprovedBy)
	assert.NotNil(t, user.ApprovedAt)
	assert.Equal(t, []string{model.RoleASHA}, user.RoleNames())

	assert.Equal(t, model.RegistrationApproved, reg.Status)
	assert.Equal(t, "Verified ID", reg.AdminNotes)
	require.NotNil(t, reg.ReviewedBy)
	assert.Equal(t, admin.UserID, *reg.ReviewedBy)
	assert.Contains(t, f.audit.actions(), model.ActionRegistrationApproved)
}

func TestApproveGuards(t *testing.T) {
	f := newRegistrationFixture()
	res := f.submit(t, "asha1")

	_, err := f.svc.Approve(context.Background(), identityWithRole("doc", model.RoleDoctor), res.RegistrationID, "")
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	_, err = f.svc.Approve(context.Background(), adminIdentity(), "8a5b3a9e-0000-4000-8000-000000000000", "")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.svc.Approve(context.Background(), adminIdentity(), "bogus", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.svc.Approve(context.Background(), adminIdentity(), res.RegistrationID, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), adminIdentity(), res.RegistrationID, "")
	assert.True(t, apperror.Is(err, apperror.KindState))
	_, err = f.svc.Reject(context.Background(), adminIdentity(), res.RegistrationID, "")
	assert.True(t, apperror.Is(err, apperror.KindState))
	assert.Equal(t, 1, f.users.count())
}

func TestSecondReviewLeavesFirstDecisionIntact(t *testing.T) {
	f := newRegistrationFixture()
	res := f.submit(t, "asha1")
	svc := f.svc.(*registrationService)
	first, second := adminIdentity(), adminIdentity()
	firstAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return firstAt }
	_, err := f.svc.Approve(context.Background(), first, res.RegistrationID, "Verified ID")
	require.NoError(t, err)

	svc.now = func() time.Time { return firstAt.Add(48 * time.Hour) }
	_, err = f.svc.Approve(context.Background(), second, res.RegistrationID, "again")
	assert.True(t, apperror.Is(err, apperror.KindState))
	_, err = f.svc.Reject(context.Background(), second, res.RegistrationID, "too late")
	assert.True(t, apperror.Is(err, apperror.KindState))

	reg := f.regs.all()[0]
	assert.Equal(t, model.RegistrationApproved, reg.Status)
	require.NotNil(t, reg.ReviewedBy)
	assert.Equal(t, first.UserID, *reg.ReviewedBy)
	require.NotNil(t, reg.ReviewedAt)
	assert.True(t, firstAt.Equal(*reg.ReviewedAt))
	assert.Equal(t, "Verified ID", reg.AdminNotes)
	assert.Equal(t, 1, f.users.count())
}

func TestConcurrentApproveHasOneWinner(t *testing.T) {
	f := newRegistrationFixture()
	res := f.submit(t, "asha1")

	const reviewers = 8
	var wg sync.WaitGroup
	errs := make([]error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(context.Background(), adminIdentity(), res.RegistrationID, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperror.Is(err, apperror.KindState), "got %v", err)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, f.users.count())
}

func TestRejectUsesDefaultNote(t *testing.T) {
	f := newRegistrationFixture()
	res := f.submit(t, "asha1")

	rejected, err := f.svc.Reject(context.Background(), adminIdentity(), res.RegistrationID, "  ")
	require.NoError(t, err)
	assert.Equal(t, res.RegistrationID, rejected.RegistrationID)

	reg := f.regs.all()[0]
	assert.Equal(t, model.RegistrationRejected, reg.Status)
	assert.Equal(t, "Rejected by admin", reg.AdminNotes)
	assert.Zero(t, f.users.count())
	assert.Contains(t, f.audit.actions(), model.ActionRegistrationRejected)
}

