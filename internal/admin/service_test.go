package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal/internal/applications"
	"jobportal/internal/auth"
	"jobportal/internal/companies"
	"jobportal/internal/database"
	"jobportal/internal/database/databasetest"
	"jobportal/internal/errcode"
	"jobportal/internal/jobs"
	"jobportal/internal/paging"
)

type recordingPurger struct {
	userIDs []uint
	err     error
}

func (p *recordingPurger) EnqueueResumePurge(_ context.Context, userID uint, _ string) error {
	p.userIDs = append(p.userIDs, userID)
	return p.err
}

func newService(t *testing.T) (*Service, *gorm.DB, *recordingPurger) {
	t.Helper()
	db := databasetest.New(t)
	purger := &recordingPurger{}
	svc := NewService(db, companies.NewService(db, nil), jobs.NewService(db, nil), purger, nil)
	return svc, db, purger
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) database.User {
	t.Helper()
	user := database.User{Name: email, Email: email, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func identityOf(u database.User) auth.Identity {
	return auth.Identity{ID: u.ID, Role: auth.Role(u.Role), Email: u.Email}
}

func TestGate_RejectsNonAdmins(t *testing.T) {
	svc, db, _ := newService(t)
	seeker := identityOf(seedUser(t, db, "s@example.com", database.RoleJobSeeker))
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, seeker)
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(err))
	_, err = svc.ListUsers(ctx, seeker, paging.Params{Page: 1, Limit: 10})
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(err))
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(svc.DeleteUser(ctx, seeker, seeker.ID, "")))
}

func TestSetUserRole(t *testing.T) {
	svc, db, _ := newService(t)
	admin := identityOf(seedUser(t, db, "admin@example.com", database.RoleAdmin))
	target := seedUser(t, db, "t@example.com", database.RoleJobSeeker)
	ctx := context.Background()

	_, err := svc.SetUserRole(ctx, admin, target.ID, "superuser")
	assert.Equal(t, errcode.Validation, errcode.CodeOf(err))

	updated, err := svc.SetUserRole(ctx, admin, target.ID, "employer")
	require.NoError(t, err)
	assert.Equal(t, database.RoleEmployer, updated.Role)

	_, err = svc.SetUserRole(ctx, admin, 9999, "employer")
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))

	verified, err := svc.SetUserVerified(ctx, admin, target.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}

func TestFlagFlips(t *testing.T) {
	svc, db, _ := newService(t)
	admin := identityOf(seedUser(t, db, "admin@example.com", database.RoleAdmin))
	owner := seedUser(t, db, "owner@example.com", database.RoleEmployer)
	company := database.Company{OwnerID: owner.ID, Name: "Acme", IsActive: true}
	require.NoError(t, db.Create(&company).Error)
	job := database.Job{CompanyID: company.ID, PostedByID: owner.ID, Title: "SRE", IsActive: true}
	require.NoError(t, db.Create(&job).Error)
	ctx := context.Background()

	c, err := svc.SetCompanyVerified(ctx, admin, company.ID, true)
	require.NoError(t, err)
	assert.True(t, c.IsVerified)

	j, err := svc.ToggleJobActive(ctx, admin, job.ID)
	require.NoError(t, err)
	assert.False(t, j.IsActive)

	_, err = svc.ToggleJobActive(ctx, admin, 9999)
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))
}

func TestDashboardAndLists(t *testing.T) {
	svc, db, _ := newService(t)
	admin := identityOf(seedUser(t, db, "admin@example.com", database.RoleAdmin))
	owner := seedUser(t, db, "owner@example.com", database.RoleEmployer)
	seeker := seedUser(t, db, "seeker@example.com", database.RoleJobSeeker)
	company := database.Company{OwnerID: owner.ID, Name: "Acme", IsActive: true}
	require.NoError(t, db.Create(&company).Error)

	for i := 0; i < 7; i++ {
		job := database.Job{CompanyID: company.ID, PostedByID: owner.ID, Title: "Job", IsActive: i%2 == 0}
		require.NoError(t, db.Create(&job).Error)
		app := database.Application{
			JobID: job.ID, ApplicantID: seeker.ID, CompanyID: company.ID,
			Status: database.StatusPending, AppliedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		if i >= 4 {
			app.Status = database.StatusRejected
		}
		require.NoError(t, db.Create(&app).Error)
	}
	ctx := context.Background()

	dash, err := svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalUsers: 3, TotalJobs: 7, TotalCompanies: 1, TotalApplications: 7,
		ActiveJobs: 4, PendingApplications: 4,
	}, dash.Stats)
	assert.Len(t, dash.RecentJobs, 5)
	require.Len(t, dash.RecentApplications, 5)
	require.NotNil(t, dash.RecentApplications[0].Job)
	assert.Equal(t, "Job", dash.RecentApplications[0].Job.Title)

	jobsPage, err := svc.ListJobs(ctx, admin, paging.Params{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 7, jobsPage.Total)
	assert.Len(t, jobsPage.Items, 5)
	require.NotNil(t, jobsPage.Pagination.Next)
	assert.Nil(t, jobsPage.Pagination.Prev)

	appsPage, err := svc.ListApplications(ctx, admin, paging.Params{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, appsPage.Items, 2)
	assert.Nil(t, appsPage.Pagination.Next)
	require.NotNil(t, appsPage.Pagination.Prev)

	users, err := svc.ListUsers(ctx, admin, paging.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, users.Total)

	all, err := svc.ListCompanies(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Count)
}

func TestDeleteUser_RejectsSelf(t *testing.T) {
	svc, db, purger := newService(t)
	admin := identityOf(seedUser(t, db, "admin@example.com", database.RoleAdmin))

	err := svc.DeleteUser(context.Background(), admin, admin.ID, "")
	assert.Equal(t, errcode.InvalidState, errcode.CodeOf(err))
	assert.Empty(t, purger.userIDs)
}

func TestDeleteUser_CascadesEmployer(t *testing.T) {
	svc, db, purger := newService(t)
	admin := identityOf(seedUser(t, db, "admin@example.com", database.RoleAdmin))
	owner := seedUser(t, db, "owner@example.com", database.RoleEmployer)
	company := database.Company{OwnerID: owner.ID, Name: "Acme", IsActive: true}
	require.NoError(t, db.Create(&company).Error)

	var jobIDs []uint
	for i := 0; i < 2; i++ {
		job := database.Job{CompanyID: company.ID, PostedByID: owner.ID, Title: "Job", IsActive: true}
		require.NoError(t, db.Create(&job).Error)
		jobIDs = append(jobIDs, job.ID)
	}
	for i := 0; i < 5; i++ {
		seeker := seedUser(t, db, "seeker"+string(rune('a'+i))+"@example.com", database.RoleJobSeeker)
		app := database.Application{
			JobID: jobIDs[i%2], ApplicantID: seeker.ID, CompanyID: company.ID,
			Status: database.StatusPending, AppliedAt: time.Now(),
		}
		require.NoError(t, db.Create(&app).Error)
	}

	require.NoError(t, svc.DeleteUser(context.Background(), admin, owner.ID, "cid-1"))

	var apps, jobsLeft, users int64
	require.NoError(t, db.Model(&database.Application{}).Count(&apps).Error)
	require.NoError(t, db.Model(&database.Job{}).Count(&jobsLeft).Error)
	require.NoError(t, db.Model(&database.User{}).Where("id = ?", owner.ID).Count(&users).Error)
	assert.Zero(t, apps)
	assert.Zero(t, jobsLeft)
	assert.Zero(t, users)
	assert.Equal(t, []uint{owner.ID}, purger.userIDs)

	ownerIdentity := identityOf(owner)
	ownerIdentity.CompanyID = &company.ID
	listed, err := applications.NewService(db, nil, nil).ListForCompany(context.Background(), ownerIdentity, applications.CompanyFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestDeleteUser_PurgeFailureIsNotFatal(t *testing.T) {
	svc, db, purger := newService(t)
	purger.err = errors.New("redis down")
	admin := identityOf(seedUser(t, db, "admin@example.com", database.RoleAdmin))
	seeker := seedUser(t, db, "seeker@example.com", database.RoleJobSeeker)

	require.NoError(t, svc.DeleteUser(context.Background(), admin, seeker.ID, ""))
	assert.Equal(t, []uint{seeker.ID}, purger.userIDs)

	err := svc.DeleteUser(context.Background(), admin, seeker.ID, "")
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))
}
