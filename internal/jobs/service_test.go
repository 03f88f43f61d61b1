package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/database"
	"jobportal/internal/database/databasetest"
	"jobportal/internal/errcode"
	"jobportal/internal/paging"
)

func ptr[T any](v T) *T { return &v }

func seedEmployer(t *testing.T, db *gorm.DB, email string, withCompany bool) auth.Identity {
	t.Helper()
	user := database.User{Name: "Employer", Email: email, Role: database.RoleEmployer}
	require.NoError(t, db.Create(&user).Error)
	identity := auth.Identity{ID: user.ID, Role: auth.RoleEmployer, Email: email}
	if withCompany {
		company := database.Company{OwnerID: user.ID, Name: "Acme " + email, IsActive: true}
		require.NoError(t, db.Create(&company).Error)
		identity.CompanyID = &company.ID
	}
	return identity
}

func validInput() Input {
	return Input{
		Title:               ptr("Backend Engineer"),
		Description:         ptr(strings.Repeat("Build and operate distributed services. ", 3)),
		Location:            ptr("Berlin"),
		Type:                ptr("full-time"),
		Experience:          ptr("mid"),
		Category:            ptr("technology"),
		SalaryMin:           ptr(50000.0),
		SalaryMax:           ptr(70000.0),
		Skills:              []string{" go ", "postgres", ""},
		ApplicationDeadline: ptr(time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)),
	}
}

func TestCreate_RequiresCompany(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "nocompany@example.com", false)

	_, err := svc.Create(context.Background(), actor, validInput())
	assert.Equal(t, errcode.Precondition, errcode.CodeOf(err))
}

func TestCreate_ValidatesFields(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "v@example.com", true)

	in := validInput()
	in.Title = ptr("Dev")
	in.Type = ptr("gig")
	in.SalaryMax = ptr(100.0)

	_, err := svc.Create(context.Background(), actor, in)
	require.Equal(t, errcode.Validation, errcode.CodeOf(err))

	var verr *errcode.Error
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "type")
	assert.Equal(t, "salary.max cannot be less than salary.min", fields["salary.max"])
}

func TestCreate_MissingSalaryIsValidationError(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "ns@example.com", true)

	in := validInput()
	in.SalaryMin, in.SalaryMax = nil, nil

	_, err := svc.Create(context.Background(), actor, in)
	assert.Equal(t, errcode.Validation, errcode.CodeOf(err))
}

func TestCreate_NormalizesSalaryAndAppendsCompanyJobIDs(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "c@example.com", true)

	in := validInput()
	in.Salary = &SalaryInput{Min: ptr(80000.0), Max: ptr(90000.0), Currency: "eur"}

	job, err := svc.Create(context.Background(), actor, in)
	require.NoError(t, err)

	assert.Equal(t, Salary{Min: 80000, Max: 90000, Currency: "EUR"}, SalaryOf(*job))
	assert.Equal(t, []string{"go", "postgres"}, []string(job.Skills))
	assert.True(t, job.IsActive)
	assert.Equal(t, actor.ID, job.PostedByID)
	assert.Equal(t, *actor.CompanyID, job.CompanyID)

	var company database.Company
	require.NoError(t, db.First(&company, *actor.CompanyID).Error)
	assert.Equal(t, []uint{job.ID}, []uint(company.JobIDs))
}

func TestCreate_FlatSalaryDefaultsCurrency(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "flat@example.com", true)

	job, err := svc.Create(context.Background(), actor, validInput())
	require.NoError(t, err)
	assert.Equal(t, Salary{Min: 50000, Max: 70000, Currency: "USD"}, SalaryOf(*job))
}

func TestGet_IncrementsViews(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "views@example.com", true)
	job, err := svc.Create(context.Background(), actor, validInput())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	got, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, got.Views)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Acme views@example.com", got.Company.Name)

	_, err = svc.Get(context.Background(), 9999)
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))
}

func TestUpdate_Authorization(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	owner := seedEmployer(t, db, "owner@example.com", true)
	other := seedEmployer(t, db, "other@example.com", true)
	admin := auth.Identity{ID: 999, Role: auth.RoleAdmin}

	job, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), other, job.ID, Input{Title: ptr("Hijacked title")})
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(err))

	updated, err := svc.Update(context.Background(), admin, job.ID, Input{Title: ptr("Senior Backend Engineer")})
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", updated.Title)
	assert.Equal(t, 50000.0, updated.SalaryMin)

	_, err = svc.Update(context.Background(), owner, job.ID, Input{Salary: &SalaryInput{Min: ptr(10.0), Max: ptr(5.0)}})
	assert.Equal(t, errcode.Validation, errcode.CodeOf(err))
}

func TestUpdate_KeepsCountersWrittenConcurrently(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	owner := seedEmployer(t, db, "counters@example.com", true)
	job, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	// 读取之后、写回之前，浏览与申请流程更新了计数列。
	interleaved := false
	err = db.Callback().Update().Before("gorm:update").Register("test:interleave_counters", func(tx *gorm.DB) {
		if interleaved || tx.Statement.Table != "jobs" {
			return
		}
		interleaved = true
		err := tx.Session(&gorm.Session{NewDB: true}).Table("jobs").Where("id = ?", job.ID).
			UpdateColumns(map[string]any{
				"views":           7,
				"application_ids": datatypes.JSONSlice[uint]{42},
			}).Error
		if err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, job.ID, Input{Title: ptr("Staff Backend Engineer"), IsRemote: ptr(false)})
	require.NoError(t, err)
	require.True(t, interleaved)
	assert.Equal(t, "Staff Backend Engineer", updated.Title)

	var stored database.Job
	require.NoError(t, db.First(&stored, job.ID).Error)
	assert.Equal(t, "Staff Backend Engineer", stored.Title)
	assert.False(t, stored.IsRemote)
	assert.EqualValues(t, 7, stored.Views)
	assert.Equal(t, []uint{42}, []uint(stored.ApplicationIDs))
}

func TestToggleActiveAndDelete(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	owner := seedEmployer(t, db, "toggle@example.com", true)
	other := seedEmployer(t, db, "nope@example.com", false)

	job, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	toggled, err := svc.ToggleActive(context.Background(), owner, job.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.ToggleActive(context.Background(), other, job.ID)
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(err))

	app := database.Application{JobID: job.ID, ApplicantID: 77, CompanyID: job.CompanyID, Status: database.StatusPending}
	require.NoError(t, db.Create(&app).Error)

	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(svc.Delete(context.Background(), other, job.ID)))
	require.NoError(t, svc.Delete(context.Background(), owner, job.ID))

	_, err = svc.Find(context.Background(), job.ID)
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))

	var remaining int64
	require.NoError(t, db.Model(&database.Application{}).Where("job_id = ?", job.ID).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestAcceptingApplications(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, AcceptingApplications(database.Job{IsActive: true, ApplicationDeadline: now.Add(time.Hour)}, now))
	assert.NoError(t, AcceptingApplications(database.Job{IsActive: true, ApplicationDeadline: now}, now))
	assert.Equal(t, errcode.InvalidState, errcode.CodeOf(AcceptingApplications(database.Job{IsActive: false, ApplicationDeadline: now.Add(time.Hour)}, now)))
	assert.Equal(t, errcode.InvalidState, errcode.CodeOf(AcceptingApplications(database.Job{IsActive: true, ApplicationDeadline: now.Add(-time.Second)}, now)))
}

func TestSearch_FiltersSortsAndPaginates(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "search@example.com", true)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		in := validInput()
		in.Title = ptr("Platform Engineer " + string(rune('A'+i)))
		in.SalaryMin = ptr(float64(40000 + i*1000))
		in.SalaryMax = ptr(float64(90000 + i*1000))
		if i%3 == 0 {
			in.Type = ptr("contract")
			in.Skills = []string{"Kubernetes"}
		}
		_, err := svc.Create(ctx, actor, in)
		require.NoError(t, err)
	}
	inactive := validInput()
	inactive.Title = ptr("Hidden Platform Role")
	inactive.IsActive = ptr(false)
	_, err := svc.Create(ctx, actor, inactive)
	require.NoError(t, err)

	page1, err := svc.Search(ctx, Query{ActiveOnly: true, Sort: "-salary.min", Page: paging.Params{Page: 1, Limit: 5}})
	require.NoError(t, err)
	assert.EqualValues(t, 12, page1.Total)
	assert.Equal(t, 5, page1.Count)
	assert.Equal(t, 51000.0, page1.Items[0].SalaryMin)
	require.NotNil(t, page1.Pagination.Next)
	assert.Nil(t, page1.Pagination.Prev)

	contracts, err := svc.Search(ctx, Query{ActiveOnly: true, Type: "contract", Page: paging.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 4, contracts.Total)

	bySkill, err := svc.Search(ctx, Query{ActiveOnly: true, Search: "kubernetes", Page: paging.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 4, bySkill.Total)

	salary, err := svc.Search(ctx, Query{ActiveOnly: true, SalaryMin: ptr(45000.0), SalaryMax: ptr(97000.0), Page: paging.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, salary.Total)

	all, err := svc.Search(ctx, Query{Search: "platform", Page: paging.Params{Page: 1, Limit: 50}})
	require.NoError(t, err)
	assert.EqualValues(t, 13, all.Total)

	wildcard, err := svc.Search(ctx, Query{Search: "%", Page: paging.Params{Page: 1, Limit: 50}})
	require.NoError(t, err)
	assert.EqualValues(t, 0, wildcard.Total)
}
