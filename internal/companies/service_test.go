package companies

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/database"
	"jobportal/internal/database/databasetest"
	"jobportal/internal/errcode"
	"jobportal/internal/paging"
)

func ptr[T any](v T) *T { return &v }

func seedEmployer(t *testing.T, db *gorm.DB, email string) auth.Identity {
	t.Helper()
	user := database.User{Name: "Owner", Email: email, Role: database.RoleEmployer}
	require.NoError(t, db.Create(&user).Error)
	return auth.Identity{ID: user.ID, Role: auth.RoleEmployer, Email: email}
}

func profileInput(name string) Input {
	return Input{
		Name:        ptr(name),
		Description: ptr("We build tools for hiring teams around the world."),
		Industry:    ptr("technology"),
		Size:        ptr("11-50"),
		Website:     ptr("https://acme.example.com"),
		Contact:     &ContactInput{Email: ptr("hr@acme.example.com")},
	}
}

func TestUpsert_CreatesThenUpdatesInPlace(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "boss@acme.example.com")
	ctx := context.Background()

	created, err := svc.Upsert(ctx, actor, profileInput("Acme"))
	require.NoError(t, err)
	assert.Equal(t, "boss@acme.example.com", created.ContactEmail)
	assert.True(t, created.IsActive)

	updated, err := svc.Upsert(ctx, actor, profileInput("Acme Labs"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Acme Labs", updated.Name)

	var count int64
	require.NoError(t, db.Model(&database.Company{}).Where("owner_id = ?", actor.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsert_RequiresCoreFields(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "x@example.com")

	_, err := svc.Upsert(context.Background(), actor, Input{Name: ptr("Acme")})
	require.Equal(t, errcode.Validation, errcode.CodeOf(err))

	var verr *errcode.Error
	require.ErrorAs(t, err, &verr)
	var fields []string
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"description", "industry", "size"}, fields)
}

func TestCreateStrict_ConflictOnSecondCompany(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "strict@example.com")
	ctx := context.Background()

	_, err := svc.CreateStrict(ctx, actor, profileInput("Strict Co"))
	require.NoError(t, err)

	_, err = svc.CreateStrict(ctx, actor, profileInput("Strict Co Again"))
	assert.Equal(t, errcode.Conflict, errcode.CodeOf(err))
}

func TestCreateStrict_Validation(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	actor := seedEmployer(t, db, "v@example.com")

	in := profileInput("A")
	in.Description = ptr("too short")
	in.Founded = ptr(1700)
	in.Contact = &ContactInput{Email: ptr("not-an-email")}

	_, err := svc.CreateStrict(context.Background(), actor, in)
	require.Equal(t, errcode.Validation, errcode.CodeOf(err))

	var verr *errcode.Error
	require.ErrorAs(t, err, &verr)
	var fields []string
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"contactEmail", "name", "description", "founded"}, fields)
}

func TestUpdateDeleteAuthorization(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	owner := seedEmployer(t, db, "o@example.com")
	stranger := seedEmployer(t, db, "s@example.com")
	admin := auth.Identity{ID: 1000, Role: auth.RoleAdmin}
	ctx := context.Background()

	company, err := svc.CreateStrict(ctx, owner, profileInput("Owned Co"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, stranger, company.ID, Input{Name: ptr("Stolen")})
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(err))

	updated, err := svc.Update(ctx, admin, company.ID, Input{Size: ptr("51-200")})
	require.NoError(t, err)
	assert.Equal(t, "51-200", updated.Size)

	_, err = svc.SetVerified(ctx, owner, company.ID, true)
	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(err))
	verified, err := svc.SetVerified(ctx, admin, company.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	assert.Equal(t, errcode.Forbidden, errcode.CodeOf(svc.Delete(ctx, stranger, company.ID)))
	require.NoError(t, svc.Delete(ctx, owner, company.ID))
	_, err = svc.Get(ctx, company.ID)
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))
}

func TestGet_IncludesOnlyActiveJobs(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	owner := seedEmployer(t, db, "jobs@example.com")
	ctx := context.Background()

	company, err := svc.Upsert(ctx, owner, profileInput("Jobs Co"))
	require.NoError(t, err)
	require.NoError(t, db.Create(&database.Job{CompanyID: company.ID, PostedByID: owner.ID, Title: "Open role", IsActive: true}).Error)
	require.NoError(t, db.Create(&database.Job{CompanyID: company.ID, PostedByID: owner.ID, Title: "Closed role", IsActive: false}).Error)

	got, err := svc.Get(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "Open role", got.Jobs[0].Title)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "jobs@example.com", got.Owner.Email)

	mine, err := svc.GetByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine.Jobs, 2)
}

func TestList_FiltersActiveAndPaginates(t *testing.T) {
	db := databasetest.New(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		owner := seedEmployer(t, db, "list"+strings.Repeat("x", i)+"@example.com")
		in := profileInput("Company " + string(rune('A'+i)))
		if i%2 == 0 {
			in.Industry = ptr("finance")
		}
		_, err := svc.Upsert(ctx, owner, in)
		require.NoError(t, err)
	}
	require.NoError(t, db.Model(&database.Company{}).Where("name = ?", "Company A").Update("is_active", false).Error)

	page, err := svc.List(ctx, Query{Page: paging.Params{Page: 2, Limit: 4}})
	require.NoError(t, err)
	assert.EqualValues(t, 6, page.Total)
	assert.Equal(t, 2, page.Count)
	assert.Nil(t, page.Pagination.Next)
	require.NotNil(t, page.Pagination.Prev)

	finance, err := svc.List(ctx, Query{Industry: "finance", Sort: "name", Page: paging.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.EqualValues(t, 3, finance.Total)
	assert.Equal(t, "Company C", finance.Items[0].Name)

	search, err := svc.List(ctx, Query{Search: "company g", Page: paging.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, search.Total)
}
