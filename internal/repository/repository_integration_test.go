package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/repository"
	"github.com/pclub/portal/api/internal/testing/fixtures"
	"github.com/pclub/portal/api/internal/testing/helpers"
	"github.com/pclub/portal/api/internal/testing/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_CRUD(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewEventRepository(tdb.DB)
	ctx := tdb.Ctx()

	event := f.CreateEvent(t)
	require.NotEmpty(t, event.ID)

	got, err := repo.Get(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, event.Title, got.Title)
	assert.Empty(t, got.Winners)

	got.Location = "Lab 2"
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Lab 2", updated.Location)

	helpers.AssertRecordExists(t, tdb.DB, "event", event.ID)
	require.NoError(t, repo.Delete(ctx, event.ID))
	helpers.AssertRecordNotExists(t, tdb.DB, "event", event.ID)
	got, err = repo.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Delete(ctx, event.ID), database.ErrNotFound)
}

func TestEventRepository_ListOrdersByDateDescending(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	now := time.Now().Truncate(time.Second)
	older := f.CreateEvent(t, fixtures.WithDate(now.Add(-48*time.Hour)), fixtures.WithRegistrationOpen(false))
	newer := f.CreateEvent(t, fixtures.WithDate(now))

	events, err := repository.NewEventRepository(tdb.DB).List(tdb.Ctx())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, newer.ID, events[0].ID)
	assert.Equal(t, older.ID, events[1].ID)

	open, err := repository.NewEventRepository(tdb.DB).ListOpen(tdb.Ctx())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, newer.ID, open[0].ID)
}

func TestRegistrationRepository_RegisterPushesEvent(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	ctx := tdb.Ctx()

	user := f.CreateUser(t)
	event := f.CreateEvent(t)
	f.Register(t, event, user)

	repo := repository.NewRegistrationRepository(tdb.DB)
	exists, err := repo.Exists(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := repository.NewUserRepository(tdb.DB).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasRegistered(event.ID))

	err = repo.Register(ctx, &model.Registration{EventID: event.ID, UserID: user.ID})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	registrants, err := repo.ListRegistrants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, registrants, 1)
	assert.Equal(t, user.Email, registrants[0].Email)

	mine, err := repository.NewEventRepository(tdb.DB).ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, event.ID, mine[0].ID)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	user := f.CreateUser(t)
	err := repository.NewUserRepository(tdb.DB).Create(tdb.Ctx(), &model.User{Email: user.Email, Name: "Other"})
	assert.True(t, errors.Is(err, database.ErrDuplicate))
}

func TestBlogRepository_LikesAndTags(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	ctx := tdb.Ctx()

	author := f.CreateUser(t)
	blog := f.CreateBlog(t, author, "Graphs", "dp")

	likes := repository.NewLikeRepository(tdb.DB)
	require.NoError(t, likes.Create(ctx, blog.ID, author.ID))
	assert.ErrorIs(t, likes.Create(ctx, blog.ID, author.ID), database.ErrDuplicate)

	got, err := repository.NewBlogRepository(tdb.DB).Get(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, author.ID, got.AuthorID)

	tags, err := repository.NewBlogRepository(tdb.DB).Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dp", "graphs"}, tags)

	removed, err := likes.Delete(ctx, blog.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestCPRepository_UpsertSolveIsIdempotent(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	ctx := tdb.Ctx()

	user := f.LinkHandle(t, f.CreateUser(t), "tourist")
	problem := f.CreateProblem(t, 1408, "A")
	repo := repository.NewCPRepository(tdb.DB)

	solve := &model.ProblemSolve{
		UserID:           user.ID,
		CodeforcesHandle: "tourist",
		ProblemID:        problem.ProblemID,
		SubmissionID:     99,
		Verdict:          "OK",
		SolvedAt:         time.Now().Add(time.Minute),
	}
	require.NoError(t, repo.UpsertSolve(ctx, solve))
	require.NoError(t, repo.UpsertSolve(ctx, solve))

	solves, err := repo.ListSolves(ctx, problem.ProblemID)
	require.NoError(t, err)
	assert.Len(t, solves, 1)

	accepted, err := repo.AcceptedSolves(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestNoticeRepository_DefaultsToHidden(t *testing.T) {
	tdb := testdb.New(t)
	repo := repository.NewNoticeRepository(tdb.DB)
	ctx := context.Background()

	notice, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, notice.Show)

	_, err = repo.Set(ctx, &model.NoticeRequest{Show: true, Message: "Contest on Friday"})
	require.NoError(t, err)

	notice, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, notice.Show)
	assert.Equal(t, "Contest on Friday", notice.Message)
}
