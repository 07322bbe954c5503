package repository

import (
	"context"
	"testing"

	"colloquy/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestVoteRepository_GetByUserAndComment(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "votes" WHERE user_id = \$1 AND comment_id = \$2`).
		WithArgs(1, 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "comment_id", "vote_type"}).
			AddRow(9, 1, 2, models.VoteDown))

	vote, err := repo.GetByUserAndComment(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, uint(9), vote.ID)
	assert.Equal(t, models.VoteDown, vote.VoteType)
}

func TestVoteRepository_GetByUserAndComment_Absent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	vote, err := repo.GetByUserAndComment(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Nil(t, vote)
}

func TestVoteRepository_CountByComment(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "votes"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	up, down, err := repo.CountByComment(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 5, up)
	assert.Equal(t, 2, down)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepository_UpdateType(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "votes" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateType(context.Background(), 9, models.VoteUp)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepository_DeleteByCommentIDs_EmptyInput(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewVoteRepository(db)

	err := repo.DeleteByCommentIDs(context.Background(), nil)
	assert.NoError(t, err)
}
