package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tush00nka/bbbab_conversations/internal/model"
)

var userColumns = []string{"id", "user_name", "first_name", "last_name", "email", "password_hash", "password_salt"}

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewStore(gdb), mock
}

func TestGormStoreGetUserByID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "user" WHERE "user"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "alice", "Alice", "Liddell", "alice@example.com", "h", "s"))

	u, err := store.GetUserByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, "h", u.PasswordHash)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetUserByIDMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "user"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	u, err := store.GetUserByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO "user"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	user := &model.User{UserName: "alice", PasswordHash: "h", PasswordSalt: "s"}
	id, err := store.InsertUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)
	assert.Equal(t, uint(5), user.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertUserDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO "user"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.InsertUser(context.Background(), &model.User{UserName: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreUpdateUserSkipsEmptyFields(t *testing.T) {
	store, mock := newMockStore(t)

	require.NoError(t, store.UpdateUser(context.Background(), 1, model.UserFields{}))

	email := "new@example.com"
	mock.ExpectExec(`UPDATE "user" SET "email"=\$1 WHERE id = \$2`).
		WithArgs(email, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateUser(context.Background(), 1, model.UserFields{Email: &email}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreHasConversationUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversation_user" WHERE conversation_id = \$1 AND user_id = \$2`).
		WithArgs(3, 7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := store.HasConversationUser(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetUsersByConversationID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "user" WHERE id IN \(SELECT .*user_id.* FROM "conversation_user" WHERE conversation_id = \$1\) ORDER BY id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "alice", "", "", "", "h", "s").
			AddRow(2, "bob", "", "", "", "h", "s"))

	users, err := store.GetUsersByConversationID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].UserName)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteConversationIsTransactional(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "message" WHERE conversation_id = \$1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM "conversation_user" WHERE conversation_id = \$1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "conversation" WHERE "conversation"\."id" = \$1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.DeleteConversation(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteConversationRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "message"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.DeleteConversation(context.Background(), 3)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteConversationUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "conversation_user" WHERE conversation_id = \$1 AND user_id = \$2`).
		WithArgs(3, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteConversationUser(context.Background(), 3, 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteConversationUsersByUserID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "conversation_user" WHERE user_id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, store.DeleteConversationUsersByUserID(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "user" WHERE "user"\."id" = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteUser(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetConversationsByUserID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "conversation" WHERE id IN \(SELECT .*conversation_id.* FROM "conversation_user" WHERE user_id = \$1\) ORDER BY id`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(2, "team").
			AddRow(5, "family"))

	conversations, err := store.GetConversationsByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, uint(2), conversations[0].ID)
	assert.Equal(t, "family", conversations[1].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetMessagesByConversationID(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "message" WHERE conversation_id = \$1 ORDER BY timestamp, id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "sender_id", "body", "timestamp", "attachment_key", "content_type"}).
			AddRow(4, 3, 1, "hello", ts, "", "").
			AddRow(9, 3, 2, "hi", ts, "", ""))

	messages, err := store.GetMessagesByConversationID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, uint(4), messages[0].ID)
	assert.Equal(t, "hi", messages[1].Body)
	assert.True(t, ts.Equal(messages[1].Timestamp))

	require.NoError(t, mock.ExpectationsWereMet())
}
