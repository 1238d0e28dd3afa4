package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankist.app/internal/bank"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func TestFind(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2019, 11, 18, 21, 31, 17, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("select owner, pin, interest_rate, currency, locale").
		WithArgs("js").
		WillReturnRows(sqlmock.NewRows([]string{"owner", "pin", "interest_rate", "currency", "locale"}).
			AddRow("Jonas Schmedtmann", 1111, "1.2", "EUR", "pt-PT"))
	mock.ExpectQuery("select id, amount, occurred_at").
		WithArgs("js").
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "occurred_at"}).
			AddRow("m1", "200", at).
			AddRow("m2", "-306.5", at.Add(time.Hour)))
	mock.ExpectCommit()

	acc, err := store.Find(context.Background(), "js")
	require.NoError(t, err)
	assert.Equal(t, "Jonas Schmedtmann", acc.Owner)
	assert.Equal(t, 1111, acc.PIN)
	assert.True(t, decimal.RequireFromString("1.2").Equal(acc.InterestRate))
	require.Len(t, acc.Movements, 2)
	assert.Equal(t, "m2", acc.Movements[1].ID)
	assert.True(t, decimal.RequireFromString("-306.5").Equal(acc.Movements[1].Amount))
	assert.True(t, at.Equal(acc.Movements[0].Date))
}

func TestFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("select owner, pin").
		WithArgs("zz").
		WillReturnRows(sqlmock.NewRows([]string{"owner", "pin", "interest_rate", "currency", "locale"}))
	mock.ExpectRollback()

	_, err := store.Find(context.Background(), "zz")
	assert.ErrorIs(t, err, bank.ErrNotFound)
}

func TestFindMovementsErrorRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery("select owner, pin").
		WithArgs("js").
		WillReturnRows(sqlmock.NewRows([]string{"owner", "pin", "interest_rate", "currency", "locale"}).
			AddRow("Jonas Schmedtmann", 1111, "1.2", "EUR", "pt-PT"))
	mock.ExpectQuery("select id, amount, occurred_at").
		WithArgs("js").
		WillReturnError(boom)
	mock.ExpectRollback()

	acc, err := store.Find(context.Background(), "js")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, acc.Owner)
}

func TestListGroupsMovementsByAccount(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("select username, owner, pin, interest_rate, currency, locale").
		WillReturnRows(sqlmock.NewRows([]string{"username", "owner", "pin", "interest_rate", "currency", "locale"}).
			AddRow("js", "Jonas Schmedtmann", 1111, "1.2", "EUR", "pt-PT").
			AddRow("jd", "Jessica Davis", 2222, "1.5", "USD", "en-US"))
	mock.ExpectQuery("select username, id, amount, occurred_at").
		WillReturnRows(sqlmock.NewRows([]string{"username", "id", "amount", "occurred_at"}).
			AddRow("jd", "a", "5000", at).
			AddRow("js", "b", "200", at).
			AddRow("jd", "c", "-30", at))
	mock.ExpectCommit()

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "js", list[0].Username)
	assert.Len(t, list[0].Movements, 1)
	assert.Len(t, list[1].Movements, 2)
	assert.Equal(t, "c", list[1].Movements[1].ID)
}

func TestAppendInsertsAccountAndMovements(t *testing.T) {
	store, mock := newMockStore(t)
	acc := bank.DemoAccounts()[1]

	mock.ExpectBegin()
	mock.ExpectExec("insert into accounts").
		WithArgs("jd", "Jessica Davis", 2222, sqlmock.AnyArg(), "USD", "en-US").
		WillReturnResult(sqlmock.NewResult(1, 1))
	for range acc.Movements {
		mock.ExpectExec("insert into movements").
			WithArgs(sqlmock.AnyArg(), "jd", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.Append(context.Background(), acc))
}

func TestAppendDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into accounts").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	mock.ExpectRollback()

	err := store.Append(context.Background(), bank.Account{Username: "js"})
	assert.ErrorIs(t, err, bank.ErrDuplicateUsername)
}

func TestRemoveByKey(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from accounts").WithArgs("js").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from accounts").WithArgs("js").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.RemoveByKey(context.Background(), "js"))
	assert.ErrorIs(t, store.RemoveByKey(context.Background(), "js"), bank.ErrNotFound)
}

func TestPostLocksInStableOrder(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2020, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from accounts where username=\\$1 for update").
		WithArgs("jd").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("select 1 from accounts where username=\\$1 for update").
		WithArgs("js").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("insert into movements").
		WithArgs("m1", "js", sqlmock.AnyArg(), at).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into movements").
		WithArgs("m2", "jd", sqlmock.AnyArg(), at).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Post(context.Background(),
		bank.Entry{Username: "js", Movement: bank.Movement{ID: "m1", Amount: decimal.NewFromInt(-100), Date: at}},
		bank.Entry{Username: "jd", Movement: bank.Movement{ID: "m2", Amount: decimal.NewFromInt(100), Date: at}},
	)
	require.NoError(t, err)
}

func TestPostUnknownAccountRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs("zz").WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	err := store.Post(context.Background(), bank.Entry{Username: "zz", Movement: bank.Movement{ID: "m"}})
	assert.ErrorIs(t, err, bank.ErrNotFound)
}

func TestSeedSkipsExistingAccounts(t *testing.T) {
	store, mock := newMockStore(t)
	accounts := bank.DemoAccounts()

	mock.ExpectBegin()
	mock.ExpectExec("insert into accounts").WithArgs("js", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("insert into accounts").WithArgs("jd", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for range accounts[1].Movements {
		mock.ExpectExec("insert into movements").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	added, err := store.Seed(context.Background(), accounts)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestSeedStopsOnOtherErrors(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin().WillReturnError(boom)

	added, err := store.Seed(context.Background(), bank.DemoAccounts())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, added)
}

func TestLockOrder(t *testing.T) {
	got := lockOrder([]bank.Entry{{Username: "js"}, {Username: "jd"}, {Username: "js"}})
	assert.Equal(t, []string{"jd", "js"}, got)
}
