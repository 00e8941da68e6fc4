package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kerjalepas/kerjalepas/internal/notification"
)

var identityColumns = []string{"id", "email", "password_hash", "attributes", "confirmed_at", "created_at"}

// insertIdentityArgs matches the six INSERT INTO identities parameters.
func insertIdentityArgs() []any {
	return []any{pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()}
}

func newTestPostgresService(t *testing.T, opts ...Option) (*PostgresService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	svc, err := NewPostgresService(mock, append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)...)
	require.NoError(t, err)
	return svc, mock
}

func TestPostgresService_CreateIdentity(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantKind  Kind
		wantErr   bool
	}{
		{
			name:     "inserts normalized identity",
			email:    "Ayu@Example.com",
			password: "rahasia",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(pgxmock.AnyArg(), "ayu@example.com", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name:     "unique violation maps to duplicate email",
			email:    "ayu@example.com",
			password: "rahasia",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(insertIdentityArgs()...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: "duplicate key value violates unique constraint"})
			},
			wantErr:  true,
			wantKind: KindDuplicateEmail,
		},
		{
			name:     "connection failure is unknown",
			email:    "ayu@example.com",
			password: "rahasia",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(insertIdentityArgs()...).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr:  true,
			wantKind: KindUnknown,
		},
		{
			name:      "invalid email never reaches the database",
			email:     "ayu@",
			password:  "rahasia",
			setupMock: func(pgxmock.PgxPoolIface) {},
			wantErr:   true,
			wantKind:  KindInvalidEmail,
		},
		{
			name:      "short password never reaches the database",
			email:     "ayu@example.com",
			password:  "123",
			setupMock: func(pgxmock.PgxPoolIface) {},
			wantErr:   true,
			wantKind:  KindInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestPostgresService(t)
			tt.setupMock(mock)

			got, err := svc.CreateIdentity(context.Background(), tt.email, tt.password, Attributes{FullName: "Ayu", UserType: "freelancer"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ayu@example.com", got.Email)
				assert.NotEmpty(t, got.ID)
				assert.True(t, got.Confirmed())
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresService_VerifyCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	require.NoError(t, err)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	confirmed := created.Add(time.Minute)

	tests := []struct {
		name      string
		password  string
		opts      []Option
		setupMock func(mock pgxmock.PgxPoolIface)
		wantKind  Kind
		wantErr   bool
	}{
		{
			name:     "valid credentials open a session",
			password: "rahasia",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identities WHERE email = \$1`).
					WithArgs("ayu@example.com").
					WillReturnRows(pgxmock.NewRows(identityColumns).
						AddRow("id-1", "ayu@example.com", string(hash), []byte(`{"full_name":"Ayu","user_type":"client"}`), &confirmed, created))
			},
		},
		{
			name:     "wrong password",
			password: "salah123",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identities WHERE email = \$1`).
					WithArgs("ayu@example.com").
					WillReturnRows(pgxmock.NewRows(identityColumns).
						AddRow("id-1", "ayu@example.com", string(hash), []byte(`{}`), &confirmed, created))
			},
			wantErr:  true,
			wantKind: KindInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "rahasia",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identities WHERE email = \$1`).
					WithArgs("ayu@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr:  true,
			wantKind: KindInvalidCredentials,
		},
		{
			name:     "unconfirmed email",
			password: "rahasia",
			opts:     []Option{WithEmailConfirmation(true)},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identities WHERE email = \$1`).
					WithArgs("ayu@example.com").
					WillReturnRows(pgxmock.NewRows(identityColumns).
						AddRow("id-1", "ayu@example.com", string(hash), []byte(`{}`), (*time.Time)(nil), created))
			},
			wantErr:  true,
			wantKind: KindEmailNotConfirmed,
		},
		{
			name:     "database failure",
			password: "rahasia",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM identities WHERE email = \$1`).
					WithArgs("ayu@example.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr:  true,
			wantKind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestPostgresService(t, tt.opts...)
			tt.setupMock(mock)

			sess, err := svc.VerifyCredentials(context.Background(), "ayu@example.com", tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "id-1", sess.Identity.ID)
				assert.Equal(t, "client", sess.Identity.Attributes.UserType)
				assert.NotEmpty(t, sess.Token)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresService_ActiveIdentity(t *testing.T) {
	svc, mock := newTestPostgresService(t)
	ctx := context.Background()

	_, err := svc.ActiveIdentity(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	token, err := svc.sessions.Issue(ctx, "id-1")
	require.NoError(t, err)
	authed := WithSessionToken(ctx, token.Value)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`FROM identities WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "attributes", "confirmed_at", "created_at"}).
			AddRow("id-1", "ayu@example.com", []byte(`{"full_name":"Ayu"}`), &created, created))

	identity, err := svc.ActiveIdentity(authed)
	require.NoError(t, err)
	assert.Equal(t, "Ayu", identity.Attributes.FullName)

	mock.ExpectQuery(`FROM identities WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnError(pgx.ErrNoRows)
	_, err = svc.ActiveIdentity(authed)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestPostgresService_ConfirmEmail(t *testing.T) {
	recorder := &notification.Recorder{}
	svc, mock := newTestPostgresService(t, WithEmailConfirmation(true), WithNotifier(recorder))
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs(pgxmock.AnyArg(), "ayu@example.com", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	identity, err := svc.CreateIdentity(ctx, "ayu@example.com", "rahasia", Attributes{})
	require.NoError(t, err)
	assert.False(t, identity.Confirmed())

	msg, ok := recorder.Last(notification.KindEmailConfirmation)
	require.True(t, ok)

	mock.ExpectExec(`UPDATE identities SET confirmed_at`).
		WithArgs(pgxmock.AnyArg(), identity.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, svc.ConfirmEmail(ctx, msg.Token))

	assert.ErrorIs(t, svc.ConfirmEmail(ctx, msg.Token), ErrInvalidToken)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestPostgresService_InsertRecord(t *testing.T) {
	query := regexp.QuoteMeta(`INSERT INTO "profiles" ("id", "email") VALUES ($1, $2)`)

	t.Run("builds a parameterized insert", func(t *testing.T) {
		svc, mock := newTestPostgresService(t)
		mock.ExpectExec(query).
			WithArgs("id-1", "ayu@example.com").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := svc.InsertRecord(context.Background(), testRecord{table: TableProfiles, owner: "id-1", email: "ayu@example.com"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database failure is reported", func(t *testing.T) {
		svc, mock := newTestPostgresService(t)
		mock.ExpectExec(query).
			WithArgs("id-1", "ayu@example.com").
			WillReturnError(errors.New("connection refused"))

		err := svc.InsertRecord(context.Background(), testRecord{table: TableProfiles, owner: "id-1", email: "ayu@example.com"})
		require.Error(t, err)
		assert.Equal(t, KindUnknown, KindOf(err))
		assert.Contains(t, err.Error(), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown table is rejected locally", func(t *testing.T) {
		svc, mock := newTestPostgresService(t)
		err := svc.InsertRecord(context.Background(), testRecord{table: "ledger", owner: "id-1"})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
