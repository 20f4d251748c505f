package repositories

import (
	"testing"

	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testAccountRepo(t *testing.T) *PostgresAccountRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}))
	return NewPostgresAccountRepository(db)
}

func TestAccountCreateAndGet(t *testing.T) {
	repo := testAccountRepo(t)

	account := &models.Account{Email: "alice@example.com", Password: "hash"}
	require.NoError(t, repo.CreateAccount(account))
	require.NotZero(t, account.ID)

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(account.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := repo.GetByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := repo.GetByEmail("nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAccountGetByFirebaseUID(t *testing.T) {
	repo := testAccountRepo(t)

	uid := "fb-123"
	require.NoError(t, repo.CreateAccount(&models.Account{Email: "bob@example.com", FirebaseUID: &uid}))

	got, err := repo.GetByFirebaseUID("fb-123")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)

	_, err = repo.GetByFirebaseUID("fb-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountCreateWithoutFirebaseUID(t *testing.T) {
	repo := testAccountRepo(t)

	// Local email/password accounts carry no Firebase UID. Several of them
	// must coexist without tripping the unique index on firebase_uid.
	require.NoError(t, repo.CreateAccount(&models.Account{Email: "eve@example.com", Password: "hash"}))
	require.NoError(t, repo.CreateAccount(&models.Account{Email: "frank@example.com", Password: "hash"}))

	uid := "fb-dup"
	require.NoError(t, repo.CreateAccount(&models.Account{Email: "grace@example.com", FirebaseUID: &uid}))
	err := repo.CreateAccount(&models.Account{Email: "heidi@example.com", FirebaseUID: &uid})
	assert.Error(t, err)
}

func TestAccountUpdate(t *testing.T) {
	repo := testAccountRepo(t)

	account := &models.Account{Email: "carol@example.com"}
	require.NoError(t, repo.CreateAccount(account))

	uid := "fb-456"
	account.FirebaseUID = &uid
	require.NoError(t, repo.UpdateAccount(account))

	got, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FirebaseUID)
	assert.Equal(t, "fb-456", *got.FirebaseUID)
}

func TestAccountDelete(t *testing.T) {
	repo := testAccountRepo(t)

	account := &models.Account{Email: "dave@example.com"}
	require.NoError(t, repo.CreateAccount(account))
	require.NoError(t, repo.DeleteAccount(account.ID))

	_, err := repo.GetByID(account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
