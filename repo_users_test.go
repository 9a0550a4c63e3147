package authkit_test

import (
	"context"
	"testing"

	authkit "github.com/thinhha/go-authkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repos authkit.RepositoryManager, username, email string) *authkit.User {
	t.Helper()

	user := &authkit.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
	}
	user.EnsureDefaults()
	authkit.NewStamper().StampCreate(user, authkit.SystemActor)

	created, err := repos.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return created
}

func TestUsersCreateAndGet(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	created := seedUser(t, repos, "alice", "alice@example.com")

	byID, err := repos.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byUsername, err := repos.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	byEmail, err := repos.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUsersGetByIdentifier(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	created := seedUser(t, repos, "alice", "alice@example.com")

	t.Run("email shaped identifier", func(t *testing.T) {
		found, err := repos.Users().GetByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("username identifier", func(t *testing.T) {
		found, err := repos.Users().GetByIdentifier(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := repos.Users().GetByIdentifier(ctx, "nobody")
		assert.True(t, authkit.IsNotFound(err))
	})

	t.Run("blank identifier", func(t *testing.T) {
		_, err := repos.Users().GetByIdentifier(ctx, "   ")
		assert.True(t, authkit.IsNotFound(err))
	})
}

func TestUsersUniqueViolationMapsToConflict(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	seedUser(t, repos, "alice", "alice@example.com")

	dup := &authkit.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	dup.EnsureDefaults()
	authkit.NewStamper().StampCreate(dup, authkit.SystemActor)

	_, err := repos.Users().Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, authkit.IsConflict(err))
	assert.ErrorIs(t, err, authkit.ErrUsernameTaken)
}

func TestUsersStaleVersionConflict(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	stamper := authkit.NewStamper()

	created := seedUser(t, repos, "alice", "alice@example.com")

	first, err := repos.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := repos.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)

	first.FirstName = "A"
	stamper.StampUpdate(first, authkit.SystemActor)
	_, err = repos.Users().Update(ctx, first)
	require.NoError(t, err)

	// second still holds version 1; its write must lose
	second.FirstName = "B"
	stamper.StampUpdate(second, authkit.SystemActor)
	_, err = repos.Users().Update(ctx, second)
	require.Error(t, err)
	assert.True(t, authkit.IsConflict(err))
	assert.ErrorIs(t, err, authkit.ErrStaleVersion)

	// the winner's value stands
	current, err := repos.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", current.FirstName)
	assert.Equal(t, int64(2), current.Version)
}

func TestUsersUpdateVanishedRecordIsNotFound(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	ghost := &authkit.User{Username: "ghost", Email: "ghost@example.com", PasswordHash: "x"}
	ghost.EnsureDefaults()
	authkit.NewStamper().StampCreate(ghost, authkit.SystemActor)
	ghost.Version = 2 // pretend a prior stamped update

	_, err := repos.Users().Update(ctx, ghost)
	assert.True(t, authkit.IsNotFound(err))
}

func TestUsersSoftDeleteExcludedFromDefaultQueries(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	stamper := authkit.NewStamper()

	created := seedUser(t, repos, "alice", "alice@example.com")

	stamper.StampDelete(created, authkit.SystemActor)
	_, err := repos.Users().Update(ctx, created)
	require.NoError(t, err)

	_, err = repos.Users().GetByID(ctx, created.ID)
	assert.True(t, authkit.IsNotFound(err))
	_, err = repos.Users().GetByUsername(ctx, "alice")
	assert.True(t, authkit.IsNotFound(err))

	// but still reachable for restore, and still occupying uniqueness
	any, err := repos.Users().GetByIDAny(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, any.Deleted)

	taken, err := repos.Users().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUsersReplaceRoles(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	created := seedUser(t, repos, "alice", "alice@example.com")

	userRole, err := repos.Roles().GetOrCreate(ctx, "ROLE_USER", "")
	require.NoError(t, err)
	adminRole, err := repos.Roles().GetOrCreate(ctx, "ROLE_ADMIN", "")
	require.NoError(t, err)

	require.NoError(t, repos.Users().ReplaceRoles(ctx, created, []*authkit.Role{userRole}))

	found, err := repos.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, found.RoleNames())

	require.NoError(t, repos.Users().ReplaceRoles(ctx, created, []*authkit.Role{adminRole}))

	found, err = repos.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_ADMIN"}, found.RoleNames())
}

func TestRolesGetOrCreateIdempotent(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	first, err := repos.Roles().GetOrCreate(ctx, "ROLE_USER", "default")
	require.NoError(t, err)
	second, err := repos.Roles().GetOrCreate(ctx, "ROLE_USER", "ignored on re-fetch")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	list, err := repos.Roles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRolesGetByNameNotFound(t *testing.T) {
	repos := setupRepos(t)

	_, err := repos.Roles().GetByName(context.Background(), "ROLE_MISSING")
	assert.True(t, authkit.IsNotFound(err))
	assert.ErrorIs(t, err, authkit.ErrRoleNotFound)
}

func TestRepositoryManagerValidate(t *testing.T) {
	repos := setupRepos(t)
	assert.NoError(t, repos.Validate())
	assert.NotPanics(t, repos.MustValidate)
}
