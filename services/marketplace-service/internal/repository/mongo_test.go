package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
)

// newTestDatabase connects to MONGO_TEST_URI and returns a throwaway database.
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("marketplace_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	return db
}

func TestUserMongoRepository(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewUserMongoRepository(ctx, &logger, db)

	created, err := repo.CreateUser(ctx, &model.User{
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "hash-1",
		ConfirmToken: "tok",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Confirmed)

	_, err = repo.CreateUser(ctx, &model.User{Username: "alice2", Email: "a@x.com", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrDuplicateKey)

	_, err = repo.CreateUser(ctx, &model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrDuplicateKey)

	got, err := repo.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "tok", got.ConfirmToken)

	_, err = repo.GetUserByEmail(ctx, "missing@x.com")
	require.ErrorIs(t, err, ErrNotFound)

	confirmed := true
	updated, err := repo.UpdateUser(ctx, "a@x.com", UpdateUserParams{Confirmed: &confirmed})
	require.NoError(t, err)
	assert.True(t, updated.Confirmed)
	assert.Equal(t, "hash-1", updated.PasswordHash)

	hash := "hash-2"
	updated, err = repo.UpdateUser(ctx, "a@x.com", UpdateUserParams{PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "hash-2", updated.PasswordHash)
	assert.True(t, updated.Confirmed)

	_, err = repo.UpdateUser(ctx, "missing@x.com", UpdateUserParams{PasswordHash: &hash})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpdateUser(ctx, "a@x.com", UpdateUserParams{})
	require.ErrorIs(t, err, ErrNoFieldsToUpdate)
}

func TestProductMongoRepository(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewProductMongoRepository(ctx, &logger, db)

	first, err := repo.CreateProduct(ctx, &model.Product{Name: "lamp", Price: 10, Owner: "a@x.com"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.CreateProduct(ctx, &model.Product{Name: "desk", Price: 99.5, Owner: "b@x.com"})
	require.NoError(t, err)

	list, err := repo.ListProducts(ctx, ListProductsParams{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	list, err = repo.ListProducts(ctx, ListProductsParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	got, err := repo.GetProduct(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Owner)

	_, err = repo.GetProduct(ctx, "not-an-object-id")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteProduct(ctx, first.ID))
	require.ErrorIs(t, repo.DeleteProduct(ctx, first.ID), ErrNotFound)
}
