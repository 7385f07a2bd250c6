//go:build integration

package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aquita/internal/records/models"
	"aquita/internal/records/store/stream"
	"aquita/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *stream.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = stream.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "streams"))
}

func newTestSubmission(owner string) models.StreamSubmission {
	return models.StreamSubmission{
		ID:              uuid.NewString(),
		Link:            "https://twitch.tv/canal",
		City:            "Caracas",
		OwnerNationalID: owner,
		Status:          models.StreamStatusPending,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndList() {
	ctx := context.Background()
	owned := newTestSubmission("V-12345678")

	s.Require().NoError(s.store.Create(ctx, owned))

	got, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(owned.ID, got[0].ID)
	s.Equal(owned.Link, got[0].Link)
	s.Equal(owned.City, got[0].City)
	s.Equal("V-12345678", got[0].OwnerNationalID)
	s.Equal(models.StreamStatusPending, got[0].Status)
}

// TestUnownedSubmissionStoresNull covers the simple-variant flow where no
// registered cédula backs the submission.
func (s *PostgresStoreSuite) TestUnownedSubmissionStoresNull() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, newTestSubmission("")))

	var owner any
	err := s.postgres.DB.QueryRowContext(ctx,
		"SELECT cedula_usuario FROM streams").Scan(&owner)
	s.Require().NoError(err)
	s.Nil(owner, "empty owner persists as NULL, not empty string")

	got, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Empty(got[0].OwnerNationalID)
}

func (s *PostgresStoreSuite) TestListOrdersByCreation() {
	ctx := context.Background()

	older := newTestSubmission("")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestSubmission("V-12345678")

	s.Require().NoError(s.store.Create(ctx, newer))
	s.Require().NoError(s.store.Create(ctx, older))

	got, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(older.ID, got[0].ID, "oldest submission comes first")
	s.Equal(newer.ID, got[1].ID)
}
