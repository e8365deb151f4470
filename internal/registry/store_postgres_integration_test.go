//go:build integration

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wrldrelief/pkg/sentinel"
	"wrldrelief/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T(), Schema)
	s.store = NewPostgresStore(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "disasters"))
}

func (s *PostgresStoreSuite) newDisaster(id string, createdAt time.Time) *Disaster {
	return &Disaster{
		ID:        id,
		Name:      "Coastal Flooding",
		Location:  "Valparaiso",
		Severity:  7,
		StartedAt: createdAt.Add(-24 * time.Hour),
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func (s *PostgresStoreSuite) TestSaveAndGet() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := s.newDisaster("flood-1", now)
	d.Description = "river overflow after heavy rain"

	s.Require().NoError(s.store.Save(s.ctx, d))

	got, err := s.store.Get(s.ctx, "flood-1")
	s.Require().NoError(err)
	s.Equal("Coastal Flooding", got.Name)
	s.Equal("Valparaiso", got.Location)
	s.Equal(7, got.Severity)
	s.Equal("river overflow after heavy rain", got.Description)
	s.True(got.Active)
	s.True(d.StartedAt.Equal(got.StartedAt))
}

func (s *PostgresStoreSuite) TestSaveDuplicateConflicts() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Save(s.ctx, s.newDisaster("flood-1", now)))

	err := s.store.Save(s.ctx, s.newDisaster("flood-1", now))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "flood-404")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdate() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := s.newDisaster("flood-1", now)
	s.Require().NoError(s.store.Save(s.ctx, d))

	d.Description = "waters receding"
	d.Active = false
	d.UpdatedAt = now.Add(time.Hour)
	s.Require().NoError(s.store.Update(s.ctx, d))

	got, err := s.store.Get(s.ctx, "flood-1")
	s.Require().NoError(err)
	s.Equal("waters receding", got.Description)
	s.False(got.Active)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := s.store.Update(s.ctx, s.newDisaster("flood-404", now))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestList() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"flood-1", "quake-2", "storm-3"} {
		s.Require().NoError(s.store.Save(s.ctx, s.newDisaster(id, base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("flood-1", all[0].ID)
	s.Equal("quake-2", all[1].ID)
	s.Equal("storm-3", all[2].ID)
}
