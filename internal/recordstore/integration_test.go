//go:build integration

package recordstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/platform/postgres"
	"kycdesk/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)

	runStoreContract(t, func(t *testing.T) Store {
		require.NoError(t, rc.Flush(context.Background()))
		return NewRedis(rc.Client.Client, rc.Prefix)
	})

	t.Run("submissions are batch loaded in index order", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, rc.Flush(ctx))
		records := NewRecords(NewRedis(rc.Client.Client, rc.Prefix), WithCache(16, 0))

		for _, id := range []string{"verification-b", "verification-a"} {
			require.True(t, records.SaveSubmission(ctx, &models.Submission{ID: id, Status: models.StatusPending}))
			require.True(t, records.AppendSubmissionID(ctx, id))
		}
		require.True(t, records.AppendSubmissionID(ctx, "verification-orphan"))

		subs := records.Submissions(ctx)
		require.Len(t, subs, 2)
		assert.Equal(t, "verification-b", subs[0].ID)
		assert.Equal(t, "verification-a", subs[1].ID)
	})
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	require.NoError(t, postgres.UpMigrations(ctx, pc.DSN))
	pool, err := postgres.Connect(ctx, pc.DSN, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runStoreContract(t, func(t *testing.T) Store {
		_, err := pool.Exec(ctx, "TRUNCATE kv_records, submission_ids RESTART IDENTITY")
		require.NoError(t, err)
		return NewPostgres(pool)
	})
}
