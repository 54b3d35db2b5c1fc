package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk/internal/handlers"
	"github.com/clinicdesk/clinicdesk/internal/logger"
	"github.com/clinicdesk/clinicdesk/internal/repository/postgres"
	"github.com/clinicdesk/clinicdesk/internal/service/auth"
	"github.com/clinicdesk/clinicdesk/internal/service/auth/tokencodec"
	"github.com/clinicdesk/clinicdesk/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	Storage     *postgres.Storage
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction is rolled back when the test stops
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		codec, err := tokencodec.New(tokencodec.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "codec should be created without errors")

		as, err := auth.NewService(auth.Config{}, codec, storage)
		require.NoError(t, err, "auth service starting error")

		// Complete all together as router and run http server in transaction
		router := handlers.NewRouter(as, storage.User(), logger.NewNoOpLogger())
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			Storage:     storage,
		})
	})
}
