package inventory

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/om-jewellers/stockledger/internal/platform/httpx"
)

func TestSerializationFailureBecomesConflict(t *testing.T) {
	lost := fmt.Errorf("platform/db: commit tx: %w", &pgconn.PgError{Code: "40001"})
	err := conflictOnSerialization(lost)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Equal(t, http.StatusConflict, httpx.StatusOf(err))

	require.ErrorIs(t, conflictOnSerialization(ErrNegativeStock), ErrNegativeStock)
	other := errors.New("connection reset")
	require.Equal(t, other, conflictOnSerialization(other))
	require.NoError(t, conflictOnSerialization(nil))
}
