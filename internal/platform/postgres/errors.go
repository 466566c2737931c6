package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"docverify/pkg/platform/sentinel"
)

// SQLSTATE classes that mean the server, not the query, is at fault.
const (
	classConnectionException   pq.ErrorClass = "08"
	classInsufficientResources pq.ErrorClass = "53"
	classOperatorIntervention  pq.ErrorClass = "57"
)

// Classify marks connection-level failures with sentinel.ErrUnavailable.
// Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, sentinel.ErrUnavailable) || !unavailable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
}

func unavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case classConnectionException, classInsufficientResources, classOperatorIntervention:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
