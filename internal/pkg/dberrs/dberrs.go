// Package dberrs turns PostgreSQL driver errors into the error kinds of package errs.
package dberrs

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"quickdrop/internal/pkg/errs"

	"github.com/lib/pq"
)

// Unique constraints of the schema and the input field each one protects.
var uniqueFields = map[string]string{
	"uq_users_username":     "username",
	"uq_users_email":        "email",
	"uq_users_phone":        "phone",
	"uq_customers_user_id":  "user_id",
	"uq_couriers_user_id":   "user_id",
	"uq_shipments_order_id": "order_id",
	"uq_payments_shipment":  "shipment_id",
}

// Classify wraps err for the caller:
//   - connection, resource and operator faults become errs.StorageUnavailableError;
//   - unique violations become errs.ValueIsInvalidError naming the duplicated field;
//   - everything else is returned unchanged.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57", "58":
			return errs.NewStorageUnavailableError(operation, err)
		case "40":
			// serialization failure or deadlock; retrying is up to the caller
			return errs.NewStorageUnavailableError(operation, err)
		}
		if pqErr.Code.Name() == "unique_violation" {
			return errs.NewValueIsInvalidErrorWithCause(uniqueField(pqErr.Constraint), errors.New("already exists"))
		}
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return errs.NewStorageUnavailableError(operation, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a duplicate key error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func uniqueField(constraint string) string {
	if field, ok := uniqueFields[constraint]; ok {
		return field
	}
	return constraint
}
