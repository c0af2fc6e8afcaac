package queries

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/guard"
)

var ErrCourierTaskQueryIsNotConstructed = errors.New(
	"courier task queries must be created via their New... constructor",
)

const (
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 100
)

// GetCourierCurrentTaskQuery returns the courier's oldest non-terminal shipment.
type GetCourierCurrentTaskQuery struct {
	courierID kernel.UUID
	guard     guard.ConstructorGuard
}

// NewGetCourierCurrentTaskQuery reads the courier's oldest active shipment.
func NewGetCourierCurrentTaskQuery(courierID kernel.UUID) (GetCourierCurrentTaskQuery, error) {
	if err := courierID.Validate(); err != nil {
		return GetCourierCurrentTaskQuery{}, err
	}
	return GetCourierCurrentTaskQuery{courierID: courierID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierCurrentTaskQuery) Validate() error {
	return q.guard.Validate(ErrCourierTaskQueryIsNotConstructed)
}

func (q GetCourierCurrentTaskQuery) CourierID() kernel.UUID { return q.courierID }

// GetUpcomingTasksQuery lists shipments assigned to the courier but not yet picked up,
// oldest assignment first. A limit outside 1..100 falls back to 10.
type GetUpcomingTasksQuery struct {
	courierID kernel.UUID
	limit     int
	guard     guard.ConstructorGuard
}

// NewGetUpcomingTasksQuery falls back to 10 for a limit outside 1..100.
func NewGetUpcomingTasksQuery(courierID kernel.UUID, limit int) (GetUpcomingTasksQuery, error) {
	if err := courierID.Validate(); err != nil {
		return GetUpcomingTasksQuery{}, err
	}
	if limit < 1 || limit > maxUpcomingLimit {
		limit = defaultUpcomingLimit
	}
	return GetUpcomingTasksQuery{courierID: courierID, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetUpcomingTasksQuery) Validate() error {
	return q.guard.Validate(ErrCourierTaskQueryIsNotConstructed)
}

func (q GetUpcomingTasksQuery) CourierID() kernel.UUID { return q.courierID }
func (q GetUpcomingTasksQuery) Limit() int             { return q.limit }

// GetTaskHistoryQuery pages through the courier's delivered and failed shipments,
// most recently finished first.
type GetTaskHistoryQuery struct {
	courierID kernel.UUID
	page      int
	perPage   int
	guard     guard.ConstructorGuard
}

// NewGetTaskHistoryQuery normalizes paging.
func NewGetTaskHistoryQuery(courierID kernel.UUID, page, perPage int) (GetTaskHistoryQuery, error) {
	page, perPage, err := normalizePaging(page, perPage)
	if err = errors.Join(courierID.Validate(), err); err != nil {
		return GetTaskHistoryQuery{}, err
	}
	return GetTaskHistoryQuery{
		courierID: courierID,
		page:      page,
		perPage:   perPage,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q GetTaskHistoryQuery) Validate() error {
	return q.guard.Validate(ErrCourierTaskQueryIsNotConstructed)
}

func (q GetTaskHistoryQuery) CourierID() kernel.UUID { return q.courierID }
func (q GetTaskHistoryQuery) Page() int              { return q.page }
func (q GetTaskHistoryQuery) PerPage() int           { return q.perPage }
