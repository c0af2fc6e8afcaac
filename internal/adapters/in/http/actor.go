package http

import (
	"slices"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/user"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Identity is resolved by the gateway in front of this service and forwarded in
// these headers. For customers and couriers the id is the role record id, for
// staff it is the user id.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

type actor struct {
	id   kernel.UUID
	role user.Role
}

func (a actor) isStaff() bool {
	return a.role.IsStaff()
}

// requireActor reads the actor headers and checks the role against allowed.
// customerScope is the customer a read is limited to; nil for staff.
func (a actor) customerScope() *kernel.UUID {
	if a.isStaff() {
		return nil
	}
	id := a.id
	return &id
}

func requireActor(c echo.Context, allowed ...user.Role) (actor, error) {
	headers := c.Request().Header
	rawID, rawRole := headers.Get(HeaderActorID), headers.Get(HeaderActorRole)
	if rawID == "" || rawRole == "" {
		return actor{}, errUnauthenticated
	}

	var id openapi_types.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", HeaderActorID, rawID, &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Required: true}); err != nil {
		return actor{}, errUnauthenticated
	}
	actorID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return actor{}, errUnauthenticated
	}
	role, err := user.ParseRole(rawRole)
	if err != nil {
		return actor{}, errUnauthenticated
	}

	if !slices.Contains(allowed, role) {
		return actor{}, errForbidden
	}
	return actor{id: actorID, role: role}, nil
}

var staff = []user.Role{user.RoleDispatcher, user.RoleAdmin}

func staffOr(roles ...user.Role) []user.Role {
	return append(slices.Clone(staff), roles...)
}
