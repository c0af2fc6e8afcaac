package courier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

const (
	maxNameLength  = 120
	maxPlateLength = 32
	maxRating      = 5.0
)

var (
	ErrNameIsRequired          = errs.NewValueIsRequiredError("name")
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier or Restore")
)

// Courier is a delivery agent together with its availability. Status is changed by
// dispatchers, presence (online, last seen, location) by heartbeats; the repository
// persists the two groups of columns independently.
type Courier struct {
	id              kernel.UUID
	userID          kernel.UUID
	name            string
	vehiclePlate    string
	status          Status
	online          bool
	verified        bool
	lastSeen        *time.Time
	location        *kernel.GeoPoint
	locationAddress string
	rating          float64
	ratedDeliveries int
	createdAt       time.Time

	guard guard.ConstructorGuard
}

// NewCourier registers an inactive, offline, unverified courier.
func NewCourier(id, userID kernel.UUID, name, vehiclePlate string, createdAt time.Time) (*Courier, error) {
	c := &Courier{
		status:    Inactive,
		createdAt: createdAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setUserID(userID),
		c.setName(name),
		c.setVehiclePlate(vehiclePlate),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// State is the persisted form of a courier.
type State struct {
	ID              kernel.UUID
	UserID          kernel.UUID
	Name            string
	VehiclePlate    string
	Status          Status
	Online          bool
	Verified        bool
	LastSeen        *time.Time
	Location        *kernel.GeoPoint
	LocationAddress string
	Rating          float64
	RatedDeliveries int
	CreatedAt       time.Time
}

// Restore rebuilds a courier from storage.
func Restore(st State) (*Courier, error) {
	c := &Courier{
		online:          st.Online,
		verified:        st.Verified,
		lastSeen:        st.LastSeen,
		location:        st.Location,
		locationAddress: st.LocationAddress,
		createdAt:       st.CreatedAt,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(st.ID),
		c.setUserID(st.UserID),
		c.setName(st.Name),
		c.setVehiclePlate(st.VehiclePlate),
		st.Status.Validate(),
		validateRatingStats(st.Rating, st.RatedDeliveries),
	); err != nil {
		return nil, err
	}
	c.status = st.Status
	c.rating = st.Rating
	c.ratedDeliveries = st.RatedDeliveries

	return c, nil
}

func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

func (c *Courier) ID() kernel.UUID            { return c.id }
func (c *Courier) UserID() kernel.UUID        { return c.userID }
func (c *Courier) Name() string               { return c.name }
func (c *Courier) VehiclePlate() string       { return c.vehiclePlate }
func (c *Courier) Status() Status             { return c.status }
func (c *Courier) IsOnline() bool             { return c.online }
func (c *Courier) IsVerified() bool           { return c.verified }
func (c *Courier) LastSeen() *time.Time       { return c.lastSeen }
func (c *Courier) Location() *kernel.GeoPoint { return c.location }
func (c *Courier) LocationAddress() string    { return c.locationAddress }
func (c *Courier) Rating() float64            { return c.rating }
func (c *Courier) RatedDeliveries() int       { return c.ratedDeliveries }
func (c *Courier) CreatedAt() time.Time       { return c.createdAt }

// ChangeStatus sets the dispatcher controlled status.
func (c *Courier) ChangeStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	c.status = status
	return nil
}

// ChangeOwnShift is the status change a courier may make on its own: going on or
// off shift. Banned and inactive couriers stay where staff put them.
func (c *Courier) ChangeOwnShift(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if !status.isShift() {
		return errs.NewValueIsInvalidErrorWithCause("courier status",
			fmt.Errorf("a courier can only switch to %s or %s", Active, OffShift))
	}
	if !c.status.isShift() {
		return errs.NewInvalidTransitionError("courier", c.id.String(), "change_shift", string(c.status),
			[]string{string(Active), string(OffShift)})
	}
	c.status = status
	return nil
}

// Heartbeat marks the courier online at point. It is idempotent and last write wins.
func (c *Courier) Heartbeat(point kernel.GeoPoint, address string, now time.Time) error {
	if err := point.Validate(); err != nil {
		return err
	}
	address = strings.TrimSpace(address)
	if len(address) > 255 {
		return errs.NewValueIsOutOfRangeError("address length", len(address), 0, 255)
	}

	c.online = true
	c.lastSeen = &now
	c.location = &point
	c.locationAddress = address
	return nil
}

// GoOffline clears the online flag and leaves status alone.
func (c *Courier) GoOffline() {
	c.online = false
}

// Verify marks the courier's documents as checked.
func (c *Courier) Verify() {
	c.verified = true
}

// IsPresenceStale reports whether the last heartbeat is older than ttl at now.
func (c *Courier) IsPresenceStale(now time.Time, ttl time.Duration) bool {
	return c.lastSeen == nil || now.Sub(*c.lastSeen) > ttl
}

// CheckAvailability returns a CourierUnavailableError when the courier cannot take one
// more shipment. activeShipments is the courier's current non-terminal load. Manual
// assignment only requires an active status; automatic assignment also requires the
// courier to be online and verified.
func (c *Courier) CheckAvailability(activeShipments, maxActive int, requirePresence bool) error {
	unavailable := func(reason string) error {
		return errs.NewCourierUnavailableError(c.id.String(), reason, string(c.status))
	}

	switch {
	case c.status != Active:
		return unavailable(errs.ReasonNotActive)
	case requirePresence && !c.online:
		return unavailable(errs.ReasonOffline)
	case requirePresence && !c.verified:
		return unavailable(errs.ReasonNotVerified)
	case maxActive > 0 && activeShipments >= maxActive:
		return errs.NewCourierUnavailableErrorWithCause(c.id.String(), errs.ReasonAtCapacity, string(c.status),
			fmt.Errorf("%d of %d active shipments", activeShipments, maxActive))
	}
	return nil
}

// RecordRating folds one customer rating into the running average.
func (c *Courier) RecordRating(rating int) error {
	if rating < 1 || rating > int(maxRating) {
		return errs.NewValueIsOutOfRangeError("rating", rating, 1, int(maxRating))
	}
	total := c.rating*float64(c.ratedDeliveries) + float64(rating)
	c.ratedDeliveries++
	c.rating = total / float64(c.ratedDeliveries)
	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setUserID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.userID = id
	return nil
}

func (c *Courier) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	if len(name) > maxNameLength {
		return errs.NewValueIsOutOfRangeError("name length", len(name), 1, maxNameLength)
	}
	c.name = name
	return nil
}

func (c *Courier) setVehiclePlate(plate string) error {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if len(plate) > maxPlateLength {
		return errs.NewValueIsOutOfRangeError("vehicle plate length", len(plate), 0, maxPlateLength)
	}
	c.vehiclePlate = plate
	return nil
}

func validateRatingStats(rating float64, count int) error {
	if count < 0 {
		return errs.NewValueIsOutOfRangeError("rated deliveries", count, 0, "unbounded")
	}
	if rating < 0 || rating > maxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, 0, maxRating)
	}
	return nil
}

// Candidate is a courier together with its current number of non-terminal shipments.
type Candidate struct {
	Courier         *Courier
	ActiveShipments int
}
