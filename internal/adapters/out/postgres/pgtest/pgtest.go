// Package pgtest starts a disposable PostgreSQL for integration tests and seeds it
// through the real repositories.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"quickdrop/internal/adapters/out/postgres"
	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/customer"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/model/user"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var tables = []string{"users", "customers", "couriers", "orders", "shipments", "payments", "outbox_events"}

type Database struct {
	DB        *gorm.DB
	container *tcpostgres.PostgresContainer
}

// Start runs a postgres container, connects through postgres.Open and migrates the schema.
func Start(ctx context.Context) (*Database, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("quickdrop"),
		tcpostgres.WithUsername("quickdrop"),
		tcpostgres.WithPassword("quickdrop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err = postgres.Migrate(db); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Database{DB: db, container: container}, nil
}

func (d *Database) Truncate() error {
	for _, t := range tables {
		if err := d.DB.Exec("TRUNCATE TABLE " + t).Error; err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) Terminate(ctx context.Context) error {
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return d.container.Terminate(ctx)
}

// Seeder writes fixtures in committed transactions of their own.
type Seeder struct {
	factory *postgres.GormUnitOfWorkFactory
	seq     int
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{factory: postgres.NewGormUnitOfWorkFactory(db)}
}

func (s *Seeder) next() int {
	s.seq++
	return s.seq
}

func (s *Seeder) Address(line string, lat, lng float64) kernel.Address {
	point, err := kernel.NewGeoPoint(lat, lng)
	if err != nil {
		panic(err)
	}
	addr, err := kernel.NewAddress(line, point)
	if err != nil {
		panic(err)
	}
	return addr
}

func (s *Seeder) Customer(ctx context.Context) (*customer.Customer, error) {
	n := s.next()
	u, err := user.NewUser(kernel.NewUUID(),
		fmt.Sprintf("customer_%d", n), fmt.Sprintf("customer%d@example.com", n), fmt.Sprintf("+23320000%04d", n),
		user.RoleCustomer, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	c, err := customer.NewCustomer(kernel.NewUUID(), u.ID(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(uow *postgres.GormUnitOfWork) error {
		if err := uow.UserRepository().Add(ctx, u); err != nil {
			return err
		}
		return uow.CustomerRepository().Add(ctx, c)
	})
	return c, err
}

// CourierOptions sets the availability of a seeded courier.
type CourierOptions struct {
	Name      string
	Status    courier.Status
	Online    bool
	Verified  bool
	Rating    float64
	Rated     int
	LastSeen  *time.Time
	CreatedAt time.Time
}

// AvailableCourier returns options for an active, online, verified courier.
func AvailableCourier(name string, rating float64) CourierOptions {
	return CourierOptions{Name: name, Status: courier.Active, Online: true, Verified: true, Rating: rating, Rated: ratedFor(rating)}
}

func ratedFor(rating float64) int {
	if rating > 0 {
		return 1
	}
	return 0
}

func (s *Seeder) Courier(ctx context.Context, opts CourierOptions) (*courier.Courier, error) {
	n := s.next()
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("Courier %d", n)
	}
	if opts.Status == "" {
		opts.Status = courier.Inactive
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}
	lastSeen := opts.LastSeen
	if lastSeen == nil && opts.Online {
		t := time.Now().UTC()
		lastSeen = &t
	}

	u, err := user.NewUser(kernel.NewUUID(),
		fmt.Sprintf("courier_%d", n), fmt.Sprintf("courier%d@example.com", n), fmt.Sprintf("+23330000%04d", n),
		user.RoleCourier, opts.CreatedAt)
	if err != nil {
		return nil, err
	}
	c, err := courier.Restore(courier.State{
		ID:              kernel.NewUUID(),
		UserID:          u.ID(),
		Name:            opts.Name,
		VehiclePlate:    fmt.Sprintf("GR-%04d", n),
		Status:          opts.Status,
		Online:          opts.Online,
		Verified:        opts.Verified,
		LastSeen:        lastSeen,
		Rating:          opts.Rating,
		RatedDeliveries: opts.Rated,
		CreatedAt:       opts.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(uow *postgres.GormUnitOfWork) error {
		if err := uow.UserRepository().Add(ctx, u); err != nil {
			return err
		}
		return uow.CourierRepository().Add(ctx, c)
	})
	return c, err
}

// Delivery is an order with its shipment and payment.
type Delivery struct {
	Order    *order.Order
	Shipment *shipment.Shipment
	Payment  *payment.Payment
}

// Order places an order for customerID created at createdAt.
func (s *Seeder) Order(ctx context.Context, customerID kernel.UUID, createdAt time.Time) (Delivery, error) {
	pickup := s.Address("Oxford Street 1, Accra", 5.5560, -0.1969)
	dropoff := s.Address("Ring Road 40, Accra", 5.5700, -0.2100)
	total, err := kernel.NewMoney(2500)
	if err != nil {
		return Delivery{}, err
	}

	o, err := order.NewOrder(kernel.NewUUID(), customerID, pickup, dropoff, total, createdAt)
	if err != nil {
		return Delivery{}, err
	}
	sh, err := shipment.NewShipment(kernel.NewUUID(), o.ID(), pickup, dropoff, createdAt)
	if err != nil {
		return Delivery{}, err
	}
	p, err := payment.NewPayment(kernel.NewUUID(), sh.ID(), payment.Cash, createdAt)
	if err != nil {
		return Delivery{}, err
	}

	err = s.inTx(ctx, func(uow *postgres.GormUnitOfWork) error {
		if err := uow.OrderRepository().Add(ctx, o); err != nil {
			return err
		}
		if err := uow.ShipmentRepository().Add(ctx, sh); err != nil {
			return err
		}
		return uow.PaymentRepository().Add(ctx, p)
	})
	return Delivery{Order: o, Shipment: sh, Payment: p}, err
}

// Advance applies steps to a seeded delivery in one committed transaction and
// reloads the shipment so its version matches storage.
func (s *Seeder) Advance(ctx context.Context, d *Delivery, steps func(*shipment.Shipment, *order.Order, *payment.Payment) error) error {
	return s.inTx(ctx, func(uow *postgres.GormUnitOfWork) error {
		sh, err := uow.ShipmentRepository().GetForUpdate(ctx, d.Shipment.ID())
		if err != nil {
			return err
		}
		o, err := uow.OrderRepository().GetForUpdate(ctx, d.Order.ID())
		if err != nil {
			return err
		}
		p, err := uow.PaymentRepository().GetForUpdate(ctx, d.Payment.ID())
		if err != nil {
			return err
		}
		if err = steps(sh, o, p); err != nil {
			return err
		}
		if err = uow.ShipmentRepository().Update(ctx, sh); err != nil {
			return err
		}
		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}
		if err = uow.PaymentRepository().Update(ctx, p); err != nil {
			return err
		}
		d.Order, d.Payment = o, p
		return nil
	}, func(uow *postgres.GormUnitOfWork) error {
		sh, err := uow.ShipmentRepository().Get(ctx, d.Shipment.ID())
		d.Shipment = sh
		return err
	})
}

func (s *Seeder) inTx(ctx context.Context, fn func(*postgres.GormUnitOfWork) error, after ...func(*postgres.GormUnitOfWork) error) error {
	uow := s.factory.Create().(*postgres.GormUnitOfWork)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	if err := fn(uow); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}
	for _, f := range after {
		if err := f(uow); err != nil {
			return err
		}
	}
	return nil
}
