package cmd

import (
	"log/slog"

	httpin "quickdrop/internal/adapters/in/http"
	"quickdrop/internal/adapters/out/kafka"
	"quickdrop/internal/adapters/out/postgres"
	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/application/usecases/queries"
	"quickdrop/internal/core/domain/services"
	"quickdrop/internal/jobs"
	"quickdrop/internal/metrics"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	metrics    *metrics.Metrics
	logger     *slog.Logger

	lifecycle  services.ShipmentLifecycle
	dispatcher services.CourierDispatcher
	publisher  *kafka.EventPublisher
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, m *metrics.Metrics, logger *slog.Logger) *CompositionRoot {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB).WithEventObserver(m.ObserveEvents),
		metrics:    m,
		logger:     logger,
		lifecycle:  services.NewShipmentLifecycle(cfg.MaxActiveShipmentsPerCourier),
		dispatcher: services.NewCourierDispatcher(cfg.MaxActiveShipmentsPerCourier),
	}
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		c.publisher = kafka.NewEventPublisher(brokers, cfg.KafkaShipmentEventsTopic)
	}
	return c
}

// Close releases the broker connection. The database is owned by the caller.
func (c *CompositionRoot) Close() error {
	if c.publisher == nil {
		return nil
	}
	return c.publisher.Close()
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) courierUoW() commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.uow())
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateRateDeliveryCommandHandler() commands.RateDeliveryCommandHandler {
	return commands.NewRateDeliveryCommandHandler(c.uow())
}

func (c *CompositionRoot) CreateAssignShipmentCommandHandler() commands.AssignShipmentCommandHandler {
	return commands.NewAssignShipmentCommandHandler(c.uow(), c.lifecycle, c.dispatcher)
}

func (c *CompositionRoot) CreateAutoAssignNextCommandHandler() commands.AutoAssignNextCommandHandler {
	return commands.NewAutoAssignNextCommandHandler(c.uow(), c.lifecycle, c.dispatcher)
}

func (c *CompositionRoot) CreateShipmentTransitionCommandHandler() commands.ShipmentTransitionCommandHandler {
	return commands.NewShipmentTransitionCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateFailShipmentCommandHandler() commands.FailShipmentCommandHandler {
	return commands.NewFailShipmentCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateChangePaymentStatusCommandHandler() commands.ChangePaymentStatusCommandHandler {
	return commands.NewChangePaymentStatusCommandHandler(c.uow())
}

func (c *CompositionRoot) CreateUpdateCourierStatusCommandHandler() commands.UpdateCourierStatusCommandHandler {
	return commands.NewUpdateCourierStatusCommandHandler(c.courierUoW())
}

func (c *CompositionRoot) CreateCourierPresenceCommandHandler() commands.CourierPresenceCommandHandler {
	return commands.NewCourierPresenceCommandHandler(c.courierUoW())
}

func (c *CompositionRoot) CreateHeartbeatCommandHandler() commands.HeartbeatCommandHandler {
	return commands.NewHeartbeatCommandHandler(c.courierUoW())
}

func (c *CompositionRoot) CreateSweepStalePresenceCommandHandler() commands.SweepStalePresenceCommandHandler {
	return commands.NewSweepStalePresenceCommandHandler(c.courierUoW())
}

func (c *CompositionRoot) CreateRegisterAccountCommandHandler() commands.RegisterAccountCommandHandler {
	var f commands.RegistrationUoWFactory = FuncRegistrationUoWFactory(func() commands.RegistrationUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterAccountCommandHandler(f)
}

// CreatePublishOutboxEventsCommandHandler reports false when no broker is configured.
func (c *CompositionRoot) CreatePublishOutboxEventsCommandHandler() (commands.PublishOutboxEventsCommandHandler, bool) {
	if c.publisher == nil {
		return commands.PublishOutboxEventsCommandHandler{}, false
	}
	var f commands.OutboxUoWFactory = FuncOutboxUoWFactory(func() commands.OutboxUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPublishOutboxEventsCommandHandler(f, c.publisher), true
}

func (c *CompositionRoot) CreateGetShipmentTrackingQueryHandler() queries.GetShipmentTrackingQueryHandler {
	return queries.NewGetShipmentTrackingQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListShipmentsQueryHandler() queries.ListShipmentsQueryHandler {
	return queries.NewListShipmentsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateCourierTaskQueryHandler() queries.CourierTaskQueryHandler {
	return queries.NewCourierTaskQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateCourierOverviewQueryHandler() queries.CourierOverviewQueryHandler {
	return queries.NewCourierOverviewQueryHandler(c.gormDB, c.cfg.MaxActiveShipmentsPerCourier)
}

func (c *CompositionRoot) CreateOrderQueryHandler() queries.OrderQueryHandler {
	return queries.NewOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreatePaymentQueryHandler() queries.PaymentQueryHandler {
	return queries.NewPaymentQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	tasks := c.CreateCourierTaskQueryHandler()
	overview := c.CreateCourierOverviewQueryHandler()
	orders := c.CreateOrderQueryHandler()
	payments := c.CreatePaymentQueryHandler()
	transitions := c.CreateShipmentTransitionCommandHandler()

	return httpin.NewServer(httpin.Handlers{
		CreateOrder:         c.CreateCreateOrderCommandHandler(),
		CancelOrder:         c.CreateCancelOrderCommandHandler(),
		RateDelivery:        c.CreateRateDeliveryCommandHandler(),
		AssignShipment:      c.CreateAssignShipmentCommandHandler(),
		AutoAssignNext:      c.CreateAutoAssignNextCommandHandler(),
		TransitionShipment:  transitions,
		FailShipment:        c.CreateFailShipmentCommandHandler(),
		ChangePayment:       c.CreateChangePaymentStatusCommandHandler(),
		UpdateCourierStatus: c.CreateUpdateCourierStatusCommandHandler(),
		CourierPresence:     c.CreateCourierPresenceCommandHandler(),
		Heartbeat:           c.CreateHeartbeatCommandHandler(),
		RegisterAccount:     c.CreateRegisterAccountCommandHandler(),

		ShipmentTracking:  c.CreateGetShipmentTrackingQueryHandler(),
		ListShipments:     c.CreateListShipmentsQueryHandler(),
		CurrentTask:       httpin.HandlerFunc[queries.GetCourierCurrentTaskQuery, *queries.ShipmentView](tasks.CurrentTask),
		UpcomingTasks:     httpin.HandlerFunc[queries.GetUpcomingTasksQuery, []queries.ShipmentView](tasks.UpcomingTasks),
		TaskHistory:       httpin.HandlerFunc[queries.GetTaskHistoryQuery, queries.Page[queries.ShipmentView]](tasks.TaskHistory),
		CourierStatistics: httpin.HandlerFunc[queries.GetCourierStatisticsQuery, queries.CourierStatistics](overview.Statistics),
		AvailableCouriers: httpin.HandlerFunc[queries.ListAvailableCouriersQuery, []queries.AvailableCourier](overview.AvailableCouriers),
		GetOrder:          httpin.HandlerFunc[queries.GetOrderQuery, queries.OrderView](orders.Get),
		CustomerOrders:    httpin.HandlerFunc[queries.ListCustomerOrdersQuery, queries.Page[queries.OrderView]](orders.ListForCustomer),
		GetPayment:        httpin.HandlerFunc[queries.GetPaymentQuery, queries.PaymentView](payments.Get),
		ListPayments:      httpin.HandlerFunc[queries.ListPaymentsQuery, queries.Page[queries.PaymentView]](payments.List),
	}, c.metrics, c.logger)
}

// CreateJobs builds the background jobs enabled by the configuration.
func (c *CompositionRoot) CreateJobs() ([]jobs.Job, error) {
	var list []jobs.Job
	if c.cfg.AutoAssignEnabled {
		list = append(list, jobs.NewAutoAssignmentJob(
			c.CreateAutoAssignNextCommandHandler(), c.cfg.AutoAssignSchedule, c.metrics, c.logger))
	}

	sweep, err := commands.NewSweepStalePresenceCommand(c.cfg.HeartbeatTTL)
	if err != nil {
		return nil, err
	}
	list = append(list, jobs.NewPresenceSweeperJob(
		c.CreateSweepStalePresenceCommandHandler(), sweep, c.cfg.PresenceSweepSchedule, c.metrics, c.logger))

	if relay, ok := c.CreatePublishOutboxEventsCommandHandler(); ok {
		publish, err := commands.NewPublishOutboxEventsCommand(c.cfg.OutboxBatchSize)
		if err != nil {
			return nil, err
		}
		list = append(list, jobs.NewOutboxRelayJob(relay, publish, c.cfg.OutboxRelaySchedule, c.metrics, c.logger))
	} else {
		c.logger.Warn("KAFKA_HOST is not set, outbox events stay unpublished")
	}
	return list, nil
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncRegistrationUoWFactory func() commands.RegistrationUoW

func (f FuncRegistrationUoWFactory) Create() commands.RegistrationUoW {
	return f()
}

type FuncOutboxUoWFactory func() commands.OutboxUoW

func (f FuncOutboxUoWFactory) Create() commands.OutboxUoW {
	return f()
}
