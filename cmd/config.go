package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"quickdrop/internal/adapters/out/postgres"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	KafkaHost                string
	KafkaShipmentEventsTopic string

	AutoAssignEnabled     bool
	AutoAssignSchedule    string
	PresenceSweepSchedule string
	HeartbeatTTL          time.Duration
	OutboxRelaySchedule   string
	OutboxBatchSize       int

	MaxActiveShipmentsPerCourier int
}

const (
	DefaultHTTPPort                     = "8080"
	DefaultKafkaShipmentEventsTopic     = "shipment-events"
	DefaultAutoAssignSchedule           = "@every 5s"
	DefaultPresenceSweepSchedule        = "@every 30s"
	DefaultHeartbeatTTL                 = 2 * time.Minute
	DefaultOutboxRelaySchedule          = "@every 2s"
	DefaultOutboxBatchSize              = 100
	DefaultMaxActiveShipmentsPerCourier = 1
)

// DefaultConfig is what LoadConfig returns when nothing is set.
func DefaultConfig() Config {
	return Config{
		HTTPPort:                     DefaultHTTPPort,
		DBHost:                       "localhost",
		DBPort:                       "5432",
		DBUser:                       "postgres",
		DBName:                       "quickdrop",
		DBSslMode:                    "disable",
		KafkaShipmentEventsTopic:     DefaultKafkaShipmentEventsTopic,
		AutoAssignEnabled:            true,
		AutoAssignSchedule:           DefaultAutoAssignSchedule,
		PresenceSweepSchedule:        DefaultPresenceSweepSchedule,
		HeartbeatTTL:                 DefaultHeartbeatTTL,
		OutboxRelaySchedule:          DefaultOutboxRelaySchedule,
		OutboxBatchSize:              DefaultOutboxBatchSize,
		MaxActiveShipmentsPerCourier: DefaultMaxActiveShipmentsPerCourier,
	}
}

// setting binds a flag to its environment variable.
type setting struct {
	flag, env, usage string
}

var (
	httpPort         = setting{"http-port", "HTTP_PORT", "HTTP listen port"}
	dbHost           = setting{"db-host", "DB_HOST", "PostgreSQL host"}
	dbPort           = setting{"db-port", "DB_PORT", "PostgreSQL port"}
	dbUser           = setting{"db-user", "DB_USER", "PostgreSQL user"}
	dbPassword       = setting{"db-password", "DB_PASSWORD", "PostgreSQL password"}
	dbName           = setting{"db-name", "DB_NAME", "PostgreSQL database"}
	dbSslMode        = setting{"db-sslmode", "DB_SSLMODE", "PostgreSQL sslmode"}
	kafkaHost        = setting{"kafka-host", "KAFKA_HOST", "comma separated Kafka brokers; empty disables the outbox relay"}
	kafkaTopic       = setting{"kafka-shipment-events-topic", "KAFKA_SHIPMENT_EVENTS_TOPIC", "topic for shipment events"}
	autoAssign       = setting{"auto-assign-enabled", "AUTO_ASSIGN_ENABLED", "run the automatic assignment job"}
	autoAssignCron   = setting{"auto-assign-schedule", "AUTO_ASSIGN_SCHEDULE", "automatic assignment schedule"}
	presenceCron     = setting{"presence-sweep-schedule", "PRESENCE_SWEEP_SCHEDULE", "stale presence sweep schedule"}
	heartbeatTTL     = setting{"heartbeat-ttl", "HEARTBEAT_TTL", "presence expires after this long without a heartbeat"}
	outboxCron       = setting{"outbox-relay-schedule", "OUTBOX_RELAY_SCHEDULE", "outbox relay schedule"}
	outboxBatch      = setting{"outbox-batch-size", "OUTBOX_BATCH_SIZE", "events published per relay batch"}
	maxActivePerUser = setting{"max-active-shipments-per-courier", "MAX_ACTIVE_SHIPMENTS_PER_COURIER",
		"non-terminal shipments a courier may hold; 0 or less is unlimited"}
)

// LoadConfig resolves every setting from, in increasing priority, its default, the
// .env file, the process environment and the command line. A missing .env file is
// not an error; a malformed value is.
func LoadConfig(args []string) (Config, error) {
	d := DefaultConfig()

	flags := pflag.NewFlagSet("quickdrop", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	for _, s := range []struct {
		setting
		def string
	}{
		{httpPort, d.HTTPPort},
		{dbHost, d.DBHost},
		{dbPort, d.DBPort},
		{dbUser, d.DBUser},
		{dbPassword, d.DBPassword},
		{dbName, d.DBName},
		{dbSslMode, d.DBSslMode},
		{kafkaHost, d.KafkaHost},
		{kafkaTopic, d.KafkaShipmentEventsTopic},
		{autoAssignCron, d.AutoAssignSchedule},
		{presenceCron, d.PresenceSweepSchedule},
		{outboxCron, d.OutboxRelaySchedule},
	} {
		flags.String(s.flag, s.def, s.usage)
	}
	flags.Bool(autoAssign.flag, d.AutoAssignEnabled, autoAssign.usage)
	flags.Duration(heartbeatTTL.flag, d.HeartbeatTTL, heartbeatTTL.usage)
	flags.Int(outboxBatch.flag, d.OutboxBatchSize, outboxBatch.usage)
	flags.Int(maxActivePerUser.flag, d.MaxActiveShipmentsPerCourier, maxActivePerUser.usage)

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}

	r := resolver{flags: flags}
	cfg := Config{
		HTTPPort:                 r.getString(httpPort),
		DBHost:                   r.getString(dbHost),
		DBPort:                   r.getString(dbPort),
		DBUser:                   r.getString(dbUser),
		DBPassword:               r.getString(dbPassword),
		DBName:                   r.getString(dbName),
		DBSslMode:                r.getString(dbSslMode),
		KafkaHost:                r.getString(kafkaHost),
		KafkaShipmentEventsTopic: r.getString(kafkaTopic),
		AutoAssignEnabled:        r.getBool(autoAssign),
		AutoAssignSchedule:       r.getString(autoAssignCron),
		PresenceSweepSchedule:    r.getString(presenceCron),
		HeartbeatTTL:             r.getDuration(heartbeatTTL),
		OutboxRelaySchedule:      r.getString(outboxCron),
		OutboxBatchSize:          r.getInt(outboxBatch),

		MaxActiveShipmentsPerCourier: r.getInt(maxActivePerUser),
	}
	if err := errors.Join(append(r.errs, cfg.Validate())...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (c Config) Validate() error {
	var errList []error
	if p, err := strconv.Atoi(c.HTTPPort); err != nil || p < 1 || p > 65535 {
		errList = append(errList, fmt.Errorf("HTTP_PORT %q is not a port", c.HTTPPort))
	}
	if c.DBHost == "" || c.DBName == "" {
		errList = append(errList, errors.New("DB_HOST and DB_NAME are required"))
	}
	for _, s := range []struct {
		key, spec string
	}{
		{autoAssignCron.env, c.AutoAssignSchedule},
		{presenceCron.env, c.PresenceSweepSchedule},
		{outboxCron.env, c.OutboxRelaySchedule},
	} {
		if _, err := scheduleParser.Parse(s.spec); err != nil {
			errList = append(errList, fmt.Errorf("%s %q: %w", s.key, s.spec, err))
		}
	}
	if c.HeartbeatTTL <= 0 {
		errList = append(errList, fmt.Errorf("HEARTBEAT_TTL must be positive, got %s", c.HeartbeatTTL))
	}
	if c.OutboxBatchSize < 1 || c.OutboxBatchSize > 1000 {
		errList = append(errList, fmt.Errorf("OUTBOX_BATCH_SIZE must be within 1..1000, got %d", c.OutboxBatchSize))
	}
	if c.KafkaHost != "" && c.KafkaShipmentEventsTopic == "" {
		errList = append(errList, errors.New("KAFKA_SHIPMENT_EVENTS_TOPIC is required when KAFKA_HOST is set"))
	}
	return errors.Join(errList...)
}

func (c Config) Connection() postgres.ConnectionConfig {
	return postgres.ConnectionConfig{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSslMode,
	}
}

func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// resolver reads a setting from an explicitly set flag, then the environment, then
// the flag default. Parse failures are collected in errs.
type resolver struct {
	flags *pflag.FlagSet
	errs  []error
}

func (r *resolver) raw(s setting) string {
	f := r.flags.Lookup(s.flag)
	if f.Changed {
		return f.Value.String()
	}
	if v, ok := os.LookupEnv(s.env); ok {
		return strings.TrimSpace(v)
	}
	return f.DefValue
}

func (r *resolver) getString(s setting) string {
	return r.raw(s)
}

func (r *resolver) getBool(s setting) bool {
	v, err := strconv.ParseBool(r.raw(s))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", s.env, err))
	}
	return v
}

func (r *resolver) getInt(s setting) int {
	v, err := strconv.Atoi(r.raw(s))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", s.env, err))
	}
	return v
}

func (r *resolver) getDuration(s setting) time.Duration {
	v, err := time.ParseDuration(r.raw(s))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", s.env, err))
	}
	return v
}
