//go:build integration

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/config"
	"github.com/estatehub/service-scheduling/internal/dispatch"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/events/schema"
	"github.com/estatehub/service-scheduling/internal/integration/notify"
	"github.com/estatehub/service-scheduling/internal/integration/payment"
	"github.com/estatehub/service-scheduling/internal/integration/subject"
	"github.com/estatehub/service-scheduling/internal/platform/kafka"
	"github.com/estatehub/service-scheduling/internal/repository"
)

// startPostgres runs a Postgres container and returns a config whose
// database section points at it. Migrations run from the repo's
// migrations directory.
func startPostgres(t *testing.T) *config.ServiceConfig {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_scheduling",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return &config.ServiceConfig{
		AppEnv:            "test",
		StorageDriver:     "postgres",
		MigrationsDir:     "../../migrations",
		WorkerConcurrency: 2,
		DBConfig: config.DatabaseConfig{
			Host:            host,
			Port:            portNum,
			User:            "test",
			Password:        "test",
			DBName:          "test_scheduling",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		KafkaConfig: config.KafkaConfig{
			GroupPrefix:  "test-",
			BookingTopic: schema.TopicBookingEvents,
			PaymentTopic: schema.TopicPaymentEvents,
		},
	}
}

// openTestStores connects and migrates, retrying while Postgres finishes
// starting up.
func openTestStores(t *testing.T, cfg *config.ServiceConfig) *stores {
	t.Helper()
	log := zap.NewNop()

	var st *stores
	require.Eventually(t, func() bool {
		var err error
		st, err = openStores(cfg, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")
	return st
}

// startKafka runs a single-node Kafka and pre-creates the service topics.
func startKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")
	createTopics(t, brokers, schema.TopicBookingEvents, schema.TopicPaymentEvents)
	return brokers
}

// schedulingStack is the application layer wired over real stores.
type schedulingStack struct {
	stores   *stores
	bookings *application.BookingService
	queue    *dispatch.LocalQueue
}

func newSchedulingStack(t *testing.T, st *stores, producer application.EventProducer, topic string) *schedulingStack {
	t.Helper()
	log := zap.NewNop()

	processor := dispatch.NewProcessor(notify.NewLogNotifier(log), subject.NewLogUpdater(log), log)
	queue := dispatch.NewLocalQueue(processor, 2, 64, log)
	t.Cleanup(queue.Close)

	clock := application.Clock(application.SystemClock)
	publisher := application.NewEventPublisher(producer, topic, log)
	checker := application.NewConflictChecker(st.bookings)
	resolver := application.NewAssignmentResolver(
		st.providers, st.windows, st.bookings, checker,
		bookingDomain.NewStandardPricingStrategy(), clock, log,
	)
	lifecycle := application.NewStatusLifecycleManager(st.bookings, st.providers, queue, publisher, clock, log)

	return &schedulingStack{
		stores:   st,
		bookings: application.NewBookingService(st.bookings, resolver, lifecycle, payment.ManualGateway{}, log),
		queue:    queue,
	}
}

func seedProvider(t *testing.T, st *stores, kind providerDomain.Kind, name string) *providerDomain.Provider {
	t.Helper()
	p, err := providerDomain.NewProvider(uuid.New(), kind, providerDomain.Profile{
		Name:            name,
		ServiceAreas:    []string{"Cairo"},
		HourlyRateCents: 60000,
	})
	require.NoError(t, err)
	require.NoError(t, st.providers.Save(context.Background(), p))
	return p
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	producer := kafka.NewProducer(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")
	require.NoError(t, producer.PublishEvent(context.Background(), topic, ce), "failed to publish event")
}

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, st *stores, bookingID uuid.UUID, expected string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := st.db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		result = model
		return model.Status == expected
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expected)
	return result
}

// consumeEvent reads a topic from the beginning until match accepts an event.
func consumeEvent(t *testing.T, brokers []string, topic string, timeout time.Duration, match func(kafka.CloudEvent) bool) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "test-assert-" + uuid.New().String()[:8],
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for a matching event on topic %q", topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if match(ce) {
			return ce
		}
	}
}

// createTopics pre-creates topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}
	}
	require.NoError(t, controllerConn.CreateTopics(configs...), "failed to create Kafka topics")

	time.Sleep(time.Second)
}
