package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/metrics"
	"quickdrop/internal/pkg/errs"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	_ AutoAssigner    = commands.AutoAssignNextCommandHandler{}
	_ PresenceSweeper = commands.SweepStalePresenceCommandHandler{}
	_ OutboxPublisher = commands.PublishOutboxEventsCommandHandler{}
)

type MockAutoAssigner struct{ mock.Mock }

func (m *MockAutoAssigner) Handle(ctx context.Context, cmd commands.AutoAssignNextCommand) (*shipment.Shipment, error) {
	args := m.Called(ctx, cmd)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}

type MockPresenceSweeper struct{ mock.Mock }

func (m *MockPresenceSweeper) Handle(ctx context.Context, cmd commands.SweepStalePresenceCommand) (int64, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(int64), args.Error(1)
}

type MockOutboxPublisher struct{ mock.Mock }

func (m *MockOutboxPublisher) Handle(ctx context.Context, cmd commands.PublishOutboxEventsCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

func assignedShipment(t *testing.T) *shipment.Shipment {
	t.Helper()
	point, err := kernel.NewGeoPoint(5.6, -0.18)
	require.NoError(t, err)
	addr, err := kernel.NewAddress("Kaneshie, Accra", point)
	require.NoError(t, err)
	s, err := shipment.NewShipment(kernel.NewUUID(), kernel.NewUUID(), addr, addr, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Assign(kernel.NewUUID(), time.Now()))
	return s
}

func TestAutoAssignmentJob_DrainsUntilNoShipment(t *testing.T) {
	ctx := context.Background()
	handler := new(MockAutoAssigner)
	handler.On("Handle", ctx, mock.Anything).Return(assignedShipment(t), nil).Twice()
	handler.On("Handle", ctx, mock.Anything).Return(nil, commands.ErrNoUnassignedShipment).Once()

	m := metrics.New()
	job := NewAutoAssignmentJob(handler, "* * * * * *", m, discardLogger())

	assert.Equal(t, 2, job.RunOnce(ctx))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AutoAssign.WithLabelValues(metrics.OutcomeAssigned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutoAssign.WithLabelValues(metrics.OutcomeNoShipment)))
	handler.AssertExpectations(t)
}

func TestAutoAssignmentJob_StopsWhenNoCourierIsFree(t *testing.T) {
	ctx := context.Background()
	handler := new(MockAutoAssigner)
	handler.On("Handle", ctx, mock.Anything).
		Return(nil, errs.NewNoCourierAvailableError(kernel.NewUUID().String(), 3)).Once()

	m := metrics.New()
	assert.Zero(t, NewAutoAssignmentJob(handler, "* * * * * *", m, discardLogger()).RunOnce(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutoAssign.WithLabelValues(metrics.OutcomeNoCourier)))
	handler.AssertExpectations(t)
}

func TestAutoAssignmentJob_StopsOnStorageError(t *testing.T) {
	ctx := context.Background()
	handler := new(MockAutoAssigner)
	handler.On("Handle", ctx, mock.Anything).
		Return(nil, errs.NewStorageUnavailableError("lock shipment", errors.New("connection refused"))).Once()

	m := metrics.New()
	assert.Zero(t, NewAutoAssignmentJob(handler, "* * * * * *", m, discardLogger()).RunOnce(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutoAssign.WithLabelValues(metrics.OutcomeError)))
}

func TestAutoAssignmentJob_SkipsShipmentThatKeepsFailing(t *testing.T) {
	ctx := context.Background()
	broken := kernel.NewUUID()
	next := assignedShipment(t)

	handler := new(MockAutoAssigner)
	handler.On("Handle", ctx, mock.MatchedBy(func(cmd commands.AutoAssignNextCommand) bool {
		return len(cmd.Skip()) == 0
	})).Return(nil, &commands.ShipmentAssignmentError{
		ShipmentID: broken,
		Err:        errs.NewValueIsInvalidErrorWithCause("shipment state", errors.New("order row missing")),
	}).Once()
	handler.On("Handle", ctx, mock.MatchedBy(func(cmd commands.AutoAssignNextCommand) bool {
		return len(cmd.Skip()) == 1 && cmd.Skip()[0].IsEqual(broken)
	})).Return(next, nil).Once()
	handler.On("Handle", ctx, mock.Anything).Return(nil, commands.ErrNoUnassignedShipment).Once()

	m := metrics.New()
	job := NewAutoAssignmentJob(handler, "* * * * * *", m, discardLogger())

	assert.Equal(t, 1, job.RunOnce(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutoAssign.WithLabelValues(metrics.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutoAssign.WithLabelValues(metrics.OutcomeAssigned)))
	handler.AssertExpectations(t)
}

func TestAutoAssignmentJob_BoundsSkippedShipments(t *testing.T) {
	ctx := context.Background()
	handler := new(MockAutoAssigner)
	handler.On("Handle", ctx, mock.Anything).
		Return(nil, &commands.ShipmentAssignmentError{ShipmentID: kernel.NewUUID(), Err: errors.New("corrupt row")})

	job := NewAutoAssignmentJob(handler, "* * * * * *", metrics.New(), discardLogger())
	assert.Zero(t, job.RunOnce(ctx))
	handler.AssertNumberOfCalls(t, "Handle", maxAssignmentsPerRun)
}

func TestAutoAssignmentJob_BoundsOneRun(t *testing.T) {
	ctx := context.Background()
	handler := new(MockAutoAssigner)
	handler.On("Handle", ctx, mock.Anything).Return(assignedShipment(t), nil)

	job := NewAutoAssignmentJob(handler, "* * * * * *", metrics.New(), discardLogger())
	assert.Equal(t, maxAssignmentsPerRun, job.RunOnce(ctx))
	handler.AssertNumberOfCalls(t, "Handle", maxAssignmentsPerRun)
}

func TestPresenceSweeperJob_RunOnce(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewSweepStalePresenceCommand(90 * time.Second)
	require.NoError(t, err)

	handler := new(MockPresenceSweeper)
	handler.On("Handle", ctx, cmd).Return(int64(3), nil).Once()
	handler.On("Handle", ctx, cmd).Return(int64(0), errors.New("boom")).Once()

	m := metrics.New()
	job := NewPresenceSweeperJob(handler, cmd, "*/30 * * * * *", m, discardLogger())

	assert.EqualValues(t, 3, job.RunOnce(ctx))
	assert.Zero(t, job.RunOnce(ctx))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StaleCouriers))
	handler.AssertExpectations(t)
}

func TestOutboxRelayJob_DrainsFullBatches(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewPublishOutboxEventsCommand(2)
	require.NoError(t, err)

	handler := new(MockOutboxPublisher)
	handler.On("Handle", ctx, cmd).Return(2, nil).Twice()
	handler.On("Handle", ctx, cmd).Return(1, nil).Once()

	m := metrics.New()
	assert.Equal(t, 5, NewOutboxRelayJob(handler, cmd, "* * * * * *", m, discardLogger()).RunOnce(ctx))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.OutboxPublished))
	handler.AssertExpectations(t)
}

func TestOutboxRelayJob_CountsFailures(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewPublishOutboxEventsCommand(2)
	require.NoError(t, err)

	handler := new(MockOutboxPublisher)
	handler.On("Handle", ctx, cmd).Return(2, nil).Once()
	handler.On("Handle", ctx, cmd).Return(0, errors.New("broker down")).Once()

	m := metrics.New()
	assert.Equal(t, 2, NewOutboxRelayJob(handler, cmd, "* * * * * *", m, discardLogger()).RunOnce(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublishFailure))
}

type fakeJob struct {
	name     string
	startErr error
	events   *[]string
}

func (f fakeJob) Name() string { return f.name }

func (f fakeJob) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.events = append(*f.events, "start "+f.name)
	return nil
}

func (f fakeJob) Stop() { *f.events = append(*f.events, "stop "+f.name) }

func TestJobManager_StartAndStopInOrder(t *testing.T) {
	var events []string
	jm := NewJobManager(discardLogger(),
		fakeJob{name: "a", events: &events},
		fakeJob{name: "b", events: &events},
	)

	require.NoError(t, jm.StartAll())
	jm.StopAll()
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, events)
}

func TestJobManager_StartFailureStopsStartedJobs(t *testing.T) {
	var events []string
	jm := NewJobManager(discardLogger(),
		fakeJob{name: "a", events: &events},
		fakeJob{name: "b", events: &events, startErr: errors.New("bad schedule")},
	)

	err := jm.StartAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"start a", "stop a"}, events)
}

func TestScheduledJob_InvalidScheduleFailsToStart(t *testing.T) {
	job := NewAutoAssignmentJob(new(MockAutoAssigner), "every now and then", metrics.New(), discardLogger())
	assert.Error(t, job.Start())
}

func TestScheduledJob_RunsOnSchedule(t *testing.T) {
	handler := new(MockAutoAssigner)
	ran := make(chan struct{}, 1)
	handler.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return(nil, commands.ErrNoUnassignedShipment)

	job := NewAutoAssignmentJob(handler, "* * * * * *", metrics.New(), discardLogger())
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
