package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/sync/semaphore"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
	"github.com/hookline/hookline/pkg/metrics"
	"github.com/hookline/hookline/pkg/tracing"
)

// ManagerLocator finds the subscription manager owning a site scope. The
// registry satisfies it; the engine uses it to reach the repositories
// holding an attempt without carrying live references in shipments.
type ManagerLocator interface {
	ManagerFor(site string) (*SubscriptionManager, error)
}

// UnitOfWorkRunner opens units of work, including the retrying helper
// the engine's write-backs rely on.
type UnitOfWorkRunner interface {
	domain.UnitOfWorkFactory
	RunInUnitOfWork(ctx context.Context, site string, fn func(ctx context.Context, uow domain.UnitOfWork) error) error
}

// EngineConfig tunes the delivery engine. Zero values take the defaults.
type EngineConfig struct {
	// Workers bounds how many shipments are processed concurrently.
	Workers int64

	// RequestTimeout caps one outgoing HTTP request.
	RequestTimeout time.Duration

	// MaxResponseBytes caps how much of a response body is retained on
	// the attempt.
	MaxResponseBytes int64
}

// Engine defaults.
const (
	DefaultEngineWorkers    = 2
	DefaultRequestTimeout   = 10 * time.Second
	DefaultMaxResponseBytes = 1 << 20

	deliveryTaskNamePrefix = "hookline-delivery"
)

// sensitiveHeaders never reach stored request snapshots.
var sensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Api-Key",
}

// EngineStatus is a point-in-time snapshot for operators.
type EngineStatus struct {
	PendingShipments int   `json:"pending_shipments"`
	Workers          int64 `json:"workers"`
	Stopped          bool  `json:"stopped"`
}

// deliveryTask is one accepted shipment moving through the engine.
type deliveryTask struct {
	name     string
	shipment *domain.ShipmentInfo
	done     chan struct{}
	err      error
}

// DeliveryEngine performs webhook deliveries in the background. Accepted
// shipments are self-contained; every read and write of live state goes
// through the owning manager's repositories in a fresh unit of work, so
// delivery never blocks and never joins the transaction that produced
// the shipment.
type DeliveryEngine struct {
	managers ManagerLocator
	dialects domain.DialectRegistry
	uows     UnitOfWorkRunner
	bus      domain.EventBus
	logger   logger.Logger

	workers          int64
	requestTimeout   time.Duration
	maxResponseBytes int64

	sem     *semaphore.Weighted
	baseCtx context.Context
	cancel  context.CancelFunc
	taskSeq uint64

	mu      sync.Mutex
	stopped bool
	pending map[*deliveryTask]struct{}
}

// NewDeliveryEngine creates a delivery engine.
func NewDeliveryEngine(managers ManagerLocator, dialects domain.DialectRegistry, uows UnitOfWorkRunner, bus domain.EventBus, log logger.Logger, cfg EngineConfig) *DeliveryEngine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultEngineWorkers
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DeliveryEngine{
		managers:         managers,
		dialects:         dialects,
		uows:             uows,
		bus:              bus,
		logger:           log,
		workers:          cfg.Workers,
		requestTimeout:   cfg.RequestTimeout,
		maxResponseBytes: cfg.MaxResponseBytes,
		sem:              semaphore.NewWeighted(cfg.Workers),
		baseCtx:          ctx,
		cancel:           cancel,
		pending:          make(map[*deliveryTask]struct{}),
	}
}

var _ ShipmentAcceptor = (*DeliveryEngine)(nil)

// AcceptForDelivery takes ownership of a shipment. It returns promptly
// and never propagates failures back to the committed unit of work that
// produced the parcel; a stopped engine drops the shipment with a log
// line.
func (e *DeliveryEngine) AcceptForDelivery(shipment *domain.ShipmentInfo) {
	if shipment == nil || len(shipment.Pairs) == 0 {
		return
	}

	task := &deliveryTask{
		name:     fmt.Sprintf("%s-%d", deliveryTaskNamePrefix, atomic.AddUint64(&e.taskSeq, 1)),
		shipment: shipment,
		done:     make(chan struct{}),
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		e.logger.WithField("shipment_id", shipment.ID).
			Warn("delivery engine stopped; shipment dropped")
		return
	}
	e.pending[task] = struct{}{}
	e.mu.Unlock()

	stats.Record(e.baseCtx, metrics.MShipmentsAccepted.M(1))
	go e.run(task)
}

func (e *DeliveryEngine) run(task *deliveryTask) {
	defer func() {
		e.mu.Lock()
		delete(e.pending, task)
		e.mu.Unlock()
		close(task.done)
	}()

	if err := e.sem.Acquire(e.baseCtx, 1); err != nil {
		task.err = domain.ErrEngineStopped
		return
	}
	defer e.sem.Release(1)

	log := e.logger.WithField("task", task.name).WithField("shipment_id", task.shipment.ID)
	log.WithFields(map[string]interface{}{"pairs": len(task.shipment.Pairs)}).
		Debug("delivering shipment")

	// Each task gets its own client; sorting by destination lets
	// deliveries to one host reuse its connection.
	client := e.newClient()
	defer client.CloseIdleConnections()
	task.shipment.SortPairsByDestination()

	for _, pair := range task.shipment.Pairs {
		if err := e.deliverPair(e.baseCtx, client, pair); err != nil {
			log.WithField("attempt_id", pair.AttemptID).
				Error(fmt.Sprintf("delivery write-back failed: %v", err))
			if task.err == nil {
				task.err = err
			}
		}
	}
}

// deliverPair performs one HTTP delivery and records the outcome. The
// returned error reports infrastructure trouble (store write-backs,
// broken wiring); an unhappy destination is a resolved attempt, not an
// error.
func (e *DeliveryEngine) deliverPair(ctx context.Context, client *http.Client, pair *domain.ShipmentPair) (err error) {
	ctx, span := tracing.StartServiceSpan(ctx, "DeliveryEngine", "DeliverPair")
	defer func() { tracing.EndSpan(span, err) }()
	tracing.AddAttribute(ctx, "attempt_id", pair.AttemptID)
	tracing.AddAttribute(ctx, "site_path", pair.SitePath)

	manager, err := e.managers.ManagerFor(pair.SitePath)
	if err != nil {
		return err
	}
	dialect, err := e.dialects.Lookup(pair.DialectID)
	if err != nil {
		return fmt.Errorf("failed to look up dialect %q: %w", pair.DialectID, err)
	}
	req, err := dialect.PrepareRequest(ctx, pair)
	if err != nil {
		return err
	}
	requestInfo := snapshotRequest(req, pair.Payload)

	var (
		responseInfo *domain.AttemptResponse
		status       domain.AttemptStatus
		message      string
		transportErr error
	)

	start := time.Now()
	resp, doErr := client.Do(req)
	elapsed := time.Since(start)

	if doErr != nil {
		status = domain.AttemptStatusFailed
		message = domain.MessageTransportError
		transportErr = doErr
	} else {
		responseInfo = e.snapshotResponse(resp, elapsed)
		_ = resp.Body.Close()
		message = statusLine(resp)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			status = domain.AttemptStatusSuccessful
		} else {
			status = domain.AttemptStatusFailed
		}
	}

	e.recordDelivery(status, transportErr, elapsed)

	writeBack := func(ctx context.Context, uow domain.UnitOfWork) error {
		return e.resolveAttempt(ctx, manager, pair, status, message, requestInfo, responseInfo, transportErr)
	}
	if pair.Durable {
		return e.uows.RunInUnitOfWork(ctx, pair.SitePath, writeBack)
	}

	// Memory-backed attempts have no store transaction, but the unit of
	// work still runs so resolution events see the usual scope.
	uow := e.uows.BeginDetached(pair.SitePath)
	runCtx := domain.WithUnitOfWork(ctx, uow)
	if err := writeBack(runCtx, uow); err != nil {
		_ = uow.Rollback(runCtx)
		return err
	}
	return uow.Commit(runCtx)
}

// resolveAttempt writes the outcome onto the stored attempt and
// publishes its resolution. Attempts that disappeared or settled since
// the shipment was produced are left alone.
func (e *DeliveryEngine) resolveAttempt(
	ctx context.Context,
	manager *SubscriptionManager,
	pair *domain.ShipmentPair,
	status domain.AttemptStatus,
	message string,
	requestInfo *domain.AttemptRequest,
	responseInfo *domain.AttemptResponse,
	transportErr error,
) error {
	attempts := manager.Attempts()

	attempt, err := attempts.GetByID(ctx, pair.SitePath, pair.SubscriptionID, pair.AttemptID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if attempt.Resolved() {
		return nil
	}

	attempt.Request = requestInfo
	attempt.Response = responseInfo
	if transportErr != nil {
		attempt.Internal.RecordException(transportErr)
	}
	if err := attempt.Resolve(status, message); err != nil {
		return err
	}
	if err := attempts.Resolve(ctx, attempt); err != nil {
		var settled *domain.ErrAttemptResolved
		if errors.As(err, &settled) {
			return nil
		}
		return err
	}

	sub, err := manager.GetSubscription(ctx, pair.SubscriptionID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Subscription removed mid-flight; the attempt record is
			// all that remains.
			return nil
		}
		return err
	}
	return e.bus.Publish(ctx, domain.NewAttemptResolvedEvent(attempt, sub))
}

// WaitForPendingDeliveries blocks until every shipment accepted before
// the call finishes, then reports the first task failure, if any.
// Shipments accepted afterwards, including ones spawned by resolution
// events, are not waited for.
func (e *DeliveryEngine) WaitForPendingDeliveries(ctx context.Context, timeout time.Duration) error {
	e.mu.Lock()
	snapshot := make([]*deliveryTask, 0, len(e.pending))
	for task := range e.pending {
		snapshot = append(snapshot, task)
	}
	e.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for _, task := range snapshot {
		select {
		case <-task.done:
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for pending deliveries: %w", ctx.Err())
		}
	}
	for _, task := range snapshot {
		if task.err != nil {
			return task.err
		}
	}
	return nil
}

// Stop refuses new shipments and cancels in-flight requests. Call
// WaitForPendingDeliveries first for a drain.
func (e *DeliveryEngine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	e.cancel()
}

// Status reports a point-in-time snapshot of the engine.
func (e *DeliveryEngine) Status() EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineStatus{
		PendingShipments: len(e.pending),
		Workers:          e.workers,
		Stopped:          e.stopped,
	}
}

func (e *DeliveryEngine) newClient() *http.Client {
	return tracing.WrapHTTPClient(&http.Client{
		Timeout: e.requestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	})
}

func (e *DeliveryEngine) snapshotResponse(resp *http.Response, elapsed time.Duration) *domain.AttemptResponse {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, e.maxResponseBytes))

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}
	delete(headers, "Set-Cookie")

	return &domain.AttemptResponse{
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Headers:    headers,
		Content:    string(body),
		ElapsedMS:  elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
}

func (e *DeliveryEngine) recordDelivery(status domain.AttemptStatus, transportErr error, elapsed time.Duration) {
	outcome := string(status)
	if transportErr != nil {
		outcome = "error"
	}
	ctx, err := tag.New(e.baseCtx, tag.Upsert(metrics.KeyOutcome, outcome))
	if err != nil {
		ctx = e.baseCtx
	}
	stats.Record(ctx,
		metrics.MDeliveries.M(1),
		metrics.MDeliveryLatencyMs.M(float64(elapsed.Milliseconds())))
}

func snapshotRequest(req *http.Request, payload []byte) *domain.AttemptRequest {
	headers := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		headers[name] = strings.Join(values, ", ")
	}
	for _, name := range sensitiveHeaders {
		delete(headers, http.CanonicalHeaderKey(name))
	}
	return &domain.AttemptRequest{
		URL:       req.URL.String(),
		Method:    req.Method,
		Body:      string(payload),
		Headers:   headers,
		CreatedAt: time.Now().UTC(),
	}
}

func statusLine(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
