package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/clock"
	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/metrics"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	shippingDomain "github.com/allisson/orderflow/internal/shipping/domain"
)

// Step names used on the audit log.
const (
	stepReceive  = "receive"
	stepValidate = "validate"
	stepCharge   = "charge"
)

// mailboxSize bounds the number of undelivered messages per order. Signals
// beyond the bound are dropped and recorded as ignored.
const mailboxSize = 64

type msgKind int

const (
	msgStart msgKind = iota + 1
	msgApprove
	msgCancel
	msgUpdateAddress
	msgTimerExpired
	msgResume
)

func (k msgKind) String() string {
	switch k {
	case msgStart:
		return "start"
	case msgApprove:
		return "approve"
	case msgCancel:
		return "cancel"
	case msgUpdateAddress:
		return "update_address"
	case msgTimerExpired:
		return "timer_expired"
	case msgResume:
		return "resume"
	default:
		return "unknown"
	}
}

// message is one unit of work delivered to an order's worker. All lifecycle
// input (operations, signals, timer expiries) flows through the mailbox, so
// delivery order fully determines processing order.
type message struct {
	kind    msgKind
	address *orderDomain.Address
	reason  string
	gen     uint64
	reply   chan *StatusInfo
}

// instance is the in-memory half of one order: a mailbox, the worker that
// owns it, and a read snapshot for status queries.
type instance struct {
	orderID   string
	paymentID string
	mailbox   chan message

	// sendMu serializes producers against teardown.
	sendMu  sync.Mutex
	stopped bool

	// snapMu guards the fields read by status queries.
	snapMu    sync.RWMutex
	state     orderDomain.State
	lastError string
	address   *orderDomain.Address

	// Worker-owned fields, never touched outside the worker goroutine.
	items         []orderDomain.LineItem
	valid         bool
	validationErr string
	timer         *time.Timer
	timerGen      uint64
	createdAt     time.Time
}

func (inst *instance) snapshot() *StatusInfo {
	inst.snapMu.RLock()
	defer inst.snapMu.RUnlock()
	return &StatusInfo{
		OrderID:   inst.orderID,
		Step:      inst.state,
		LastError: inst.lastError,
	}
}

func (inst *instance) setState(state orderDomain.State, lastError string) {
	inst.snapMu.Lock()
	inst.state = state
	inst.lastError = lastError
	inst.snapMu.Unlock()
}

func (inst *instance) setAddress(address *orderDomain.Address) {
	inst.snapMu.Lock()
	inst.address = address
	inst.snapMu.Unlock()
}

func (inst *instance) currentState() orderDomain.State {
	inst.snapMu.RLock()
	defer inst.snapMu.RUnlock()
	return inst.state
}

// order materializes the durable snapshot for persistence.
func (inst *instance) order(now time.Time) *orderDomain.Order {
	inst.snapMu.RLock()
	defer inst.snapMu.RUnlock()

	order := &orderDomain.Order{
		ID:        inst.orderID,
		State:     inst.state,
		PaymentID: inst.paymentID,
		Address:   inst.address,
		CreatedAt: inst.createdAt,
		UpdatedAt: now,
	}
	if inst.lastError != "" {
		order.SetError(inst.lastError)
	}
	return order
}

// Config holds orchestrator tuning knobs.
type Config struct {
	// ReviewWindow is how long an order waits for manual review before
	// timing out.
	ReviewWindow time.Duration

	// TerminalGracePeriod is how long a finished order keeps its instance
	// registered so late status queries stay cheap.
	TerminalGracePeriod time.Duration
}

// Orchestrator implements UseCase. One worker goroutine per live order
// consumes that order's mailbox, making the worker the only writer of the
// order's state.
type Orchestrator struct {
	config       Config
	txManager    database.TxManager
	orderRepo    OrderRepository
	eventRepo    EventRepository
	shippingRepo ShippingEnqueuer
	charger      Charger
	intake       Intake
	executor     StepExecutor
	clock        clock.Clock
	metrics      metrics.LifecycleMetrics
	logger       *slog.Logger

	mu        sync.Mutex
	instances map[string]*instance
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	config Config,
	txManager database.TxManager,
	orderRepo OrderRepository,
	eventRepo EventRepository,
	shippingRepo ShippingEnqueuer,
	charger Charger,
	intake Intake,
	executor StepExecutor,
	clk clock.Clock,
	lifecycleMetrics metrics.LifecycleMetrics,
	logger *slog.Logger,
) *Orchestrator {
	if lifecycleMetrics == nil {
		lifecycleMetrics = metrics.NewNoOpLifecycleMetrics()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		config:       config,
		txManager:    txManager,
		orderRepo:    orderRepo,
		eventRepo:    eventRepo,
		shippingRepo: shippingRepo,
		charger:      charger,
		intake:       intake,
		executor:     executor,
		clock:        clk,
		metrics:      lifecycleMetrics,
		logger:       logger,
		instances:    make(map[string]*instance),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins the lifecycle for a new order. Repeating a start for a live
// order returns its current state; starting a finished order is a conflict.
func (o *Orchestrator) Start(ctx context.Context, orderID, paymentID string) (*StatusInfo, error) {
	if orderID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "order id is required")
	}
	if paymentID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "payment id is required")
	}

	if inst := o.lookup(orderID); inst != nil {
		snap := inst.snapshot()
		if snap.Step.Terminal() {
			return nil, apperrors.ErrTerminalState
		}
		return snap, nil
	}

	existing, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.State.Terminal() {
			return nil, apperrors.ErrTerminalState
		}
		// Known but not live: the boot resume pass missed it or it was
		// created by another node. Bring it back instead of restarting.
		o.resumeOrder(existing)
		return &StatusInfo{
			OrderID:   existing.ID,
			Step:      existing.State,
			LastError: existing.ErrorMessage(),
		}, nil
	}

	inst, created, err := o.register(orderID, paymentID, nil)
	if err != nil {
		return nil, err
	}
	if !created {
		snap := inst.snapshot()
		if snap.Step.Terminal() {
			return nil, apperrors.ErrTerminalState
		}
		return snap, nil
	}

	reply := make(chan *StatusInfo, 1)
	o.enqueue(inst, message{kind: msgStart, reply: reply})

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-o.ctx.Done():
		return nil, o.ctx.Err()
	}
}

// Approve delivers an approve signal to the order's mailbox.
func (o *Orchestrator) Approve(ctx context.Context, orderID string) error {
	return o.signal(ctx, orderID, message{kind: msgApprove})
}

// Cancel delivers a cancel signal to the order's mailbox.
func (o *Orchestrator) Cancel(ctx context.Context, orderID, reason string) error {
	return o.signal(ctx, orderID, message{kind: msgCancel, reason: reason})
}

// UpdateAddress delivers an address change to the order's mailbox.
func (o *Orchestrator) UpdateAddress(ctx context.Context, orderID string, address orderDomain.Address) error {
	addr := address
	return o.signal(ctx, orderID, message{kind: msgUpdateAddress, address: &addr})
}

// signal routes a message to a live instance. Signals for unknown or
// finished orders are recorded as ignored rather than failed: senders only
// need fire-and-forget semantics.
func (o *Orchestrator) signal(ctx context.Context, orderID string, msg message) error {
	if inst := o.lookup(orderID); inst != nil {
		o.enqueue(inst, msg)
		return nil
	}

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			if o.logger != nil {
				o.logger.Warn("signal for unknown order dropped",
					slog.String("order_id", orderID),
					slog.String("signal", msg.kind.String()),
				)
			}
			return nil
		}
		return err
	}

	if order.State.Terminal() {
		o.appendEvent(ctx, orderID, orderDomain.EventSignalIgnored, map[string]any{
			"signal": msg.kind.String(),
			"state":  string(order.State),
		})
		return nil
	}

	// Non-terminal but not live: resume it, then deliver.
	inst := o.resumeOrder(order)
	if inst != nil {
		o.enqueue(inst, msg)
	}
	return nil
}

// Status returns the current state of an order, preferring the live snapshot.
func (o *Orchestrator) Status(ctx context.Context, orderID string) (*StatusInfo, error) {
	if inst := o.lookup(orderID); inst != nil {
		return inst.snapshot(), nil
	}

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &StatusInfo{
		OrderID:   order.ID,
		Step:      order.State,
		LastError: order.ErrorMessage(),
	}, nil
}

// ListEvents returns the order's audit log, newest first.
func (o *Orchestrator) ListEvents(
	ctx context.Context,
	orderID string,
	offset, limit int,
) ([]*orderDomain.Event, error) {
	if _, err := o.Status(ctx, orderID); err != nil {
		return nil, err
	}
	return o.eventRepo.ListByOrderID(ctx, orderID, offset, limit)
}

// Resume restores every non-terminal order from the store. Called once at
// boot, before the server starts accepting requests.
func (o *Orchestrator) Resume(ctx context.Context) error {
	orders, err := o.orderRepo.ListNonTerminal(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to list resumable orders")
	}

	for _, order := range orders {
		o.resumeOrder(order)
	}

	if o.logger != nil && len(orders) > 0 {
		o.logger.Info("resumed orders after restart", slog.Int("count", len(orders)))
	}
	return nil
}

// resumeOrder registers an instance seeded from a persisted snapshot and
// schedules its continuation.
func (o *Orchestrator) resumeOrder(order *orderDomain.Order) *instance {
	inst, created, err := o.register(order.ID, order.PaymentID, order)
	if err != nil {
		if o.logger != nil {
			o.logger.Error("failed to resume order",
				slog.String("order_id", order.ID),
				slog.Any("error", err),
			)
		}
		return nil
	}
	if created {
		o.enqueue(inst, message{kind: msgResume})
	}
	return inst
}

// Shutdown stops every worker and waits for them to drain.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) lookup(orderID string) *instance {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.instances[orderID]
}

// register creates the instance and its worker goroutine. seed carries the
// persisted snapshot when resuming; nil means a brand-new order.
func (o *Orchestrator) register(orderID, paymentID string, seed *orderDomain.Order) (*instance, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, false, apperrors.New("orchestrator is shut down")
	}
	if existing, ok := o.instances[orderID]; ok {
		return existing, false, nil
	}

	inst := &instance{
		orderID:   orderID,
		paymentID: paymentID,
		mailbox:   make(chan message, mailboxSize),
	}
	if seed != nil {
		inst.state = seed.State
		inst.lastError = seed.ErrorMessage()
		inst.address = seed.Address
		inst.createdAt = seed.CreatedAt
	} else {
		inst.state = orderDomain.StateReceived
		// Seeded here, not in start processing: an address update that
		// lands ahead of the start message already persists a snapshot.
		inst.createdAt = o.clock.Now()
	}

	o.instances[orderID] = inst
	o.wg.Add(1)
	go o.run(inst)

	return inst, true, nil
}

func (o *Orchestrator) remove(orderID string) {
	o.mu.Lock()
	delete(o.instances, orderID)
	o.mu.Unlock()
}

// enqueue delivers a message to the instance's mailbox without blocking the
// caller. Messages for stopped instances, and messages beyond the mailbox
// bound, are recorded as ignored.
func (o *Orchestrator) enqueue(inst *instance, msg message) {
	inst.sendMu.Lock()
	defer inst.sendMu.Unlock()

	if inst.stopped {
		o.dropMessage(inst, msg)
		return
	}

	select {
	case inst.mailbox <- msg:
	default:
		o.dropMessage(inst, msg)
	}
}

func (o *Orchestrator) dropMessage(inst *instance, msg message) {
	if msg.reply != nil {
		msg.reply <- inst.snapshot()
		return
	}
	if msg.kind == msgTimerExpired || msg.kind == msgResume {
		return
	}
	o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalIgnored, map[string]any{
		"signal": msg.kind.String(),
		"state":  string(inst.currentState()),
	})
}

// run is the worker loop: the single writer for one order.
func (o *Orchestrator) run(inst *instance) {
	defer o.wg.Done()

	for {
		select {
		case <-o.ctx.Done():
			return
		case msg := <-inst.mailbox:
			if terminal := o.dispatch(inst, msg); terminal {
				o.finish(inst)
				return
			}
		}
	}
}

// dispatch processes one message and reports whether the order reached a
// terminal state.
func (o *Orchestrator) dispatch(inst *instance, msg message) bool {
	switch msg.kind {
	case msgStart:
		return o.processStart(inst, msg)
	case msgApprove:
		return o.processApprove(inst)
	case msgCancel:
		return o.processCancel(inst, msg.reason)
	case msgUpdateAddress:
		return o.processUpdateAddress(inst, msg.address)
	case msgTimerExpired:
		return o.processTimerExpired(inst, msg.gen)
	case msgResume:
		return o.processResume(inst)
	default:
		return false
	}
}

func (o *Orchestrator) processStart(inst *instance, msg message) bool {
	inst.setState(orderDomain.StateReceived, "")
	o.persist(inst)

	o.prepare(inst)

	inst.setState(orderDomain.StateAwaitingReview, "")
	o.persist(inst)
	o.armTimer(inst)

	if msg.reply != nil {
		msg.reply <- inst.snapshot()
	}
	return false
}

// prepare runs the receive and validate steps, populating the worker-owned
// line items. Validation failures do not stop the lifecycle here; the order
// still waits for review and fails only if it gets approved.
func (o *Orchestrator) prepare(inst *instance) {
	err := o.executor.Execute(o.ctx, inst.orderID, stepReceive, func(ctx context.Context) error {
		items, receiveErr := o.intake.Receive(ctx, inst.orderID)
		if receiveErr != nil {
			return receiveErr
		}
		inst.items = items
		return nil
	})
	if err != nil {
		inst.valid = false
		inst.validationErr = "order intake failed: " + err.Error()
		return
	}

	err = o.executor.Execute(o.ctx, inst.orderID, stepValidate, func(ctx context.Context) error {
		if len(inst.items) == 0 {
			return apperrors.New("order has no line items")
		}
		if orderDomain.TotalCents(inst.items) <= 0 {
			return apperrors.New("order total must be positive")
		}
		return nil
	})
	if err != nil {
		inst.valid = false
		inst.validationErr = err.Error()
		return
	}

	inst.valid = true
	inst.validationErr = ""
}

func (o *Orchestrator) processApprove(inst *instance) bool {
	state := inst.currentState()

	// Approve is narrower than cancel: it is only honored once the order is
	// awaiting review. An approve that races ahead of start processing sees
	// Received here and must be a no-op, not a verdict on validation that
	// has not run yet.
	if state != orderDomain.StateAwaitingReview {
		o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalIgnored, map[string]any{
			"signal": "approve",
			"state":  string(state),
		})
		return state.Terminal()
	}

	o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalReceived, map[string]any{
		"signal": "approve",
	})
	o.cancelTimer(inst)

	if !inst.valid {
		inst.setState(orderDomain.StateFailed, inst.validationErr)
		o.persist(inst)
		return true
	}

	inst.setState(orderDomain.StateCharging, "")
	o.persist(inst)

	return o.runCharge(inst)
}

func (o *Orchestrator) processCancel(inst *instance, reason string) bool {
	state := inst.currentState()
	if !state.AcceptsSignals() {
		o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalIgnored, map[string]any{
			"signal": "cancel",
			"state":  string(state),
		})
		return state.Terminal()
	}

	payload := map[string]any{"signal": "cancel"}
	if reason != "" {
		payload["reason"] = reason
	}
	o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalReceived, payload)
	o.cancelTimer(inst)

	inst.setState(orderDomain.StateCancelled, reason)
	o.persist(inst)
	return true
}

func (o *Orchestrator) processUpdateAddress(inst *instance, address *orderDomain.Address) bool {
	state := inst.currentState()

	// Address changes apply until the shipping handoff exists. After that
	// the shipping request owns its snapshotted copy.
	if state.Terminal() || state.Rank() >= orderDomain.StateShippingStarted.Rank() {
		o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalIgnored, map[string]any{
			"signal": "update_address",
			"state":  string(state),
		})
		return state.Terminal()
	}

	inst.setAddress(address)
	o.persist(inst)
	o.appendEvent(o.ctx, inst.orderID, orderDomain.EventSignalReceived, map[string]any{
		"signal": "update_address",
	})
	return false
}

func (o *Orchestrator) processTimerExpired(inst *instance, gen uint64) bool {
	// A stale expiry lost the race against a signal that was enqueued
	// before it; the generation check makes losing explicit.
	if gen != inst.timerGen {
		return false
	}

	state := inst.currentState()
	if state != orderDomain.StateAwaitingReview {
		return false
	}

	o.appendEvent(o.ctx, inst.orderID, orderDomain.EventTimerFired, map[string]any{
		"window": o.config.ReviewWindow.String(),
	})

	inst.setState(orderDomain.StateReviewTimedOut, "manual review window elapsed")
	o.persist(inst)
	return true
}

func (o *Orchestrator) processResume(inst *instance) bool {
	state := inst.currentState()
	o.appendEvent(o.ctx, inst.orderID, orderDomain.EventOrderResumed, map[string]any{
		"state": string(state),
	})

	switch state {
	case orderDomain.StateReceived, orderDomain.StateAwaitingReview:
		o.prepare(inst)
		inst.setState(orderDomain.StateAwaitingReview, "")
		o.persist(inst)
		o.armTimer(inst)
		return false

	case orderDomain.StateCharging:
		// The charge protocol's ledger makes re-entry safe: a previous
		// attempt that completed is detected, one that crashed mid-call
		// is re-attempted.
		o.prepare(inst)
		if !inst.valid {
			inst.setState(orderDomain.StateFailed, inst.validationErr)
			o.persist(inst)
			return true
		}
		return o.runCharge(inst)

	case orderDomain.StateShippingStarted:
		// The shipping handoff row is durable; only the final hop was lost.
		inst.setState(orderDomain.StateCompleted, "")
		o.persist(inst)
		return true

	default:
		return state.Terminal()
	}
}

// runCharge performs the charge step and, on success, the atomic shipping
// handoff. Returns true when the order reached a terminal state.
func (o *Orchestrator) runCharge(inst *instance) bool {
	amount := orderDomain.TotalCents(inst.items)

	err := o.executor.Execute(o.ctx, inst.orderID, stepCharge, func(ctx context.Context) error {
		_, chargeErr := o.charger.Charge(ctx, inst.paymentID, inst.orderID, amount)
		return chargeErr
	})
	if err != nil {
		if apperrors.Is(err, context.Canceled) {
			// Shutdown interrupted the charge; the persisted Charging
			// state makes the next boot resume it.
			return false
		}
		inst.setState(orderDomain.StatePaymentFailed, err.Error())
		o.persist(inst)
		return true
	}

	if err := o.enqueueShipping(inst); err != nil {
		if apperrors.Is(err, context.Canceled) {
			return false
		}
		inst.setState(orderDomain.StateFailed, "failed to start shipping: "+err.Error())
		o.persist(inst)
		return true
	}

	inst.setState(orderDomain.StateCompleted, "")
	o.persist(inst)
	return true
}

// enqueueShipping advances the order to shipping-started and inserts the
// shipping request in one transaction, so a crash can never strand a paid
// order without its handoff row.
func (o *Orchestrator) enqueueShipping(inst *instance) error {
	requestID := uuid.Must(uuid.NewV7())
	now := o.clock.Now()

	inst.setState(orderDomain.StateShippingStarted, "")

	var address orderDomain.Address
	inst.snapMu.RLock()
	if inst.address != nil {
		address = *inst.address
	}
	inst.snapMu.RUnlock()

	return o.txManager.WithTx(o.ctx, func(ctx context.Context) error {
		if err := o.orderRepo.Upsert(ctx, inst.order(now)); err != nil {
			return err
		}

		request := &shippingDomain.ShippingRequest{
			ID:      requestID,
			OrderID: inst.orderID,
			Address: address,
			Status:  shippingDomain.StatusPending,
		}
		if err := o.shippingRepo.Create(ctx, request); err != nil {
			return err
		}

		return o.eventRepo.Append(ctx, &orderDomain.Event{
			OrderID: inst.orderID,
			Type:    orderDomain.EventShippingEnqueued,
			Payload: map[string]any{
				"shipping_request_id": requestID.String(),
			},
			CreatedAt: now,
		})
	})
}

// armTimer schedules the review expiry. The callback only enqueues a
// message; the worker decides whether the expiry still counts.
func (o *Orchestrator) armTimer(inst *instance) {
	inst.timerGen++
	gen := inst.timerGen
	inst.timer = time.AfterFunc(o.config.ReviewWindow, func() {
		o.enqueue(inst, message{kind: msgTimerExpired, gen: gen})
	})
}

// cancelTimer invalidates any in-flight expiry for the current window.
func (o *Orchestrator) cancelTimer(inst *instance) {
	if inst.timer == nil {
		return
	}
	if inst.timer.Stop() {
		o.appendEvent(o.ctx, inst.orderID, orderDomain.EventTimerCancelled, nil)
	}
	inst.timer = nil
	inst.timerGen++
}

// finish tears down a terminal instance: it stops accepting messages, drains
// stragglers, and schedules removal after the grace period.
func (o *Orchestrator) finish(inst *instance) {
	o.metrics.RecordTerminalState(o.ctx, string(inst.currentState()))

	if inst.timer != nil {
		inst.timer.Stop()
		inst.timer = nil
	}
	inst.timerGen++

	inst.sendMu.Lock()
	inst.stopped = true
	inst.sendMu.Unlock()

	for {
		select {
		case msg := <-inst.mailbox:
			o.dropMessage(inst, msg)
		default:
			if o.config.TerminalGracePeriod > 0 {
				time.AfterFunc(o.config.TerminalGracePeriod, func() {
					o.remove(inst.orderID)
				})
			} else {
				o.remove(inst.orderID)
			}
			return
		}
	}
}

// persist writes the durable snapshot. Failures are logged and the lifecycle
// keeps going; the next transition retries the write.
func (o *Orchestrator) persist(inst *instance) {
	if err := o.orderRepo.Upsert(o.ctx, inst.order(o.clock.Now())); err != nil && o.logger != nil {
		o.logger.Error("failed to persist order snapshot",
			slog.String("order_id", inst.orderID),
			slog.String("state", string(inst.currentState())),
			slog.Any("error", err),
		)
	}
}

func (o *Orchestrator) appendEvent(
	ctx context.Context,
	orderID string,
	eventType orderDomain.EventType,
	payload map[string]any,
) {
	event := &orderDomain.Event{
		OrderID:   orderID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: o.clock.Now(),
	}
	if err := o.eventRepo.Append(ctx, event); err != nil && o.logger != nil {
		o.logger.Error("failed to append lifecycle event",
			slog.String("order_id", orderID),
			slog.String("type", string(eventType)),
			slog.Any("error", err),
		)
	}
}
