package elevator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/szymonmasternak/area51-elevator/internal/completion"
	"github.com/szymonmasternak/area51-elevator/internal/elevaccess"
	"github.com/szymonmasternak/area51-elevator/internal/elevcall"
	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/elevevent"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
	"github.com/szymonmasternak/area51-elevator/internal/logger"
)

const (
	TEST_TIME_ON_FLOOR = 2 * time.Millisecond
	TEST_IDLE_TICK     = time.Millisecond
	TEST_TIMEOUT       = 5 * time.Second
)

type testPassenger struct {
	name      string
	clearance elevconsts.Clearance
}

func (p *testPassenger) Name() string                    { return p.name }
func (p *testPassenger) Clearance() elevconsts.Clearance { return p.clearance }

type recorder struct {
	mu     sync.Mutex
	events []elevevent.ElevatorEvent
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 1)}
}

func (r *recorder) observe(event elevevent.ElevatorEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recorder) snapshot() []elevevent.ElevatorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]elevevent.ElevatorEvent, len(r.events))
	copy(events, r.events)
	return events
}

func (r *recorder) waitFor(target any, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if indexOfEvent(r.snapshot(), target, 0) != -1 {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline:
			return false
		}
	}
}

func indexOfEvent(events []elevevent.ElevatorEvent, target any, from int) int {
	for i := from; i < len(events); i++ {
		if events[i].Value == target {
			return i
		}
	}
	return -1
}

// checks order of events
func checkOrder(t *testing.T, actual []elevevent.ElevatorEvent, expected ...any) {
	t.Helper()
	next := 0
	for _, target := range expected {
		idx := indexOfEvent(actual, target, next)
		if idx == -1 {
			t.Errorf("Expected event %+v in order but not found in actual sequence: %+v", target, actual)
			return
		}
		next = idx + 1
	}
}

func newTestElevator(t *testing.T, timeOnFloor time.Duration, observer func(elevevent.ElevatorEvent)) *Elevator {
	t.Helper()
	_ = logger.GetLoggerConfigured(zerolog.Disabled)

	floors, err := floorset.New(elevconsts.GroundFloor, elevconsts.NuclearFloor, elevconsts.ExperimentalFloor, elevconsts.AlienFloor)
	if err != nil {
		t.Fatalf("floorset.New() returned error %v", err)
	}
	policy, err := elevaccess.DefaultPolicy(floors)
	if err != nil {
		t.Fatalf("DefaultPolicy() returned error %v", err)
	}

	elev, err := NewElevator(Settings{
		Floors:      floors,
		Policy:      policy,
		TimeOnFloor: timeOnFloor,
		IdleTick:    TEST_IDLE_TICK,
		Observer:    observer,
	})
	if err != nil {
		t.Fatalf("NewElevator() returned error %v", err)
	}
	return elev
}

func fixedFloor(floor floorset.Floor) func() floorset.Floor {
	return func() floorset.Floor { return floor }
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TEST_TIMEOUT)
	t.Cleanup(cancel)
	return ctx
}

func stopAndWait(t *testing.T, elev *Elevator) {
	t.Helper()
	elev.Stop()
	select {
	case <-elev.Done():
	case <-time.After(TEST_TIMEOUT):
		t.Fatalf("Elevator did not shut down")
	}
}

func TestNewElevatorValidation(t *testing.T) {
	floors, _ := floorset.New("G", "S", "T1", "T2")
	policy, _ := elevaccess.DefaultPolicy(floors)

	if _, err := NewElevator(Settings{Policy: policy}); err == nil {
		t.Errorf("NewElevator() without floors returned nil error")
	}
	if _, err := NewElevator(Settings{Floors: floors}); err == nil {
		t.Errorf("NewElevator() without policy returned nil error")
	}
	if _, err := NewElevator(Settings{Floors: floors, Policy: policy, TimeOnFloor: -time.Second}); err == nil {
		t.Errorf("NewElevator() with negative time on floor returned nil error")
	}
}

func TestLifecycle(t *testing.T) {
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, nil)

	if elev.Status() != elevconsts.Closed {
		t.Errorf("Expected status %v before Start(), got %v", elevconsts.Closed, elev.Status())
	}
	elev.Start()
	elev.Start()
	if elev.Status() != elevconsts.Waiting {
		t.Errorf("Expected status %v after Start(), got %v", elevconsts.Waiting, elev.Status())
	}
	stopAndWait(t, elev)
	if elev.Status() != elevconsts.Closed {
		t.Errorf("Expected status %v after Stop(), got %v", elevconsts.Closed, elev.Status())
	}
}

// Single confidential agent at G asks for S: it is taken to S, refused,
// brought back to G and S is queued again at the front.
func TestAccessDeniedScenario(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, rec.observe)
	smith := &testPassenger{"Smith", elevconsts.Confidential}
	ctx := testContext(t)

	handle := elev.Call("G", smith, fixedFloor("S"))
	elev.Start()

	outcome, err := handle.Wait(ctx)
	if err != nil {
		t.Fatalf("ride Wait() returned error %v", err)
	}
	if outcome.Kind != elevcall.Denied || outcome.Floor != "S" || outcome.Leave == nil {
		t.Fatalf("Expected denial at S with a leave handle, got %+v", outcome)
	}

	floor, err := outcome.Leave.Wait(ctx)
	if err != nil || floor != "G" {
		t.Errorf("leave Wait() = %v, %v, expected G, nil", floor, err)
	}

	if !rec.waitFor(elevevent.ArrivalEvent{Floor: "S"}, TEST_TIMEOUT) {
		t.Fatalf("Rebooked call to S was never served")
	}
	stopAndWait(t, elev)

	checkOrder(t, rec.snapshot(),
		elevevent.BoardEvent{Agent: "Smith", Floor: "G", Destination: "S"},
		elevevent.ButtonPressEvent{Floor: "S"},
		elevevent.TravelEvent{From: "G", To: "S"},
		elevevent.AccessDeniedEvent{Agent: "Smith", Floor: "S", Origin: "G"},
		elevevent.TravelEvent{From: "S", To: "G"},
		elevevent.ReturnEvent{Agent: "Smith", Floor: "G"},
		elevevent.ButtonPressEvent{Floor: "S", Priority: true},
		elevevent.TravelEvent{From: "G", To: "S"},
		elevevent.ArrivalEvent{Floor: "S"},
	)

	for _, event := range rec.snapshot() {
		if disembark, ok := event.Value.(elevevent.DisembarkEvent); ok {
			t.Errorf("Unexpected disembark %+v", disembark)
		}
	}
}

// A call being served when someone aboard is refused must wait for the retry
// stop and board there instead of being dropped.
func TestCallInterruptedByDenialIsServed(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, rec.observe)
	ctx := testContext(t)

	smithHandle := elev.Call("G", &testPassenger{"Smith", elevconsts.Confidential}, fixedFloor("S"))
	jonesHandle := elev.Call("S", &testPassenger{"Jones", elevconsts.TopSecret}, fixedFloor("T2"))
	elev.Start()

	smithOutcome, err := smithHandle.Wait(ctx)
	if err != nil || smithOutcome.Kind != elevcall.Denied {
		t.Fatalf("Smith outcome = %+v, %v, expected denial", smithOutcome, err)
	}
	jonesOutcome, err := jonesHandle.Wait(ctx)
	if err != nil || jonesOutcome.Kind != elevcall.Arrived || jonesOutcome.Floor != "T2" {
		t.Errorf("Jones outcome = %+v, %v, expected arrival at T2", jonesOutcome, err)
	}
	stopAndWait(t, elev)

	checkOrder(t, rec.snapshot(),
		elevevent.AccessDeniedEvent{Agent: "Smith", Floor: "S", Origin: "G"},
		elevevent.ReturnEvent{Agent: "Smith", Floor: "G"},
		elevevent.ArrivalEvent{Floor: "S"},
		elevevent.BoardEvent{Agent: "Jones", Floor: "S", Destination: "T2"},
		elevevent.DisembarkEvent{Agent: "Jones", Floor: "T2"},
	)
}

func TestStopAfterDenialFailsInterruptedCall(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, 200*time.Millisecond, rec.observe)
	ctx := testContext(t)

	smithHandle := elev.Call("G", &testPassenger{"Smith", elevconsts.Confidential}, fixedFloor("S"))
	jonesHandle := elev.Call("S", &testPassenger{"Jones", elevconsts.TopSecret}, fixedFloor("T2"))
	elev.Start()

	if outcome, err := smithHandle.Wait(ctx); err != nil || outcome.Kind != elevcall.Denied {
		t.Fatalf("Smith outcome = %+v, %v, expected denial", outcome, err)
	}
	stopAndWait(t, elev)

	if _, err := jonesHandle.Wait(ctx); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("interrupted call error = %v, expected %v", err, elevcall.ErrClosed)
	}

	discards := 0
	for _, event := range rec.snapshot() {
		if event.Value == (elevevent.DiscardEvent{Agent: "Jones", Floor: "S"}) {
			discards++
		}
	}
	if discards != 1 {
		t.Errorf("Expected one discard for Jones, got %d", discards)
	}
}

// Passengers leaving at the same stop are taken off the roster one by one.
func TestDisembarkKeepsRosterInStep(t *testing.T) {
	var elev *Elevator
	var mismatches []string
	observer := func(event elevevent.ElevatorEvent) {
		ev, ok := event.Value.(elevevent.DisembarkEvent)
		if !ok {
			return
		}
		for _, call := range elev.roster {
			if call.Passenger().Name() == ev.Agent {
				mismatches = append(mismatches, ev.Agent+" still aboard after leaving")
			}
		}
		if len(elev.roster) == 0 && ev.Agent == "Jones" {
			mismatches = append(mismatches, "Lazar left before being reported")
		}
	}
	elev = newTestElevator(t, TEST_TIME_ON_FLOOR, observer)
	ctx := testContext(t)

	jones := elev.Call("G", &testPassenger{"Jones", elevconsts.TopSecret}, fixedFloor("T1"))
	lazar := elev.Call("G", &testPassenger{"Lazar", elevconsts.TopSecret}, fixedFloor("T1"))
	elev.Start()

	for _, handle := range []*completion.Handle[elevcall.Outcome]{jones, lazar} {
		if outcome, err := handle.Wait(ctx); err != nil || outcome.Floor != "T1" {
			t.Errorf("outcome = %+v, %v, expected arrival at T1", outcome, err)
		}
	}
	stopAndWait(t, elev)

	for _, mismatch := range mismatches {
		t.Error(mismatch)
	}
}

type badgePassenger struct {
	name   string
	badges []string
}

func (p badgePassenger) Name() string                    { return p.name }
func (p badgePassenger) Clearance() elevconsts.Clearance { return elevconsts.TopSecret }

func TestValuePassengersBoardTogether(t *testing.T) {
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, nil)
	ctx := testContext(t)

	first := elev.Call("G", badgePassenger{"Jones", []string{"red"}}, fixedFloor("T1"))
	second := elev.Call("G", badgePassenger{"Lazar", []string{"blue"}}, fixedFloor("T2"))
	elev.Start()

	for _, handle := range []*completion.Handle[elevcall.Outcome]{first, second} {
		if outcome, err := handle.Wait(ctx); err != nil || outcome.Kind != elevcall.Arrived {
			t.Errorf("outcome = %+v, %v, expected arrival", outcome, err)
		}
	}
	stopAndWait(t, elev)
}

// Two agents waiting at G board in one stop and press their buttons in order.
func TestTwoAgentsBoardAtSameStop(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, rec.observe)
	jones := &testPassenger{"Jones", elevconsts.TopSecret}
	lazar := &testPassenger{"Lazar", elevconsts.TopSecret}
	ctx := testContext(t)

	jonesHandle := elev.Call("G", jones, fixedFloor("T1"))
	lazarHandle := elev.Call("G", lazar, fixedFloor("T2"))
	elev.Start()

	jonesOutcome, err := jonesHandle.Wait(ctx)
	if err != nil || jonesOutcome.Kind != elevcall.Arrived || jonesOutcome.Floor != "T1" {
		t.Errorf("Jones outcome = %+v, %v, expected arrival at T1", jonesOutcome, err)
	}
	lazarOutcome, err := lazarHandle.Wait(ctx)
	if err != nil || lazarOutcome.Kind != elevcall.Arrived || lazarOutcome.Floor != "T2" {
		t.Errorf("Lazar outcome = %+v, %v, expected arrival at T2", lazarOutcome, err)
	}
	stopAndWait(t, elev)

	events := rec.snapshot()
	checkOrder(t, events,
		elevevent.ArrivalEvent{Floor: "G"},
		elevevent.BoardEvent{Agent: "Jones", Floor: "G", Destination: "T1"},
		elevevent.BoardEvent{Agent: "Lazar", Floor: "G", Destination: "T2"},
		elevevent.ButtonPressEvent{Floor: "T1"},
		elevevent.ButtonPressEvent{Floor: "T2"},
		elevevent.DoorsClosingEvent{Floor: "G"},
		elevevent.DisembarkEvent{Agent: "Jones", Floor: "T1"},
		elevevent.DisembarkEvent{Agent: "Lazar", Floor: "T2"},
	)

	arrivalsAtG := 0
	for _, event := range events {
		if event.Value == (elevevent.ArrivalEvent{Floor: "G"}) {
			arrivalsAtG++
		}
	}
	if arrivalsAtG != 1 {
		t.Errorf("Expected one stop at G, got %d", arrivalsAtG)
	}
}

func TestCallsServedInQueueOrder(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, rec.observe)
	ctx := testContext(t)

	first := elev.Call("T1", &testPassenger{"Smith", elevconsts.TopSecret}, fixedFloor("G"))
	second := elev.Call("S", &testPassenger{"Jones", elevconsts.TopSecret}, fixedFloor("G"))
	elev.Start()

	for _, handle := range []*completion.Handle[elevcall.Outcome]{first, second} {
		if outcome, err := handle.Wait(ctx); err != nil || outcome.Floor != "G" {
			t.Errorf("outcome = %+v, %v, expected arrival at G", outcome, err)
		}
	}
	stopAndWait(t, elev)

	var arrivals []floorset.Floor
	for _, event := range rec.snapshot() {
		if arrival, ok := event.Value.(elevevent.ArrivalEvent); ok {
			arrivals = append(arrivals, arrival.Floor)
		}
	}
	if len(arrivals) < 3 || arrivals[0] != "T1" || arrivals[1] != "S" || arrivals[2] != "G" {
		t.Errorf("Expected stops T1, S, G first, got %v", arrivals)
	}
}

func TestStopWhileCallQueued(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, time.Hour, rec.observe)
	ctx := testContext(t)

	inFlight := elev.Call("T2", &testPassenger{"Smith", elevconsts.TopSecret}, fixedFloor("G"))
	elev.Start()
	if !rec.waitFor(elevevent.TravelEvent{From: "G", To: "T2"}, TEST_TIMEOUT) {
		t.Fatalf("Elevator never left for T2")
	}

	chooserRuns := 0
	queued := elev.Call("S", &testPassenger{"Jones", elevconsts.TopSecret}, func() floorset.Floor {
		chooserRuns++
		return "G"
	})
	stopAndWait(t, elev)

	if _, err := inFlight.Wait(ctx); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("in-flight call error = %v, expected %v", err, elevcall.ErrClosed)
	}
	if _, err := queued.Wait(ctx); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("queued call error = %v, expected %v", err, elevcall.ErrClosed)
	}
	if chooserRuns != 0 {
		t.Errorf("Destination chooser of the unserved call ran %d times", chooserRuns)
	}

	events := rec.snapshot()
	if indexOfEvent(events, elevevent.TravelEvent{From: "G", To: "S"}, 0) != -1 {
		t.Errorf("Elevator travelled for a call queued before Stop(): %+v", events)
	}
	checkOrder(t, events,
		elevevent.DiscardEvent{Agent: "Smith", Floor: "T2"},
		elevevent.DiscardEvent{Agent: "Jones", Floor: "S"},
	)
	if elev.State.Floor() != "G" {
		t.Errorf("Expected elevator to stay at G, got %v", elev.State.Floor())
	}
}

func TestStopEvictsPassengers(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, time.Hour, rec.observe)
	ctx := testContext(t)

	handle := elev.Call("G", &testPassenger{"Lazar", elevconsts.TopSecret}, fixedFloor("T2"))
	elev.Start()
	if !rec.waitFor(elevevent.TravelEvent{From: "G", To: "T2"}, TEST_TIMEOUT) {
		t.Fatalf("Elevator never left for T2")
	}
	stopAndWait(t, elev)

	if _, err := handle.Wait(ctx); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("ride error = %v, expected %v", err, elevcall.ErrClosed)
	}
	checkOrder(t, rec.snapshot(),
		elevevent.BoardEvent{Agent: "Lazar", Floor: "G", Destination: "T2"},
		elevevent.EvictEvent{Agent: "Lazar"},
		elevevent.DiscardEvent{Floor: "T2"},
	)
}

func TestStopDuringReturnFailsLeaveHandle(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, 200*time.Millisecond, rec.observe)
	ctx := testContext(t)

	handle := elev.Call("G", &testPassenger{"Smith", elevconsts.Confidential}, fixedFloor("S"))
	elev.Start()

	outcome, err := handle.Wait(ctx)
	if err != nil || outcome.Kind != elevcall.Denied {
		t.Fatalf("ride outcome = %+v, %v, expected denial", outcome, err)
	}
	stopAndWait(t, elev)

	if _, err := outcome.Leave.Wait(ctx); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("leave error = %v, expected %v", err, elevcall.ErrClosed)
	}
	if settled, err := handle.Result(); err != nil || settled.Kind != elevcall.Denied {
		t.Errorf("ride result changed to %+v, %v after Stop()", settled, err)
	}
	checkOrder(t, rec.snapshot(),
		elevevent.AccessDeniedEvent{Agent: "Smith", Floor: "S", Origin: "G"},
		elevevent.EvictEvent{Agent: "Smith"},
	)
}

func TestStopIsIdempotent(t *testing.T) {
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, nil)
	elev.Start()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			elev.Stop()
		}()
	}
	wg.Wait()
	stopAndWait(t, elev)

	if elev.Status() != elevconsts.Closed {
		t.Errorf("Expected status %v, got %v", elevconsts.Closed, elev.Status())
	}
	handle := elev.Call("G", &testPassenger{"Smith", elevconsts.TopSecret}, fixedFloor("S"))
	if _, err := handle.Result(); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("Call() after Stop() error = %v, expected %v", err, elevcall.ErrClosed)
	}
}

func TestStopBeforeStart(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, rec.observe)

	handle := elev.Call("S", &testPassenger{"Jones", elevconsts.Secret}, fixedFloor("G"))
	stopAndWait(t, elev)
	elev.Start()

	if _, err := handle.Result(); !errors.Is(err, elevcall.ErrClosed) {
		t.Errorf("queued call error = %v, expected %v", err, elevcall.ErrClosed)
	}
	if elev.Status() != elevconsts.Closed {
		t.Errorf("Start() after Stop() reopened the elevator: %v", elev.Status())
	}
	checkOrder(t, rec.snapshot(), elevevent.DiscardEvent{Agent: "Jones", Floor: "S"})
}

func TestInvalidCallsAreRejected(t *testing.T) {
	rec := newRecorder()
	elev := newTestElevator(t, TEST_TIME_ON_FLOOR, rec.observe)
	ctx := testContext(t)
	smith := &testPassenger{"Smith", elevconsts.TopSecret}

	unknown := elev.Call("B1", smith, fixedFloor("G"))
	if _, err := unknown.Result(); !errors.Is(err, floorset.ErrUnknownFloor) {
		t.Errorf("Call() from an unknown floor error = %v, expected %v", err, floorset.ErrUnknownFloor)
	}

	sameFloor := elev.Call("G", smith, fixedFloor("G"))
	offMap := elev.Call("S", &testPassenger{"Jones", elevconsts.TopSecret}, fixedFloor("B7"))
	valid := elev.Call("T1", &testPassenger{"Lazar", elevconsts.TopSecret}, fixedFloor("G"))
	elev.Start()

	if _, err := sameFloor.Wait(ctx); !errors.Is(err, elevcall.ErrInvalidDestination) {
		t.Errorf("same floor destination error = %v, expected %v", err, elevcall.ErrInvalidDestination)
	}
	if _, err := offMap.Wait(ctx); !errors.Is(err, elevcall.ErrInvalidDestination) {
		t.Errorf("unknown destination error = %v, expected %v", err, elevcall.ErrInvalidDestination)
	}
	if outcome, err := valid.Wait(ctx); err != nil || outcome.Floor != "G" {
		t.Errorf("valid call outcome = %+v, %v, expected arrival at G", outcome, err)
	}
	stopAndWait(t, elev)
}

// Several passengers ride at random until the elevator closes. The roster must
// never hold anyone twice, must match who boarded and has not left, and nobody
// may get off on a floor their clearance forbids.
func TestRandomRidesKeepInvariants(t *testing.T) {
	var elev *Elevator
	var policy *elevaccess.Policy
	passengers := map[string]*testPassenger{
		"Smith":  {"Smith", elevconsts.Confidential},
		"Jones":  {"Jones", elevconsts.Confidential},
		"Lazar":  {"Lazar", elevconsts.Secret},
		"Hopper": {"Hopper", elevconsts.TopSecret},
	}

	var violations []string
	aboard := make(map[string]bool)
	observer := func(event elevevent.ElevatorEvent) {
		switch ev := event.Value.(type) {
		case elevevent.BoardEvent:
			aboard[ev.Agent] = true
		case elevevent.DisembarkEvent:
			delete(aboard, ev.Agent)
			if !policy.Allowed(passengers[ev.Agent].clearance, ev.Floor) {
				violations = append(violations, ev.Agent+" got off at "+string(ev.Floor))
			}
		case elevevent.ReturnEvent:
			delete(aboard, ev.Agent)
		case elevevent.EvictEvent:
			delete(aboard, ev.Agent)
		}

		seen := make(map[string]bool)
		for _, call := range elev.roster {
			name := call.Passenger().Name()
			if seen[name] {
				violations = append(violations, name+" twice in roster")
			}
			seen[name] = true
		}
		if len(seen) != len(aboard) {
			violations = append(violations, "roster does not match boarded passengers")
		}
		for name := range aboard {
			if !seen[name] {
				violations = append(violations, name+" boarded but missing from roster")
			}
		}
	}

	elev = newTestElevator(t, TEST_TIME_ON_FLOOR, observer)
	policy = elev.policy
	elev.Start()

	var wg sync.WaitGroup
	results := make(chan error, len(passengers))
	for _, passenger := range passengers {
		wg.Add(1)
		go func(p *testPassenger) {
			defer wg.Done()
			results <- ridePassenger(elev, p)
		}(passenger)
	}

	time.Sleep(300 * time.Millisecond)
	elev.Stop()
	elev.Wait()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(TEST_TIMEOUT):
		t.Fatalf("Passengers still waiting after shutdown")
	}
	close(results)

	for err := range results {
		if !errors.Is(err, elevcall.ErrClosed) {
			t.Errorf("passenger stopped with %v, expected %v", err, elevcall.ErrClosed)
		}
	}
	for _, violation := range violations {
		t.Error(violation)
	}
	if len(elev.roster) != 0 {
		t.Errorf("roster not empty after shutdown: %d", len(elev.roster))
	}
}

func ridePassenger(elev *Elevator, p *testPassenger) error {
	floors := elev.Floors()
	current := floors.Base()
	step := 0
	for {
		others := floors.Others(current)
		destination := others[step%len(others)]
		step++

		outcome, err := elev.Call(current, p, fixedFloor(destination)).Wait(context.Background())
		if err != nil {
			return err
		}
		switch outcome.Kind {
		case elevcall.Arrived:
			current = outcome.Floor
		case elevcall.Denied:
			if current, err = outcome.Leave.Wait(context.Background()); err != nil {
				return err
			}
		}
	}
}
