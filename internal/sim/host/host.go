package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

var (
	ErrStopped   = errors.New("host stopped")
	ErrBadOp     = errors.New("unknown op")
	ErrNoSnapDir = errors.New("no snapshot directory configured")
)

const (
	OpAddWorker  = village.OpAddWorker
	OpAddProject = village.OpAddProject
	OpDay        = "day"
	OpState      = "state"
)

// MaxDaysPerCommand bounds a single day command.
const MaxDaysPerCommand = 10000

type Command struct {
	Op         string
	Name       string
	Occupation string
	// Days is the number of days an OpDay command advances; 0 means 1.
	Days int
}

type Result struct {
	Accepted bool
	// Err is the rejection reason of an add command.
	Err     error
	Reports []village.DayReport
	State   State
}

type Config struct {
	// DayInterval advances one day per interval. Zero disables the clock and
	// days only advance through OpDay.
	DayInterval time.Duration

	SnapshotDir   string
	SnapshotEvery int

	// OnSnapshot is called from the host goroutine after every snapshot write.
	OnSnapshot func(path string, snap snapshot.SnapshotV1)

	Logger *log.Logger
}

// Host serializes all access to one Village on its own goroutine.
type Host struct {
	v   *village.Village
	cfg Config
	log *log.Logger

	inbox   chan request
	snapReq chan snapRequest
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once

	subsMu sync.Mutex
	nextID int
	subs   map[int]chan State
}

type request struct {
	cmd   Command
	reply chan Result
}

type snapRequest struct {
	reply chan snapReply
}

type snapReply struct {
	path string
	err  error
}

func New(v *village.Village, cfg Config) *Host {
	l := cfg.Logger
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Host{
		v:       v,
		cfg:     cfg,
		log:     l,
		inbox:   make(chan request, 64),
		snapReq: make(chan snapRequest, 4),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		subs:    map[int]chan State{},
	}
}

// Village returns the hosted village. Only safe to touch after Run returned.
func (h *Host) Village() *village.Village { return h.v }

// Run owns the village until ctx is done or Stop is called.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.stopped)

	var clock <-chan time.Time
	if h.cfg.DayInterval > 0 {
		t := time.NewTicker(h.cfg.DayInterval)
		defer t.Stop()
		clock = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case req := <-h.inbox:
			req.reply <- h.apply(req.cmd)
		case req := <-h.snapReq:
			path, err := h.writeSnapshot()
			req.reply <- snapReply{path: path, err: err}
		case <-clock:
			if h.v.GameOver() {
				continue
			}
			h.advance(1)
		}
	}
}

func (h *Host) Stop() { h.once.Do(func() { close(h.stop) }) }

// Submit delivers cmd to the host goroutine and waits for its result.
func (h *Host) Submit(ctx context.Context, cmd Command) (Result, error) {
	req := request{cmd: cmd, reply: make(chan Result, 1)}
	select {
	case h.inbox <- req:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-h.stopped:
		return Result{}, ErrStopped
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-h.stopped:
		return Result{}, ErrStopped
	}
}

// Snapshot asks the host goroutine to write a snapshot and returns its path.
func (h *Host) Snapshot(ctx context.Context) (string, error) {
	req := snapRequest{reply: make(chan snapReply, 1)}
	select {
	case h.snapReq <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-h.stopped:
		return "", ErrStopped
	}
	select {
	case r := <-req.reply:
		return r.path, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-h.stopped:
		return "", ErrStopped
	}
}

// FinalSnapshot writes a snapshot directly. Call it only after Run returned.
func (h *Host) FinalSnapshot() (string, error) {
	return h.writeSnapshot()
}

func (h *Host) apply(cmd Command) Result {
	switch cmd.Op {
	case OpAddWorker:
		err := h.v.Admit(cmd.Name, cmd.Occupation)
		return Result{Accepted: err == nil, Err: err, State: StateOf(h.v)}
	case OpAddProject:
		err := h.v.Commission(cmd.Name)
		return Result{Accepted: err == nil, Err: err, State: StateOf(h.v)}
	case OpDay:
		if h.v.GameOver() {
			return Result{Err: village.ErrGameOver, State: StateOf(h.v)}
		}
		n := cmd.Days
		if n <= 0 {
			n = 1
		}
		n = min(n, MaxDaysPerCommand)
		reps := h.advance(n)
		return Result{Accepted: true, Reports: reps, State: StateOf(h.v)}
	case OpState:
		return Result{Accepted: true, State: StateOf(h.v)}
	default:
		return Result{Err: fmt.Errorf("%w: %q", ErrBadOp, cmd.Op), State: StateOf(h.v)}
	}
}

// advance runs up to n days, stopping early at game over.
func (h *Host) advance(n int) []village.DayReport {
	reps := make([]village.DayReport, 0, n)
	for i := 0; i < n; i++ {
		rep := h.v.Day()
		if rep.Skipped {
			break
		}
		reps = append(reps, rep)
		periodic := h.cfg.SnapshotEvery > 0 && h.v.DaysGone()%h.cfg.SnapshotEvery == 0
		if h.cfg.SnapshotDir != "" && (periodic || rep.GameOver) {
			if _, err := h.writeSnapshot(); err != nil {
				h.log.Printf("snapshot day=%d: %v", h.v.DaysGone(), err)
			}
		}
		if rep.GameOver {
			h.log.Printf("game over day=%d outcome=%s", rep.Day, rep.Outcome)
			break
		}
	}
	if len(reps) > 0 {
		h.broadcast(StateOf(h.v))
	}
	return reps
}

func (h *Host) writeSnapshot() (string, error) {
	if h.cfg.SnapshotDir == "" {
		return "", ErrNoSnapDir
	}
	snap := h.v.ExportSnapshot()
	if err := os.MkdirAll(h.cfg.SnapshotDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.cfg.SnapshotDir, snapshot.FileName(snap.Header.Day))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	if h.cfg.OnSnapshot != nil {
		h.cfg.OnSnapshot(path, snap)
	}
	return path, nil
}

// Subscribe returns a channel that receives the village state after every
// day. Slow subscribers miss updates rather than stall the host.
func (h *Host) Subscribe() (int, <-chan State) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	h.nextID++
	ch := make(chan State, 8)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

func (h *Host) Unsubscribe(id int) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Host) broadcast(s State) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
