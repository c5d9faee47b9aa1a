package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelforge.dev/internal/persistence/indexdb"
	persistlog "voxelforge.dev/internal/persistence/log"
	"voxelforge.dev/internal/persistence/snapshot"
	"voxelforge.dev/internal/sim/tuning"
	"voxelforge.dev/internal/sim/world"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
	"voxelforge.dev/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed override (0 keeps the tuning value)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the SQLite run index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune, _ = tuning.Load("")
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	// Optional read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	w, err := world.New(tune, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		latest, err := snapshot.LatestPath(filepath.Join(worldDir, "snapshots"))
		if err != nil {
			logger.Fatalf("scan snapshots: %v", err)
		}
		snapshotToLoad = latest
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		if err := w.RestoreSnapshot(snap); err != nil {
			logger.Fatalf("restore snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d chunks=%d", filepath.Base(snapshotToLoad), w.CurrentTick(), w.LoadedChunks())
	}

	editJournal := persistlog.NewEditJournal(worldDir)
	defer editJournal.Close()
	w.SetEditSink(multiEditSink{a: editJournal, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	obsSrv := observer.NewServer(w, logger)

	// Snapshot writer. Export happens on the tick goroutine; compression and
	// disk io happen here.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.SnapshotPath(filepath.Join(worldDir, "snapshots"), snap.Header.Tick)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				logger.Printf("snapshot written: %s (%d chunks)", filepath.Base(path), len(snap.Chunks))
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	loop := &tickLoop{
		world:    w,
		worldID:  *worldID,
		tune:     tune,
		obs:      obsSrv,
		idx:      idx,
		snapCh:   snapCh,
		log:      logger,
		commands: make(chan command, 256),
	}
	go loop.run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	// Local-only control endpoints: move the observer, apply edits, force a
	// snapshot. All mutation is forwarded to the tick goroutine.
	mux.HandleFunc("/admin/v1/observer", loop.moveHandler())
	mux.HandleFunc("/admin/v1/edit", loop.editHandler())
	mux.HandleFunc("/admin/v1/snapshot", loop.snapshotHandler())

	if envBool("VF_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (world=%s seed=%d)", *addr, *worldID, tune.Seed)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

type multiEditSink struct {
	a world.EditSink
	b world.EditSink
}

func (m multiEditSink) WriteEdit(entry world.EditLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteEdit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteEdit(entry)
	}
	return nil
}

type commandKind int

const (
	cmdMove commandKind = iota + 1
	cmdEdit
	cmdSnapshot
)

type command struct {
	kind commandKind

	pos  mathx.Vec3
	edit editRequest

	reply chan commandResult
}

type commandResult struct {
	Delta map[string]int `json:"delta,omitempty"`
	Tick  uint64         `json:"tick"`
	Err   string         `json:"error,omitempty"`
}

type editRequest struct {
	Op           string     `json:"op"` // "sphere" | "cube" | "smooth"
	Center       [3]float64 `json:"center"`
	Radius       float64    `json:"radius,omitempty"`
	Half         [3]float64 `json:"half,omitempty"`
	YawPitchRoll [3]float64 `json:"yaw_pitch_roll,omitempty"`
	Strength     float32    `json:"strength"`
	Material     string     `json:"material,omitempty"`
	Falloff      bool       `json:"falloff,omitempty"`
	OneBlockOnly bool       `json:"one_block_only,omitempty"`
	Preview      bool       `json:"preview,omitempty"`
	Progress     float32    `json:"progress,omitempty"`
}

// tickLoop owns the world. Every mutation funnels through commands so the
// sim stays single-threaded.
type tickLoop struct {
	world   *world.World
	worldID string
	tune    tuning.Tuning
	obs     *observer.Server
	idx     *indexdb.SQLiteIndex
	snapCh  chan snapshot.SnapshotV1
	log     *log.Logger

	commands chan command
	observer mathx.Vec3
}

func (l *tickLoop) run(ctx context.Context) {
	interval := time.Second / time.Duration(l.tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

	drain:
		for {
			select {
			case cmd := <-l.commands:
				l.handle(cmd)
			default:
				break drain
			}
		}

		l.world.Tick(l.observer)

		tick := l.world.CurrentTick()
		if l.tune.TelemetryEveryTicks > 0 && tick%uint64(l.tune.TelemetryEveryTicks) == 0 {
			frame := l.world.Telemetry()
			l.obs.Publish(frame)
			if l.idx != nil {
				_ = l.idx.WriteTick(frame)
			}
		}
		if l.tune.SnapshotEveryTicks > 0 && tick%uint64(l.tune.SnapshotEveryTicks) == 0 {
			l.exportSnapshot()
		}
	}
}

func (l *tickLoop) handle(cmd command) {
	res := commandResult{Tick: l.world.CurrentTick()}
	switch cmd.kind {
	case cmdMove:
		l.observer = cmd.pos

	case cmdEdit:
		delta, err := l.applyEdit(cmd.edit)
		if err != nil {
			res.Err = err.Error()
			break
		}
		res.Delta = make(map[string]int, len(delta))
		for m, n := range delta {
			res.Delta[m.String()] = n
		}

	case cmdSnapshot:
		l.exportSnapshot()
	}
	if cmd.reply != nil {
		cmd.reply <- res
	}
}

func (l *tickLoop) applyEdit(req editRequest) (voxel.Delta, error) {
	mat := voxel.Air
	if req.Material != "" {
		m, err := voxel.ParseMaterial(req.Material)
		if err != nil {
			return nil, err
		}
		mat = m
	}
	center := mathx.Vec3{X: req.Center[0], Y: req.Center[1], Z: req.Center[2]}
	opts := world.EditOptions{
		Falloff:      req.Falloff,
		OneBlockOnly: req.OneBlockOnly,
		Preview:      req.Preview,
		Progress:     req.Progress,
	}

	switch req.Op {
	case "sphere":
		if req.Radius <= 0 {
			return nil, fmt.Errorf("sphere edit needs a positive radius")
		}
		return l.world.EditSphere(center, req.Radius, req.Strength, mat, opts), nil
	case "cube":
		half := mathx.Vec3{X: req.Half[0], Y: req.Half[1], Z: req.Half[2]}
		if half.X <= 0 || half.Y <= 0 || half.Z <= 0 {
			return nil, fmt.Errorf("cube edit needs positive half extents")
		}
		rot := mathx.RotationYXZ(req.YawPitchRoll[0], req.YawPitchRoll[1], req.YawPitchRoll[2])
		return l.world.EditCube(center, half, rot, req.Strength, mat, opts), nil
	case "smooth":
		if req.Radius <= 0 {
			return nil, fmt.Errorf("smooth edit needs a positive radius")
		}
		return l.world.SmoothSphere(center, req.Radius, req.Strength, mat, req.Falloff), nil
	default:
		return nil, fmt.Errorf("unknown edit op %q", req.Op)
	}
}

func (l *tickLoop) exportSnapshot() {
	snap := l.world.ExportSnapshot(l.worldID)
	select {
	case l.snapCh <- snap:
	default:
		l.log.Printf("snapshot writer busy; skipping tick=%d", snap.Header.Tick)
	}
}

func (l *tickLoop) submit(r *http.Request, cmd command) (commandResult, bool) {
	cmd.reply = make(chan commandResult, 1)
	select {
	case l.commands <- cmd:
	default:
		return commandResult{}, false
	}
	select {
	case res := <-cmd.reply:
		return res, true
	case <-r.Context().Done():
		return commandResult{}, false
	case <-time.After(5 * time.Second):
		return commandResult{}, false
	}
}

func (l *tickLoop) moveHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		var body struct {
			Pos [3]float64 `json:"pos"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		res, ok := l.submit(r, command{
			kind: cmdMove,
			pos:  mathx.Vec3{X: body.Pos[0], Y: body.Pos[1], Z: body.Pos[2]},
		})
		writeCommandResult(rw, res, ok)
	}
}

func (l *tickLoop) editHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		res, ok := l.submit(r, command{kind: cmdEdit, edit: req})
		writeCommandResult(rw, res, ok)
	}
}

func (l *tickLoop) snapshotHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		res, ok := l.submit(r, command{kind: cmdSnapshot})
		writeCommandResult(rw, res, ok)
	}
}

func writeCommandResult(rw http.ResponseWriter, res commandResult, ok bool) {
	rw.Header().Set("Content-Type", "application/json")
	if !ok {
		rw.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": "server busy"})
		return
	}
	if res.Err != "" {
		rw.WriteHeader(http.StatusBadRequest)
	}
	_ = json.NewEncoder(rw).Encode(res)
}
