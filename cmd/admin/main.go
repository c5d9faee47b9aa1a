package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"voxelforge.dev/internal/persistence/snapshot"
	"voxelforge.dev/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// snapshotCmd prints a snapshot's header and per-chunk summary without
// loading a world.
func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used when -path is empty)")
	snapPath := fs.String("path", "", "snapshot path (optional; defaults to latest)")
	chunks := fs.Bool("chunks", false, "list per-chunk solid counts")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -path")
			os.Exit(2)
		}
		dir := filepath.Join(*dataDir, "worlds", *worldID, "snapshots")
		latest, err := snapshot.LatestPath(dir)
		if err != nil || latest == "" {
			fmt.Fprintln(os.Stderr, "no snapshot found in", dir)
			os.Exit(2)
		}
		path = latest
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	printJSON(map[string]any{
		"path":       path,
		"world_id":   snap.Header.WorldID,
		"tick":       snap.Header.Tick,
		"seed":       snap.Seed,
		"chunk_edge": snap.ChunkEdge,
		"grid_dim":   snap.GridDim,
		"chunks":     len(snap.Chunks),
		"inventory":  snap.Inventory,
	})

	if !*chunks {
		return
	}
	for _, ch := range snap.Chunks {
		solid := 0
		for i := range ch.Iso {
			if ch.Iso[i] >= 0.5 {
				solid++
			}
		}
		printJSON(map[string]any{
			"coord": ch.Coord,
			"solid": solid,
			"total": len(ch.Iso),
		})
	}
}

// journalCmd dumps edit journal entries, optionally filtered by tick range.
func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	sinceTick := fs.Uint64("since_tick", 0, "first tick to include")
	toTick := fs.Uint64("to_tick", ^uint64(0), "last tick to include")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}

	dir := filepath.Join(*dataDir, "worlds", *worldID, "edits")
	ents, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "edits-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := dumpJournalFile(filepath.Join(dir, name), *sinceTick, *toTick); err != nil {
			fmt.Fprintln(os.Stderr, name+":", err)
			os.Exit(1)
		}
	}
}

func dumpJournalFile(path string, sinceTick, toTick uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e world.EditLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if e.Tick < sinceTick || e.Tick > toTick {
			continue
		}
		printJSON(e)
	}
	return sc.Err()
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}
