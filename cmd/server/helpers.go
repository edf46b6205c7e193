package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/indexdb"
	"github.com/KungSimon/VillageOfTesting/internal/sim/host"
)

// latestSnapshot returns the snapshot with the highest day in dir, or "".
func latestSnapshot(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	bestDay := -1
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		day, err := strconv.Atoi(strings.TrimSuffix(name, ".snap.zst"))
		if err != nil {
			continue
		}
		if day > bestDay {
			bestDay = day
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	hostname := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		hostname = h
	}
	hostname = strings.TrimPrefix(hostname, "[")
	hostname = strings.TrimSuffix(hostname, "]")
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

func metricsHandler(h *host.Host, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		res, err := h.Submit(ctx, host.Command{Op: host.OpState})
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, res.State, idx.Stats())
	}
}

// writeMetrics renders a minimal Prometheus exposition.
func writeMetrics(w io.Writer, st host.State, ix indexdb.Stats) {
	id := st.VillageID
	fmt.Fprintf(w, "# HELP village_day Days simulated so far.\n")
	fmt.Fprintf(w, "# TYPE village_day counter\n")
	fmt.Fprintf(w, "village_day{village=%q} %d\n", id, st.Day)

	fmt.Fprintf(w, "# HELP village_game_over 1 once the game has ended.\n")
	fmt.Fprintf(w, "# TYPE village_game_over gauge\n")
	fmt.Fprintf(w, "village_game_over{village=%q} %d\n", id, b2i(st.GameOver))

	fmt.Fprintf(w, "# HELP village_workers Living workers.\n")
	fmt.Fprintf(w, "# TYPE village_workers gauge\n")
	fmt.Fprintf(w, "village_workers{village=%q} %d\n", id, len(st.Workers))
	fmt.Fprintf(w, "village_max_workers{village=%q} %d\n", id, st.MaxWorkers)

	fmt.Fprintf(w, "# HELP village_stock Resource stock.\n")
	fmt.Fprintf(w, "# TYPE village_stock gauge\n")
	fmt.Fprintf(w, "village_stock{village=%q,resource=%q} %d\n", id, "food", st.Stocks.Food)
	fmt.Fprintf(w, "village_stock{village=%q,resource=%q} %d\n", id, "wood", st.Stocks.Wood)
	fmt.Fprintf(w, "village_stock{village=%q,resource=%q} %d\n", id, "metal", st.Stocks.Metal)

	fmt.Fprintf(w, "# HELP village_rate Per-day production from buildings.\n")
	fmt.Fprintf(w, "# TYPE village_rate gauge\n")
	fmt.Fprintf(w, "village_rate{village=%q,resource=%q} %d\n", id, "food", st.Stocks.FoodPerDay)
	fmt.Fprintf(w, "village_rate{village=%q,resource=%q} %d\n", id, "wood", st.Stocks.WoodPerDay)
	fmt.Fprintf(w, "village_rate{village=%q,resource=%q} %d\n", id, "metal", st.Stocks.MetalPerDay)

	fmt.Fprintf(w, "# HELP village_projects Projects under construction.\n")
	fmt.Fprintf(w, "# TYPE village_projects gauge\n")
	fmt.Fprintf(w, "village_projects{village=%q} %d\n", id, len(st.Projects))
	fmt.Fprintf(w, "village_buildings{village=%q} %d\n", id, len(st.Buildings))

	if ix.QueueCapacity > 0 {
		fmt.Fprintf(w, "# HELP village_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(w, "# TYPE village_index_queue_depth gauge\n")
		fmt.Fprintf(w, "village_index_queue_depth %d\n", ix.QueueDepth)
		fmt.Fprintf(w, "village_index_dropped_total{kind=%q} %d\n", "day", ix.DropDayTotal)
		fmt.Fprintf(w, "village_index_dropped_total{kind=%q} %d\n", "snapshot", ix.DropSnapshotTotal)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
