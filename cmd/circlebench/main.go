package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/config"
	"github.com/d60-Lab/trustcircle/internal/cache"
	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/internal/service"
	"github.com/d60-Lab/trustcircle/pkg/database"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// 在配置的库上生成随机关系图，对比冷/热 BuildContext 延迟
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db := must(database.InitDB(cfg))
	defer database.Close(db)

	ctx := context.Background()
	contextCache, closeCache, err := cache.Open(ctx, cfg, db)
	if err != nil {
		panic(err)
	}
	defer closeCache()

	N := envInt("N", 5000)
	DEGREE := envInt("DEGREE", 8)
	SAMPLES := envInt("SAMPLES", 200)
	WORKERS := envInt("WORKERS", cfg.Circle.RefreshWorkers)

	// 每次运行使用新的 id 段，避免和已有数据冲突
	runID := uuid.New()
	base := int64(runID.ID()%1_000_000)*1_000_000 + 1
	seed := int64(runID.ID())
	rng := rand.New(rand.NewSource(seed))

	peerRepo := repository.NewPeerLinkRepository(db)
	graph := service.NewCircleService(peerRepo, contextCache, cfg.Circle.MaxHops)
	refresher := service.NewCircleRefresher(graph, cfg.Circle.RefreshQueue)
	stop := refresher.Start(WORKERS)
	links := service.NewLinkService(peerRepo, contextCache, refresher)

	pairs := make([]model.LinkPair, 0, N*DEGREE/2)
	for i := 0; i < N; i++ {
		for d := 0; d < DEGREE/2; d++ {
			j := rng.Intn(N)
			if j == i {
				continue
			}
			pairs = append(pairs, model.LinkPair{UserA: base + int64(i), UserB: base + int64(j)})
		}
	}

	t0 := time.Now()
	res := must(links.ImportLinks(ctx, pairs))
	importDur := time.Since(t0)

	drainStart := time.Now()
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	if err := stop(stopCtx); err != nil {
		logger.Warn("refresher did not drain", zap.Error(err))
	}
	cancel()
	drainDur := time.Since(drainStart)

	refreshRecs := make([]time.Duration, 0, res.Touched)
	for len(refresher.Metrics()) > 0 {
		refreshRecs = append(refreshRecs, <-refresher.Metrics())
	}

	sample := make([]int64, SAMPLES)
	for i := range sample {
		sample[i] = base + int64(rng.Intn(N))
	}

	cold := make([]time.Duration, 0, SAMPLES)
	warm := make([]time.Duration, 0, SAMPLES)
	sizes := 0
	for _, id := range sample {
		_ = contextCache.Invalidate(ctx, id)
		st := time.Now()
		cc := must(graph.BuildContext(ctx, id))
		cold = append(cold, time.Since(st))
		sizes += cc.Size()

		st = time.Now()
		_ = must(graph.BuildContext(ctx, id))
		warm = append(warm, time.Since(st))
	}

	fmt.Printf("run=%s N=%d DEGREE=%d SAMPLES=%d backend=%s max_hops=%d\n",
		runID, N, DEGREE, SAMPLES, cfg.Circle.CacheBackend, cfg.Circle.MaxHops)
	fmt.Printf("Import: pairs=%d created=%d existing=%d failed=%d touched=%d in %v\n",
		len(pairs), res.Created, res.Existing, res.Failed, res.Touched, importDur)
	if len(refreshRecs) > 0 {
		fmt.Printf("Refresh landing: samples=%d, p50=%v, p95=%v, p99=%v, drain=%v\n",
			len(refreshRecs), pct(refreshRecs, 0.50), pct(refreshRecs, 0.95), pct(refreshRecs, 0.99), drainDur)
	}
	fmt.Printf("BuildContext cold: p50=%v, p95=%v, p99=%v\n", pct(cold, 0.50), pct(cold, 0.95), pct(cold, 0.99))
	fmt.Printf("BuildContext warm: p50=%v, p95=%v, p99=%v\n", pct(warm, 0.50), pct(warm, 0.95), pct(warm, 0.99))
	fmt.Printf("Average circle size: %.1f\n", float64(sizes)/float64(SAMPLES))
}
