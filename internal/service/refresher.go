package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/pkg/logger"
)

type refreshJob struct {
	userID int64
	enqAt  time.Time
}

// CircleRefresher 本地异步重建信任圈缓存，用于批量导入关系之后
type CircleRefresher struct {
	graph     CircleGraph
	ch        chan refreshJob
	metricsCh chan time.Duration
}

func NewCircleRefresher(graph CircleGraph, queueSize int) *CircleRefresher {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &CircleRefresher{graph: graph, ch: make(chan refreshJob, queueSize), metricsCh: make(chan time.Duration, 65536)}
}

// Start 启动 workers；返回的 stop 会等待队列排空，最多到 ctx 结束
func (r *CircleRefresher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	done := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for {
				select {
				case job := <-r.ch:
					r.run(job)
				case <-stopCh:
					// 退出前把剩余任务处理完
					for {
						select {
						case job := <-r.ch:
							r.run(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		for i := 0; i < workers; i++ {
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
}

func (r *CircleRefresher) run(job refreshJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.graph.RefreshCache(ctx, job.userID); err != nil {
		logger.Warn("circle refresh failed", zap.Int64("user_id", job.userID), zap.Error(err))
	}
	select {
	case r.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Refresh 入队，队列满时丢弃（缓存已失效，下次读取会重算）
func (r *CircleRefresher) Refresh(_ context.Context, userIDs ...int64) {
	for _, id := range userIDs {
		select {
		case r.ch <- refreshJob{userID: id, enqAt: time.Now()}:
		default:
			logger.Warn("refresher queue full, drop refresh", zap.Int64("user_id", id))
		}
	}
}

// Metrics 返回入队到重建完成耗时的只读通道
func (r *CircleRefresher) Metrics() <-chan time.Duration { return r.metricsCh }

// QueueLen 返回当前队列长度（采样值）
func (r *CircleRefresher) QueueLen() int { return len(r.ch) }

// SyncRefresher 在调用方 goroutine 内同步重建
type SyncRefresher struct {
	Graph CircleGraph
}

func (r SyncRefresher) Refresh(ctx context.Context, userIDs ...int64) {
	for _, id := range userIDs {
		if _, err := r.Graph.RefreshCache(ctx, id); err != nil {
			logger.Warn("circle refresh failed", zap.Int64("user_id", id), zap.Error(err))
		}
	}
}
