package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(4))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	if p.Name() != "test" {
		t.Errorf("池名称不匹配: 期望 test, 实际 %s", p.Name())
	}
	if p.Cap() != 4 {
		t.Errorf("池容量不匹配: 期望 4, 实际 %d", p.Cap())
	}
}

func TestNewPoolInvalidConfig(t *testing.T) {
	if _, err := NewPool("bad", DefaultConfig(0)); err != ErrInvalidPoolConfig {
		t.Errorf("期望 ErrInvalidPoolConfig, 实际 %v", err)
	}
	if _, err := NewPool("bad", nil); err != ErrInvalidPoolConfig {
		t.Errorf("期望 ErrInvalidPoolConfig, 实际 %v", err)
	}
}

func TestPoolSubmitAndWait(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(3))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var counter, running, peak atomic.Int32
	for i := 0; i < 50; i++ {
		if err := p.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			counter.Add(1)
		}); err != nil {
			t.Fatalf("提交任务失败: %v", err)
		}
	}
	p.Wait()

	if counter.Load() != 50 {
		t.Errorf("任务执行数不匹配: 期望 50, 实际 %d", counter.Load())
	}
	if peak.Load() > 3 {
		t.Errorf("并发数超过容量: %d", peak.Load())
	}
	if s := p.Stats(); s.Submitted != 50 || s.Completed != 50 {
		t.Errorf("统计不匹配: %+v", s)
	}
}

func TestPoolSubmitWithContext(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(1))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.SubmitWithContext(ctx, func() {}); err != context.Canceled {
		t.Errorf("期望 context.Canceled, 实际 %v", err)
	}
}

func TestPoolPanicRecovered(t *testing.T) {
	var handled atomic.Bool
	cfg := DefaultConfig(1)
	cfg.PanicHandler = func(interface{}) { handled.Store(true) }
	p, err := NewPool("test", cfg)
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	if err := p.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("提交任务失败: %v", err)
	}
	p.Wait()

	if !handled.Load() {
		t.Error("panic 未被处理")
	}
	if s := p.Stats(); s.Panics != 1 || s.Completed != 0 {
		t.Errorf("统计不匹配: %+v", s)
	}
}

func TestPoolClosed(t *testing.T) {
	p, err := NewPool("test", DefaultConfig(1))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	p.Release()
	p.Release()

	if err := p.Submit(func() {}); err != ErrPoolClosed {
		t.Errorf("期望 ErrPoolClosed, 实际 %v", err)
	}
}
