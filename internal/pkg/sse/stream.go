package sse

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrStreamClosed 流已关闭或客户端已断开
var ErrStreamClosed = errors.New("stream closed")

// HeartbeatComment 心跳注释行，EventSource 客户端会忽略
const HeartbeatComment = ": heartbeat\n\n"

// Stream 单个请求的 SSE 输出流，Send 并发安全
type Stream struct {
	ctx         *gin.Context
	mu          sync.Mutex
	closed      atomic.Bool
	connectTime time.Time

	stopOnce      sync.Once
	stopHeartbeat chan struct{}
	heartbeatDone chan struct{}
}

// NewStream 设置 SSE 响应头并返回流
func NewStream(c *gin.Context) *Stream {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(200)

	return &Stream{
		ctx:           c,
		connectTime:   time.Now(),
		stopHeartbeat: make(chan struct{}),
	}
}

// Send 写入事件并立即刷新
func (s *Stream) Send(eventType string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.IsClosed() || s.ctx.Request.Context().Err() != nil {
		return ErrStreamClosed
	}

	event := Event{Type: eventType, Data: data}
	if _, err := fmt.Fprint(s.ctx.Writer, event.FormatSSE()); err != nil {
		s.closed.Store(true)
		return fmt.Errorf("write %s event: %w", eventType, err)
	}
	s.ctx.Writer.Flush()
	return nil
}

// Heartbeat 写入注释行以保持连接
func (s *Stream) Heartbeat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.IsClosed() || s.ctx.Request.Context().Err() != nil {
		return ErrStreamClosed
	}
	if _, err := fmt.Fprint(s.ctx.Writer, HeartbeatComment); err != nil {
		s.closed.Store(true)
		return err
	}
	s.ctx.Writer.Flush()
	return nil
}

// StartHeartbeat 按 interval 定期发送心跳，直到 Close、写入失败或客户端断开。
// 只能调用一次，interval <= 0 时不启动。
func (s *Stream) StartHeartbeat(interval time.Duration) {
	if interval <= 0 || s.heartbeatDone != nil {
		return
	}
	s.heartbeatDone = make(chan struct{})

	go func() {
		defer close(s.heartbeatDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		done := s.ctx.Request.Context().Done()
		for {
			select {
			case <-s.stopHeartbeat:
				return
			case <-done:
				return
			case <-ticker.C:
				if err := s.Heartbeat(); err != nil {
					return
				}
			}
		}
	}()
}

// Close 关闭流(幂等)，停止心跳并等待其退出，之后的 Send 返回 ErrStreamClosed
func (s *Stream) Close() {
	s.closed.Store(true)
	s.stopOnce.Do(func() {
		close(s.stopHeartbeat)
		if s.heartbeatDone != nil {
			<-s.heartbeatDone
		}
	})
}

// IsClosed 检查是否已关闭
func (s *Stream) IsClosed() bool {
	return s.closed.Load()
}

// GetDuration 获取连接时长
func (s *Stream) GetDuration() time.Duration {
	return time.Since(s.connectTime)
}
