package sse

import (
	"fmt"
	"sync/atomic"
)

// ProgressTracker 批量任务进度跟踪器
type ProgressTracker struct {
	stream       *Stream
	total        int
	eventPrefix  string
	completed    atomic.Int32
	successCount atomic.Int32
	failedCount  atomic.Int32
}

// NewProgressTracker 创建进度跟踪器
func NewProgressTracker(stream *Stream, total int) *ProgressTracker {
	return &ProgressTracker{
		stream:      stream,
		total:       total,
		eventPrefix: "item",
	}
}

// WithEventPrefix 设置事件前缀(如 "pattern" 会生成 "pattern-success", "pattern-failed")
func (t *ProgressTracker) WithEventPrefix(prefix string) *ProgressTracker {
	t.eventPrefix = prefix
	return t
}

// Start 发送开始事件
func (t *ProgressTracker) Start() error {
	return t.stream.Send("batch-start", map[string]interface{}{
		"total_count": t.total,
		"message":     fmt.Sprintf("Starting batch processing of %d items", t.total),
	})
}

// RecordSuccess 记录成功并推送事件
func (t *ProgressTracker) RecordSuccess(index int, itemName string, data interface{}) error {
	t.successCount.Add(1)
	completed := t.completed.Add(1)

	eventData := map[string]interface{}{
		"index":     index + 1,
		"total":     t.total,
		"completed": int(completed),
		"item_name": itemName,
	}

	// 如果有额外数据,添加到事件中
	if data != nil {
		eventData["data"] = data
	}

	return t.stream.Send(t.eventPrefix+"-success", eventData)
}

// RecordFailure 记录失败并推送事件
func (t *ProgressTracker) RecordFailure(index int, itemName string, reason string) error {
	t.failedCount.Add(1)
	completed := t.completed.Add(1)

	return t.stream.Send(t.eventPrefix+"-failed", map[string]interface{}{
		"index":     index + 1,
		"total":     t.total,
		"completed": int(completed),
		"item_name": itemName,
		"error":     reason,
	})
}

// Complete 发送完成事件
func (t *ProgressTracker) Complete() error {
	success := int(t.successCount.Load())
	failed := int(t.failedCount.Load())

	return t.stream.Send("batch-complete", map[string]interface{}{
		"total_count":   t.total,
		"success_count": success,
		"failed_count":  failed,
		"message":       fmt.Sprintf("Batch processing completed: %d succeeded, %d failed", success, failed),
	})
}

// GetStats 获取当前统计信息
func (t *ProgressTracker) GetStats() (completed, success, failed int) {
	return int(t.completed.Load()), int(t.successCount.Load()), int(t.failedCount.Load())
}
