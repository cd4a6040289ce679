package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

// JobStatus 批量任务状态
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
)

// Job 单个转换任务的进度
type Job struct {
	Index     int
	Input     string
	Status    JobStatus
	StartTime time.Time
	EndTime   time.Time
	Error     string
}

// Duration 返回任务耗时，未结束的任务按当前时间计算
func (j *Job) Duration() time.Duration {
	if j.StartTime.IsZero() {
		return 0
	}
	if j.EndTime.IsZero() {
		return time.Since(j.StartTime)
	}
	return j.EndTime.Sub(j.StartTime)
}

// Info 进度快照
type Info struct {
	Total     int
	Completed int
	Failed    int
	Running   int
	Percent   float64
	Elapsed   time.Duration
	ETA       time.Duration
}

// Tracker 批量转换进度跟踪器，可被多个 goroutine 同时更新
type Tracker struct {
	mu        sync.Mutex
	jobs      []*Job
	logger    *zap.Logger
	writer    io.Writer
	startTime time.Time
	now       func() time.Time
}

// NewTracker 创建跟踪器；writer 为 nil 时只记录日志不输出进度行
func NewTracker(logger *zap.Logger, inputs []string, writer io.Writer) *Tracker {
	jobs := make([]*Job, len(inputs))
	for i, input := range inputs {
		jobs[i] = &Job{Index: i + 1, Input: input, Status: StatusPending}
	}
	return &Tracker{
		jobs:      jobs,
		logger:    logger,
		writer:    writer,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Start 标记任务开始
func (t *Tracker) Start(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.jobs[i]
	job.Status = StatusRunning
	job.StartTime = t.now()
	t.logger.Debug("job started", zap.Int("job", job.Index), zap.String("input", job.Input))
}

// Finish 标记任务结束，errMsg 为空表示成功
func (t *Tracker) Finish(i int, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.jobs[i]
	job.EndTime = t.now()
	if errMsg == "" {
		job.Status = StatusSucceeded
	} else {
		job.Status = StatusFailed
		job.Error = errMsg
	}

	t.logger.Debug("job finished",
		zap.Int("job", job.Index),
		zap.String("status", string(job.Status)),
		zap.Duration("duration", job.Duration()))
	t.renderLine(job)
}

// Progress 返回当前进度
func (t *Tracker) Progress() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressLocked()
}

func (t *Tracker) progressLocked() Info {
	info := Info{Total: len(t.jobs), Elapsed: t.now().Sub(t.startTime)}
	for _, job := range t.jobs {
		switch job.Status {
		case StatusSucceeded:
			info.Completed++
		case StatusFailed:
			info.Completed++
			info.Failed++
		case StatusRunning:
			info.Running++
		}
	}
	if info.Total > 0 {
		info.Percent = float64(info.Completed) / float64(info.Total) * 100
	}
	// 按已完成任务的平均耗时估算剩余时间
	if info.Completed > 0 && info.Completed < info.Total {
		avg := info.Elapsed / time.Duration(info.Completed)
		info.ETA = avg * time.Duration(info.Total-info.Completed)
	}
	return info
}

// Jobs 返回任务快照
func (t *Tracker) Jobs() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, len(t.jobs))
	for i, job := range t.jobs {
		out[i] = *job
	}
	return out
}

// renderLine 输出一行进度，调用方持有锁
func (t *Tracker) renderLine(job *Job) {
	if t.writer == nil {
		return
	}
	info := t.progressLocked()

	status := color.GreenString("ok")
	if job.Status == StatusFailed {
		status = color.RedString("failed")
	}
	line := fmt.Sprintf("[%d/%d] %5.1f%% %s %s", info.Completed, info.Total, info.Percent, status, filepath.Base(job.Input))
	if info.ETA > 0 {
		line += fmt.Sprintf(" (eta %s)", formatDuration(info.ETA))
	}
	fmt.Fprintln(t.writer, line)
}

// Summary 以表格输出所有任务的结果
func (t *Tracker) Summary(w io.Writer) {
	jobs := t.Jobs()
	info := t.Progress()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Input", "Status", "Duration", "Error"})
	for _, job := range jobs {
		tw.AppendRow(table.Row{job.Index, job.Input, job.Status, formatDuration(job.Duration()), job.Error})
	}
	tw.AppendFooter(table.Row{"", "Total", fmt.Sprintf("%d/%d ok", info.Completed-info.Failed, info.Total), formatDuration(info.Elapsed), ""})
	tw.Render()
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
