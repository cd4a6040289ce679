package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatsDBVersion   = "1.0.0"
	MaxRecentRecords = 100
)

// Database 统计数据库
type Database struct {
	filePath string
	data     *StatisticsDB
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewDatabase 创建统计数据库
func NewDatabase(filePath string, logger *zap.Logger) (*Database, error) {
	db := &Database{
		filePath: filePath,
		logger:   logger,
	}

	// 确保目录存在
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	// 加载或创建数据
	if err := db.load(); err != nil {
		return nil, fmt.Errorf("failed to load stats database: %w", err)
	}

	return db, nil
}

// Path 返回数据库文件路径
func (db *Database) Path() string {
	return db.filePath
}

func newStatisticsDB() *StatisticsDB {
	now := time.Now()
	return &StatisticsDB{
		Version:     StatsDBVersion,
		CreatedAt:   now,
		LastUpdated: now,
		FormatStats: make(map[string]*FormatStats),
		RecentRuns:  make([]*RunRecord, 0),
	}
}

// load 加载统计数据
func (db *Database) load() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	// 检查文件是否存在
	if _, err := os.Stat(db.filePath); os.IsNotExist(err) {
		db.data = newStatisticsDB()
		return db.saveUnsafe()
	}

	// 读取现有文件
	data, err := os.ReadFile(db.filePath)
	if err != nil {
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	// 解析 JSON
	var statsDB StatisticsDB
	if err := json.Unmarshal(data, &statsDB); err != nil {
		return fmt.Errorf("failed to parse stats file: %w", err)
	}

	// 初始化可能为 nil 的字段
	if statsDB.FormatStats == nil {
		statsDB.FormatStats = make(map[string]*FormatStats)
	}
	if statsDB.RecentRuns == nil {
		statsDB.RecentRuns = make([]*RunRecord, 0)
	}

	db.data = &statsDB
	db.logger.Debug("loaded statistics database",
		zap.String("version", statsDB.Version),
		zap.Time("created_at", statsDB.CreatedAt),
		zap.Int64("total_runs", statsDB.TotalRuns))

	return nil
}

// Save 保存统计数据
func (db *Database) Save() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.saveUnsafe()
}

// saveUnsafe 不安全的保存（需要已持有锁）
func (db *Database) saveUnsafe() error {
	db.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	// 原子写入
	tempFile := db.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp stats file: %w", err)
	}

	if err := os.Rename(tempFile, db.filePath); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}

	return nil
}

// AddRunRecord 添加运行记录
func (db *Database) AddRunRecord(record *RunRecord) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	// 更新总体统计
	db.data.TotalRuns++
	db.data.TotalCharacters += int64(record.CharacterCount)
	db.data.TotalParagraphs += int64(record.Paragraphs)
	db.data.TotalReplacements += int64(record.Replacements)
	db.data.TotalDuration += record.Duration

	if record.Failed() {
		db.data.TotalFailures++
	}
	if record.FallbackAppended {
		db.data.TotalFallbacks++
	}

	// 更新格式统计
	formatStats, exists := db.data.FormatStats[record.Format]
	if !exists {
		formatStats = &FormatStats{
			Format: record.Format,
		}
		db.data.FormatStats[record.Format] = formatStats
	}

	formatStats.RunCount++
	formatStats.CharacterCount += int64(record.CharacterCount)
	formatStats.LastUsed = record.Timestamp
	formatStats.AverageLength = formatStats.CharacterCount / formatStats.RunCount

	// 计算成功率
	successCount := int64(formatStats.SuccessRate*float64(formatStats.RunCount-1) + 0.5)
	if !record.Failed() {
		successCount++
	}
	formatStats.SuccessRate = float64(successCount) / float64(formatStats.RunCount)

	// 计算平均持续时间
	totalDuration := time.Duration(int64(formatStats.AverageDuration) * (formatStats.RunCount - 1))
	formatStats.AverageDuration = (totalDuration + record.Duration) / time.Duration(formatStats.RunCount)

	// 添加到最近记录
	db.data.RecentRuns = append(db.data.RecentRuns, record)

	// 保持最近记录数量限制
	if len(db.data.RecentRuns) > MaxRecentRecords {
		// 按时间排序
		sort.SliceStable(db.data.RecentRuns, func(i, j int) bool {
			return db.data.RecentRuns[i].Timestamp.After(db.data.RecentRuns[j].Timestamp)
		})
		db.data.RecentRuns = db.data.RecentRuns[:MaxRecentRecords]
	}

	// 更新性能统计
	db.updatePerformanceStats(record)

	return db.saveUnsafe()
}

// updatePerformanceStats 更新性能统计
func (db *Database) updatePerformanceStats(record *RunRecord) {
	if record.Duration <= 0 || record.CharacterCount <= 0 {
		return
	}
	perf := &db.data.PerformanceStats
	speed := float64(record.CharacterCount) / record.Duration.Seconds()

	// 更新平均速度
	if db.data.TotalRuns > 1 {
		totalSpeed := perf.AverageSpeed * float64(db.data.TotalRuns-1)
		perf.AverageSpeed = (totalSpeed + speed) / float64(db.data.TotalRuns)
	} else {
		perf.AverageSpeed = speed
	}

	// 更新最快/最慢
	if perf.FastestRun == 0 || record.Duration < perf.FastestRun {
		perf.FastestRun = record.Duration
	}
	if record.Duration > perf.SlowestRun {
		perf.SlowestRun = record.Duration
	}
}

// GetStats 获取统计数据（只读副本）
func (db *Database) GetStats() *StatisticsDB {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	// 创建深拷贝
	data, err := json.Marshal(db.data)
	if err != nil {
		db.logger.Warn("failed to copy statistics", zap.Error(err))
		return newStatisticsDB()
	}
	var snapshot StatisticsDB
	if err := json.Unmarshal(data, &snapshot); err != nil {
		db.logger.Warn("failed to copy statistics", zap.Error(err))
		return newStatisticsDB()
	}

	return &snapshot
}

// GetRecentRuns 获取最近的运行记录（最新的在前）
func (db *Database) GetRecentRuns(limit int) []*RunRecord {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if limit <= 0 || limit > len(db.data.RecentRuns) {
		limit = len(db.data.RecentRuns)
	}

	sorted := make([]*RunRecord, len(db.data.RecentRuns))
	copy(sorted, db.data.RecentRuns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	return sorted[:limit]
}

// Reset 清空所有统计
func (db *Database) Reset() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.data = newStatisticsDB()
	return db.saveUnsafe()
}
