// 配置热重载。
//
// 监听配置文件变更，重新加载并通知订阅方。用于运行期调整缓存
// 相似度阈值等可热更字段。
package config

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// --- 热重载类型定义 ---

// ReloadCallback 配置重载回调，收到旧配置与新配置
type ReloadCallback func(old, updated *Config)

// ReloadManager 管理配置热重载
type ReloadManager struct {
	mu sync.RWMutex

	loader  *Loader
	watcher *FileWatcher
	current *Config

	callbacks []ReloadCallback

	logger *zap.Logger
}

// NewReloadManager 创建热重载管理器并完成首次加载
func NewReloadManager(loader *Loader, watcher *FileWatcher, logger *zap.Logger) (*ReloadManager, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("initial config load: %w", err)
	}

	m := &ReloadManager{
		loader:  loader,
		watcher: watcher,
		current: cfg,
		logger:  logger.With(zap.String("component", "config_reload")),
	}

	watcher.OnChange(m.onFileEvent)
	return m, nil
}

// Start 启动文件监听
func (m *ReloadManager) Start(ctx context.Context) error {
	return m.watcher.Start(ctx)
}

// Stop 停止文件监听
func (m *ReloadManager) Stop() error {
	return m.watcher.Stop()
}

// Current 返回当前配置
func (m *ReloadManager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe 注册重载回调
func (m *ReloadManager) Subscribe(cb ReloadCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// onFileEvent 文件变更时重新加载；加载或验证失败保留旧配置
func (m *ReloadManager) onFileEvent(event FileEvent) {
	if event.Op == FileOpRemove {
		m.logger.Warn("config file removed, keeping current config",
			zap.String("path", event.Path))
		return
	}

	cfg, err := m.loader.Load()
	if err != nil {
		m.logger.Error("config reload failed, keeping current config",
			zap.String("path", event.Path), zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Error("reloaded config invalid, keeping current config",
			zap.String("path", event.Path), zap.Error(err))
		return
	}

	m.mu.Lock()
	old := m.current
	m.current = cfg
	callbacks := make([]ReloadCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	m.logger.Info("config reloaded", zap.String("path", event.Path))

	for _, cb := range callbacks {
		cb(old, cfg)
	}
}
