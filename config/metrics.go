package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/dep2p/go-quictun/pkg/types"
)

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Listen HTTP 监听地址，为空时不启动指标服务
	Listen string `json:"listen,omitempty" toml:"listen"`

	// Path 指标路径
	Path string `json:"path,omitempty" toml:"path"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Path: "/metrics",
	}
}

// Enabled 是否启动指标服务
func (c MetricsConfig) Enabled() bool {
	return c.Listen != ""
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w: metrics.listen %q: %v", types.ErrConfig, c.Listen, err)
	}
	if c.Path != "" && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: metrics.path %q must start with /", types.ErrConfig, c.Path)
	}
	return nil
}
