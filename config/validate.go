package config

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-quictun/pkg/types"
)

var errNilConfig = fmt.Errorf("%w: config is nil", types.ErrConfig)

// Role 返回配置的端点角色
func (c *Config) Role() (types.Role, error) {
	if c == nil {
		return 0, errNilConfig
	}
	if c.Mode == "" {
		return 0, fmt.Errorf("%w: mode is required (client or server)", types.ErrConfig)
	}
	return types.ParseRole(c.Mode)
}

// IsConfigError 判断错误是否为配置错误
func IsConfigError(err error) bool {
	return errors.Is(err, types.ErrConfig)
}
