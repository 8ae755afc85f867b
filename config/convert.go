package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dep2p/go-quictun/pkg/types"
)

// FromJSON 从 JSON 数据创建配置，未出现的字段保留默认值
//
// 示例 JSON:
//
//	{
//	  "mode": "client",
//	  "tunnel": {"local": "127.0.0.1:8000", "remote": "tunnel.example.com:4433"},
//	  "security": {"ca": "ca.pem", "cert": "client.pem", "key": "client-key.pem"},
//	  "transport": {"congestion": "bbr", "idle_timeout": "30s"},
//	  "relay": {"compression": "lz4"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal json config: %v", types.ErrConfig, err)
	}
	return cfg, nil
}

// FromTOML 从 TOML 数据创建配置，未出现的字段保留默认值
func FromTOML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal toml config: %v", types.ErrConfig, err)
	}
	return cfg, nil
}

// LoadFile 按扩展名加载配置文件：.toml 使用 TOML，其他使用 JSON
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config file: %v", types.ErrConfig, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FromTOML(data)
	}
	return FromJSON(data)
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// CloneConfig 深拷贝配置
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	clone := *cfg
	if cfg.Transport.KeepAlive != nil {
		v := *cfg.Transport.KeepAlive
		clone.Transport.KeepAlive = &v
	}
	return &clone
}
