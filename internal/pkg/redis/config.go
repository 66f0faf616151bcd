package redis

import (
	"fmt"
	"time"
)

// DeployMode Redis 部署模式
type DeployMode string

const (
	ModeSingle   DeployMode = "single"   // 单机模式
	ModeSentinel DeployMode = "sentinel" // 哨兵模式
	ModeCluster  DeployMode = "cluster"  // 集群模式
)

// Config Redis 配置
type Config struct {
	Mode DeployMode `mapstructure:"mode" yaml:"mode"`

	// 单机为一个地址，哨兵为哨兵地址列表，集群为节点地址列表
	Addrs      []string `mapstructure:"addrs" yaml:"addrs"`
	MasterName string   `mapstructure:"master_name" yaml:"master_name"` // 哨兵模式主节点名称

	// 认证配置
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// 所有业务 key 的前缀
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Mode:  ModeSingle,
		Addrs: []string{"localhost:6379"},

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries: 3,
		KeyPrefix:  "prb",
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return fmt.Errorf("%w: addrs is required", ErrInvalidConfig)
	}

	switch c.Mode {
	case ModeSingle:
		if len(c.Addrs) != 1 {
			return fmt.Errorf("%w: single mode takes exactly one addr", ErrInvalidConfig)
		}
	case ModeSentinel:
		if c.MasterName == "" {
			return fmt.Errorf("%w: master_name is required in sentinel mode", ErrInvalidConfig)
		}
	case ModeCluster:
		if c.DB != 0 {
			return fmt.Errorf("%w: cluster mode only supports db 0", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalidConfig, c.Mode)
	}

	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return fmt.Errorf("%w: pool sizes must be >= 0", ErrInvalidConfig)
	}
	return nil
}
