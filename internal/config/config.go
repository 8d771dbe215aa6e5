package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPath = "config.json"
	EnvPrefix   = "CHAT_RELAY"
)

var ErrConfigCreated = errors.New("the configuration file does not exist and has been created. Please try again after editing the configuration file")

type Config struct {
	AppName   string `mapstructure:"app_name"`
	DebugMode bool   `mapstructure:"debug_mode"`
	LogDir    string `mapstructure:"log_dir"`
	Listen    struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		MaxConnections int    `mapstructure:"max_connections"`
		MaxLineLength  int    `mapstructure:"max_line_length"`
	} `mapstructure:"listen"`
	WebSocket struct {
		Enabled        bool     `mapstructure:"enabled"`
		Port           int      `mapstructure:"port"`
		Path           string   `mapstructure:"path"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"websocket"`
	Admin struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"admin"`
	Session struct {
		OutboxSize int `mapstructure:"outbox_size"`
	} `mapstructure:"session"`
	Room struct {
		PasswordCost int           `mapstructure:"password_cost"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"room"`
	Transcript struct {
		Backend   string        `mapstructure:"backend"`
		Dir       string        `mapstructure:"dir"`
		CacheSize int           `mapstructure:"cache_size"`
		CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"transcript"`
	Database struct {
		Host               string        `mapstructure:"host"`
		Port               uint64        `mapstructure:"port"`
		Username           string        `mapstructure:"username"`
		Password           string        `mapstructure:"password"`
		Database           string        `mapstructure:"database"`
		UseTLS             bool          `mapstructure:"use_tls"`
		ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
		SocketTimeout      time.Duration `mapstructure:"socket_timeout"`
		ConnectIdleTimeout time.Duration `mapstructure:"connect_idle_timeout"`
		OperationTimeout   time.Duration `mapstructure:"operation_timeout"`
		Heartbeat          time.Duration `mapstructure:"heartbeat"`
		MinPoolSize        uint64        `mapstructure:"min_pool_size"`
		MaxPoolSize        uint64        `mapstructure:"max_pool_size"`
	} `mapstructure:"database"`
}

var (
	mu          sync.Mutex
	config      Config
	initialized = false
	path        = DefaultPath
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "life-stream-chat-relay")
	v.SetDefault("debug_mode", false)
	v.SetDefault("log_dir", "logs")

	v.SetDefault("listen.host", "")
	v.SetDefault("listen.port", 12356)
	v.SetDefault("listen.max_connections", 10000)
	v.SetDefault("listen.max_line_length", 4096)

	v.SetDefault("websocket.enabled", false)
	v.SetDefault("websocket.port", 12357)
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.allowed_origins", []string{})

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.port", 12358)

	v.SetDefault("session.outbox_size", 256)
	v.SetDefault("room.password_cost", 10)
	v.SetDefault("room.idle_timeout", "10m")

	v.SetDefault("transcript.backend", "file")
	v.SetDefault("transcript.dir", "transcripts")
	v.SetDefault("transcript.cache_size", 64)
	v.SetDefault("transcript.cache_ttl", "10m")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 27017)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "chat_relay")
	v.SetDefault("database.use_tls", false)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.socket_timeout", "30s")
	v.SetDefault("database.connect_idle_timeout", "5m")
	v.SetDefault("database.operation_timeout", "5s")
	v.SetDefault("database.heartbeat", "10s")
	v.SetDefault("database.min_pool_size", 1)
	v.SetDefault("database.max_pool_size", 20)
}

// Load reads the configuration at file. A missing file is created with the
// defaults and ErrConfigCreated is returned.
func Load(file string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("json")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var result Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			if err := v.WriteConfigAs(file); err != nil {
				return result, fmt.Errorf("unable to create configuration file %s: %w", file, err)
			}
			return result, ErrConfigCreated
		}
		return result, fmt.Errorf("the configuration file does not contain valid JSON: %w", err)
	}

	if err := v.Unmarshal(&result); err != nil {
		return result, fmt.Errorf("unable to decode configuration: %w", err)
	}
	return result, nil
}

// SetPath changes the file used by ReadConfig and GetConfig.
func SetPath(file string) {
	mu.Lock()
	defer mu.Unlock()
	path = file
	initialized = false
}

func ReadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()
	return readLocked()
}

func readLocked() (Config, error) {
	result, err := Load(path)
	if err != nil {
		return result, err
	}
	config = result
	initialized = true
	return config, nil
}

func GetConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return config, nil
	}
	return readLocked()
}
