package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ServiceName    = "store-inventory"
	ServiceVersion = "1.0.0"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendMongo = "mongo"
	BackendMySQL = "mysql"
	BackendRedis = "redis"
	BackendNone  = "none"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Mongo     MongoConfig
	MySQL     MySQLConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Otel      OtelConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPAddr string
	GRPCAddr string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StoreConfig struct {
	Backend        string
	ConnectTimeout time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type MySQLConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicLowStock string
	BufferSize    int
}

type InventoryConfig struct {
	LowStockThreshold int
}

type OtelConfig struct {
	Endpoint string
	URLPath  string
	Insecure bool
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":50051"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
			ConnectTimeout: time.Duration(getEnvInt("CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "inventory_db"),
		},
		MySQL: MySQLConfig{
			DSN:          getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/inventory?parseTime=true"),
			MaxOpenConns: getEnvInt("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("MYSQL_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvSlice("KAFKA_BROKERS", nil),
			TopicLowStock: getEnv("KAFKA_TOPIC_LOW_STOCK", "inventory.stock.low"),
			BufferSize:    getEnvInt("KAFKA_BUFFER_SIZE", 256),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
		Otel: OtelConfig{
			Endpoint: getEnv("OTEL_ENDPOINT", ""),
			URLPath:  getEnv("OTEL_TRACES_PATH", "/v1/traces"),
			Insecure: getEnvBool("OTEL_INSECURE", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvSlice splits on commas and drops empty entries.
func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
