package config

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type Settings struct {
	HTTPAddr     string
	StateBackend string
	// StateTTL expires device documents; zero keeps them forever.
	StateTTL     time.Duration
	SessionIdle  time.Duration
	LogLevel     string

	// PostgresEnabled is set when DB_HOST is configured. The postgres state
	// backend and the order archive need it.
	PostgresEnabled bool

	KafkaBroker      string
	KafkaOrdersTopic string
	KafkaGroupID     string
	AMQPURL          string

	// MetricsAddr is where agg-svc serves /metrics and /health.
	MetricsAddr string

	GatewayAddr   string
	StorefrontURL string
	AggregatorURL string
	FrontendDir   string

	PaymentGatewayURL  string
	CardPaymentDelay   time.Duration
	PayPalPaymentDelay time.Duration

	TaxRate               float64
	DeliveryFee           float64
	FreeDeliveryThreshold float64

	ReceiptBaseURL string
}

// Load reads settings from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() Settings {
	_ = godotenv.Load()

	return Settings{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		StateBackend: getEnv("STATE_BACKEND", "redis"),
		StateTTL:     getDuration("STATE_TTL", 0),
		SessionIdle:  getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		PostgresEnabled: os.Getenv("DB_HOST") != "",

		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		KafkaOrdersTopic: getEnv("KAFKA_ORDERS_TOPIC", "orders"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "agg-svc-consumer"),
		AMQPURL:          os.Getenv("AMQP_URL"),

		MetricsAddr: getEnv("METRICS_ADDR", ":9101"),

		GatewayAddr:   getEnv("GATEWAY_ADDR", ":8000"),
		StorefrontURL: getEnv("STOREFRONT_SVC_URL", "http://localhost:8080"),
		AggregatorURL: getEnv("AGG_SVC_URL", "http://localhost:9101"),
		FrontendDir:   getEnv("FRONTEND_DIR", "./frontend"),

		PaymentGatewayURL:  os.Getenv("PAYMENT_GATEWAY_URL"),
		CardPaymentDelay:   getDuration("CARD_PAYMENT_DELAY", 3*time.Second),
		PayPalPaymentDelay: getDuration("PAYPAL_PAYMENT_DELAY", 2*time.Second),

		TaxRate:               getFloat("TAX_RATE", 0.08),
		DeliveryFee:           getFloat("DELIVERY_FEE", 3.99),
		FreeDeliveryThreshold: getFloat("FREE_DELIVERY_THRESHOLD", 50),

		ReceiptBaseURL: getEnv("RECEIPT_BASE_URL", "http://localhost"),
	}
}

func ConfigureLogger(level string) {
	log.SetFormatter(&log.JSONFormatter{})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func MustInitPostgres() *sql.DB {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")

	connStr := "host=" + dbHost + " port=" + dbPort + " user=" + dbUser +
		" password=" + dbPassword + " dbname=" + dbName + " sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database: ", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_HOST", "localhost") + ":" + getEnv("REDIS_PORT", "6379"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}

	return client
}

func MustDialRabbit(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ: ", err)
	}
	return conn
}

func NewKafkaReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
	})
}

func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.WithField("key", key).Warn("invalid duration, using default")
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.WithField("key", key).Warn("invalid number, using default")
		return fallback
	}
	return f
}
