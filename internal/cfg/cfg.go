package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Источники каталога, поддерживаемые пайплайном загрузки.
const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

// Хранилища контрольной точки пайплайна.
const (
	CheckpointStoreFile  = "file"
	CheckpointStoreRedis = "redis"
)

type Config struct {
	Http     *HTTPConfig
	Qdrant   *QdrantCfg
	Encoder  *EncoderCfg
	Images   *ImagesCfg
	Minio    *MinIOCfg
	Pipeline *PipelineCfg
	Redis    *RedisCfg
	Db       *PGDBCfg
	Kafka    *KafkaCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type QdrantCfg struct {
	Host                 string
	Port                 int
	ApiKey               string
	QdrantCollectionName string // имя коллекции в Qdrant
	UseTLS               bool
	VectorSize           uint64
}

// EncoderCfg описывает подключение к внешнему CLIP-сервису кодирования.
type EncoderCfg struct {
	BaseURL       string
	Timeout       time.Duration
	MaxConcurrent int
	MaxRetries    int
	CacheSize     int // ёмкость LRU-кэша текстовых векторов
}

// ImagesCfg описывает загрузку исходных изображений каталога.
type ImagesCfg struct {
	FetchTimeout time.Duration
	MaxImageEdge int // длинная сторона после даунскейла перед отправкой кодировщику
}

type MinIOCfg struct {
	MinioEndpoint     string
	BucketName        string
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

// PipelineCfg описывает параметры пайплайна загрузки каталога.
type PipelineCfg struct {
	BatchSize       int
	PollInterval    time.Duration
	CatalogSource   string // file | postgres
	CatalogPath     string // путь к JSON-файлу каталога (для source=file)
	CheckpointStore string // file | redis
	CheckpointPath  string // путь к файлу контрольной точки (для store=file)
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string // пустой список отключает публикацию событий
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	encoder, err := loadEncoderCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	images, err := loadImagesCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	pipeline, err := loadPipelineCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:     http,
		Qdrant:   qdrant,
		Encoder:  encoder,
		Images:   images,
		Minio:    loadMinIOCfg(log),
		Pipeline: pipeline,
		Redis:    redis,
		Db:       loadPGDBCfg(),
		Kafka:    loadKafkaCfg(),
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadQdrantCfg(log logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = "6334"
		defaultUseTLS         = false
		defaultVectorSize     = "512"
		defaultCollection     = "products"
	)

	strPort := getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	port, err := strconv.Atoi(strPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	strVectorSize := getEnvOrDefault("VECTOR_SIZE", defaultVectorSize)
	vectorSize, err := strconv.ParseUint(strVectorSize, 10, 64)
	if err != nil {
		log.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	host := getEnv("QDRANT_HOST")
	if host == "" {
		return nil, fmt.Errorf("QDRANT_HOST environment variable is required")
	}

	return &QdrantCfg{
		Host:                 host,
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           vectorSize,
	}, nil
}

func loadEncoderCfg() (*EncoderCfg, error) {
	const (
		defaultTimeout       = 30 * time.Second
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
		defaultCacheSize     = 1000
	)

	baseURL := getEnv("ENCODER_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("ENCODER_BASE_URL environment variable is required")
	}

	timeout, err := parseDurationEnv("ENCODER_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("ENCODER_TIMEOUT", err)
	}

	maxConcurrent, err := parseIntEnv("ENCODER_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		return nil, e.Wrap("ENCODER_MAX_CONCURRENT", err)
	}

	maxRetries, err := parseIntEnv("ENCODER_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("ENCODER_MAX_RETRIES", err)
	}

	cacheSize, err := parseIntEnv("ENCODER_CACHE_SIZE", defaultCacheSize)
	if err != nil {
		return nil, e.Wrap("ENCODER_CACHE_SIZE", err)
	}

	return &EncoderCfg{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		CacheSize:     cacheSize,
	}, nil
}

func loadImagesCfg() (*ImagesCfg, error) {
	const (
		defaultFetchTimeout = 15 * time.Second
		defaultMaxImageEdge = 224
	)

	fetchTimeout, err := parseDurationEnv("IMAGE_FETCH_TIMEOUT", defaultFetchTimeout)
	if err != nil {
		return nil, e.Wrap("IMAGE_FETCH_TIMEOUT", err)
	}

	maxImageEdge, err := parseIntEnv("IMAGE_MAX_EDGE", defaultMaxImageEdge)
	if err != nil {
		return nil, e.Wrap("IMAGE_MAX_EDGE", err)
	}

	return &ImagesCfg{
		FetchTimeout: fetchTimeout,
		MaxImageEdge: maxImageEdge,
	}, nil
}

func loadMinIOCfg(log logger.Logger) *MinIOCfg {
	const defaultUseSSL = false

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Warnf("invalid MINIO_USE_SSL, falling back to %t", defaultUseSSL)
		useSSL = defaultUseSSL
	}

	// Пустой endpoint отключает чтение изображений из MinIO:
	// в этом случае принимаются только http(s)-локаторы.
	return &MinIOCfg{
		MinioEndpoint:     getEnv("MINIO_ENDPOINT"),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}
}

func loadPipelineCfg() (*PipelineCfg, error) {
	const (
		defaultBatchSize       = 10
		defaultPollInterval    = 60 * time.Second
		defaultCatalogSource   = CatalogSourceFile
		defaultCheckpointStore = CheckpointStoreFile
		defaultCheckpointPath  = "checkpoint.txt"
	)

	batchSize, err := parseIntEnv("PIPELINE_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, e.Wrap("PIPELINE_BATCH_SIZE", err)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("PIPELINE_BATCH_SIZE must be positive")
	}

	pollInterval, err := parseDurationEnv("PIPELINE_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		return nil, e.Wrap("PIPELINE_POLL_INTERVAL", err)
	}

	source := getEnvOrDefault("CATALOG_SOURCE", defaultCatalogSource)
	if source != CatalogSourceFile && source != CatalogSourcePostgres {
		return nil, fmt.Errorf("unknown CATALOG_SOURCE: %s", source)
	}

	catalogPath := getEnv("CATALOG_PATH")
	if source == CatalogSourceFile && catalogPath == "" {
		return nil, fmt.Errorf("CATALOG_PATH environment variable is required for file catalog source")
	}

	store := getEnvOrDefault("CHECKPOINT_STORE", defaultCheckpointStore)
	if store != CheckpointStoreFile && store != CheckpointStoreRedis {
		return nil, fmt.Errorf("unknown CHECKPOINT_STORE: %s", store)
	}

	return &PipelineCfg{
		BatchSize:       batchSize,
		PollInterval:    pollInterval,
		CatalogSource:   source,
		CatalogPath:     catalogPath,
		CheckpointStore: store,
		CheckpointPath:  getEnvOrDefault("CHECKPOINT_PATH", defaultCheckpointPath),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("MAX_RETRIES", err)
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
	}, nil
}

func loadPGDBCfg() *PGDBCfg {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	// Обязательность переменных проверяется только при CATALOG_SOURCE=postgres,
	// поэтому здесь значения читаются без валидации.
	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     getEnv("POSTGRES_USER"),
		Password: getEnv("POSTGRES_PASSWORD"),
		DBName:   getEnv("POSTGRES_DB"),
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}
}

func loadKafkaCfg() *KafkaCfg {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "catalog-indexed"
	)

	// Отсутствие KAFKA_BROKERS отключает публикацию событий индексации.
	brokerStr := getEnv("KAFKA_BROKERS")
	var brokers []string
	if brokerStr != "" {
		brokers = strings.Split(brokerStr, ",")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		partitions = defaultPartitions
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		replicationFactor = defaultReplicationFactor
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
