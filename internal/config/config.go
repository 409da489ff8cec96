package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUserID is the single account seeded by the initial migration.
var DefaultUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Vision      VisionConfig      `yaml:"vision"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Reminder    ReminderConfig    `yaml:"reminder"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port           int       `yaml:"port"`
	APIKey         string    `yaml:"api_key"`
	DefaultUserID  uuid.UUID `yaml:"default_user_id"`
	MaxUploadBytes int64     `yaml:"max_upload_bytes"`
	CORSOrigins    []string  `yaml:"cors_origins"`
	TimeZone       string    `yaml:"time_zone"`
}

// Location resolves TimeZone; calendar dates such as "today" are computed in it.
func (s ServerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("server.time_zone: %w", err)
	}
	return loc, nil
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir          string  `yaml:"models_dir"`
	ONNXLibPath        string  `yaml:"onnx_lib_path"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	EmbeddingDim       int     `yaml:"embedding_dim"`
	MinFaceSize        int     `yaml:"min_face_size"`
}

// RecognitionConfig controls matching and announcement gating.
// Threshold is the minimum cosine similarity for a match to be accepted;
// anything below it is treated as no match before the gate sees it.
type RecognitionConfig struct {
	Cooldown      time.Duration `yaml:"cooldown"`
	Threshold     float64       `yaml:"threshold"`
	MatchTimeout  time.Duration `yaml:"match_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	FrameMaxAge   time.Duration `yaml:"frame_max_age"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

type ReminderConfig struct {
	Interval time.Duration `yaml:"interval"`
	Lead     time.Duration `yaml:"lead"`
}

// DefaultsConfig seeds a user's settings row on first read.
type DefaultsConfig struct {
	HomeLabel          string   `yaml:"home_label"`
	HomeAddress        string   `yaml:"home_address"`
	ReassuranceMessage string   `yaml:"reassurance_message"`
	Latitude           *float64 `yaml:"latitude"`
	Longitude          *float64 `yaml:"longitude"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Recognition.Threshold <= 0 || c.Recognition.Threshold > 1 {
		return fmt.Errorf("recognition.threshold must be in (0, 1], got %v", c.Recognition.Threshold)
	}
	if _, err := c.Server.Location(); err != nil {
		return err
	}
	if c.Recognition.Cooldown < 0 {
		return fmt.Errorf("recognition.cooldown must not be negative")
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.DefaultUserID == uuid.Nil {
		cfg.Server.DefaultUserID = DefaultUserID
	}
	if cfg.Server.TimeZone == "" {
		cfg.Server.TimeZone = "Local"
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 16 << 20
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "facelink"
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if cfg.Vision.EmbeddingDim == 0 {
		cfg.Vision.EmbeddingDim = 512
	}
	if cfg.Vision.MinFaceSize == 0 {
		cfg.Vision.MinFaceSize = 48
	}
	if cfg.Recognition.Cooldown == 0 {
		cfg.Recognition.Cooldown = 5 * time.Minute
	}
	if cfg.Recognition.Threshold == 0 {
		cfg.Recognition.Threshold = 0.6
	}
	if cfg.Recognition.MatchTimeout == 0 {
		cfg.Recognition.MatchTimeout = 3 * time.Second
	}
	if cfg.Recognition.PollInterval == 0 {
		cfg.Recognition.PollInterval = 3 * time.Second
	}
	if cfg.Recognition.FrameMaxAge == 0 {
		cfg.Recognition.FrameMaxAge = 10 * time.Second
	}
	if cfg.Recognition.RatePerSecond == 0 {
		cfg.Recognition.RatePerSecond = 2
	}
	if cfg.Recognition.Burst == 0 {
		cfg.Recognition.Burst = 4
	}
	if cfg.Reminder.Interval == 0 {
		cfg.Reminder.Interval = time.Minute
	}
	if cfg.Reminder.Lead == 0 {
		cfg.Reminder.Lead = 15 * time.Minute
	}
	if cfg.Defaults.HomeLabel == "" {
		cfg.Defaults.HomeLabel = "home"
	}
	if cfg.Defaults.HomeAddress == "" {
		cfg.Defaults.HomeAddress = "742 Maple Street, Seattle, WA 98102"
	}
	if cfg.Defaults.ReassuranceMessage == "" {
		cfg.Defaults.ReassuranceMessage = "You are at home. Everything is okay."
	}
	if cfg.Defaults.Latitude == nil {
		lat := 47.6280
		cfg.Defaults.Latitude = &lat
	}
	if cfg.Defaults.Longitude == nil {
		lng := -122.3270
		cfg.Defaults.Longitude = &lng
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FACELINK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FACELINK_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FACELINK_TIME_ZONE"); v != "" {
		cfg.Server.TimeZone = v
	}
	if v := os.Getenv("FACELINK_DEFAULT_USER_ID"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			cfg.Server.DefaultUserID = id
		}
	}
	if v := os.Getenv("FACELINK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FACELINK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FACELINK_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FACELINK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FACELINK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FACELINK_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FACELINK_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FACELINK_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FACELINK_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FACELINK_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FACELINK_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("FACELINK_ONNX_LIB_PATH"); v != "" {
		cfg.Vision.ONNXLibPath = v
	}
	if v := os.Getenv("FACELINK_RECOGNITION_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognition.Cooldown = d
		}
	}
	if v := os.Getenv("FACELINK_RECOGNITION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Recognition.Threshold = f
		}
	}
	if v := os.Getenv("FACELINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
