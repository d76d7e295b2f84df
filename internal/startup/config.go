package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"media-catalog/internal/logging"
)

// Hash algorithm names, in the order they win when several are enabled.
const (
	HashDHash   = "dhash"
	HashMD5     = "md5"
	HashPHash   = "phash"
	HashBLAKE2B = "blake2b"
	HashSHA512  = "sha512"
)

// HashConfig holds the independently enable-able hash selection flags.
type HashConfig struct {
	SHA512  bool `toml:"sha512"`
	MD5     bool `toml:"md5"`
	BLAKE2B bool `toml:"blake2b"`
	PHash   bool `toml:"phash"`
	DHash   bool `toml:"dhash"`
}

// Algorithm returns the algorithm to use. Difference hash wins over MD5,
// MD5 over perceptual hash, perceptual hash over BLAKE2b. SHA-512 is the fallback.
func (h HashConfig) Algorithm() string {
	switch {
	case h.DHash:
		return HashDHash
	case h.MD5:
		return HashMD5
	case h.PHash:
		return HashPHash
	case h.BLAKE2B:
		return HashBLAKE2B
	default:
		return HashSHA512
	}
}

// Config holds all application configuration
type Config struct {
	AssetDirs          []string
	CatalogDir         string
	BatchSize          int
	ThumbnailMaxWidth  int
	ThumbnailMaxHeight int
	Hash               HashConfig
	AnalyseVideos      bool
	FirstFrameDir      string
	FFmpegPath         string
	Port               string
	SyncInterval       time.Duration
	WatchEnabled       bool
	BackupEnabled      bool
	LogHealthChecks    bool

	// Derived paths
	JournalPath string
}

// fileConfig mirrors Config for TOML decoding. Pointers distinguish unset keys.
type fileConfig struct {
	AssetDirs          []string    `toml:"asset_dirs"`
	CatalogDir         *string     `toml:"catalog_dir"`
	BatchSize          *int        `toml:"batch_size"`
	ThumbnailMaxWidth  *int        `toml:"thumbnail_max_width"`
	ThumbnailMaxHeight *int        `toml:"thumbnail_max_height"`
	Hash               *HashConfig `toml:"hash"`
	AnalyseVideos      *bool       `toml:"analyse_videos"`
	FirstFrameDir      *string     `toml:"first_frame_dir"`
	FFmpegPath         *string     `toml:"ffmpeg_path"`
	Port               *string     `toml:"port"`
	SyncInterval       *string     `toml:"sync_interval"`
	WatchEnabled       *bool       `toml:"watch_enabled"`
	BackupEnabled      *bool       `toml:"backup_enabled"`
	LogHealthChecks    *bool       `toml:"log_health_checks"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		CatalogDir:         "catalog",
		BatchSize:          100,
		ThumbnailMaxWidth:  200,
		ThumbnailMaxHeight: 150,
		FFmpegPath:         "ffmpeg",
		Port:               "8080",
		SyncInterval:       30 * time.Minute,
		BackupEnabled:      true,
	}
}

// ReadConfigFile decodes a TOML file and applies the keys it sets on top of cfg.
func ReadConfigFile(path string, cfg *Config) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}

	if len(fc.AssetDirs) > 0 {
		cfg.AssetDirs = fc.AssetDirs
	}
	if fc.CatalogDir != nil {
		cfg.CatalogDir = *fc.CatalogDir
	}
	if fc.BatchSize != nil {
		if *fc.BatchSize < 0 {
			return fmt.Errorf("reading config from %s: batch_size must be >= 0, got %d", path, *fc.BatchSize)
		}
		cfg.BatchSize = *fc.BatchSize
	}
	if fc.ThumbnailMaxWidth != nil {
		cfg.ThumbnailMaxWidth = *fc.ThumbnailMaxWidth
	}
	if fc.ThumbnailMaxHeight != nil {
		cfg.ThumbnailMaxHeight = *fc.ThumbnailMaxHeight
	}
	if fc.Hash != nil {
		cfg.Hash = *fc.Hash
	}
	if fc.AnalyseVideos != nil {
		cfg.AnalyseVideos = *fc.AnalyseVideos
	}
	if fc.FirstFrameDir != nil {
		cfg.FirstFrameDir = *fc.FirstFrameDir
	}
	if fc.FFmpegPath != nil {
		cfg.FFmpegPath = *fc.FFmpegPath
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.SyncInterval != nil {
		d, err := time.ParseDuration(*fc.SyncInterval)
		if err != nil {
			return fmt.Errorf("reading config from %s: sync_interval: %w", path, err)
		}
		cfg.SyncInterval = d
	}
	if fc.WatchEnabled != nil {
		cfg.WatchEnabled = *fc.WatchEnabled
	}
	if fc.BackupEnabled != nil {
		cfg.BackupEnabled = *fc.BackupEnabled
	}
	if fc.LogHealthChecks != nil {
		cfg.LogHealthChecks = *fc.LogHealthChecks
	}
	return nil
}

// applyEnv overrides cfg with any recognised environment variables.
func applyEnv(cfg *Config) {
	if dirs := os.Getenv("ASSET_DIRS"); dirs != "" {
		cfg.AssetDirs = filepath.SplitList(dirs)
	}
	cfg.CatalogDir = getEnv("CATALOG_DIR", cfg.CatalogDir)
	cfg.BatchSize = getEnvInt("CATALOG_BATCH_SIZE", cfg.BatchSize, 0)
	cfg.ThumbnailMaxWidth = getEnvInt("THUMBNAIL_MAX_WIDTH", cfg.ThumbnailMaxWidth, 1)
	cfg.ThumbnailMaxHeight = getEnvInt("THUMBNAIL_MAX_HEIGHT", cfg.ThumbnailMaxHeight, 1)
	cfg.Hash.SHA512 = getEnvBool("HASH_SHA512", cfg.Hash.SHA512)
	cfg.Hash.MD5 = getEnvBool("HASH_MD5", cfg.Hash.MD5)
	cfg.Hash.BLAKE2B = getEnvBool("HASH_BLAKE2B", cfg.Hash.BLAKE2B)
	cfg.Hash.PHash = getEnvBool("HASH_PHASH", cfg.Hash.PHash)
	cfg.Hash.DHash = getEnvBool("HASH_DHASH", cfg.Hash.DHash)
	cfg.AnalyseVideos = getEnvBool("ANALYSE_VIDEOS", cfg.AnalyseVideos)
	cfg.FirstFrameDir = getEnv("FIRST_FRAME_DIR", cfg.FirstFrameDir)
	cfg.FFmpegPath = getEnv("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.SyncInterval = getEnvDuration("SYNC_INTERVAL", cfg.SyncInterval)
	cfg.WatchEnabled = getEnvBool("WATCH_ENABLED", cfg.WatchEnabled)
	cfg.BackupEnabled = getEnvBool("BACKUP_ENABLED", cfg.BackupEnabled)
	cfg.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", cfg.LogHealthChecks)
}

// LoadConfig resolves and validates the configuration. configPath may be
// empty, in which case CATALOG_CONFIG is consulted.
func LoadConfig(configPath string) (*Config, error) {
	logSection("CONFIGURATION")

	cfg := DefaultConfig()

	if configPath == "" {
		configPath = os.Getenv("CATALOG_CONFIG")
	}
	if configPath != "" {
		logging.Info("  Config file:          %s", configPath)
		if err := ReadConfigFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	cfg.log()
	return cfg, nil
}

// resolve makes paths absolute, fills derived paths and prepares the catalog directory.
func (c *Config) resolve() error {
	if len(c.AssetDirs) == 0 {
		return fmt.Errorf("no asset directories configured (set ASSET_DIRS)")
	}

	roots := make([]string, 0, len(c.AssetDirs))
	seen := make(map[string]bool, len(c.AssetDirs))
	for _, dir := range c.AssetDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve asset directory %s: %w", dir, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return fmt.Errorf("no asset directories configured (set ASSET_DIRS)")
	}
	c.AssetDirs = roots

	catalogDir, err := filepath.Abs(c.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to resolve catalog directory path: %w", err)
	}
	c.CatalogDir = catalogDir
	c.JournalPath = filepath.Join(catalogDir, "journal.db")

	if c.FirstFrameDir == "" {
		c.FirstFrameDir = filepath.Join(catalogDir, "firstframes")
	}
	if c.FirstFrameDir, err = filepath.Abs(c.FirstFrameDir); err != nil {
		return fmt.Errorf("failed to resolve first frame directory path: %w", err)
	}

	logSection("DIRECTORY SETUP")

	for _, root := range c.AssetDirs {
		if err := checkAssetDir(root); err != nil {
			logging.Warn("  Asset directory issue: %v", err)
		}
	}

	if err := ensureDirectory(catalogDir, "catalog"); err != nil {
		return fmt.Errorf("catalog directory error: %w", err)
	}
	if err := testWriteAccess(catalogDir); err != nil {
		return fmt.Errorf("catalog directory is not writable: %w", err)
	}
	logging.Info("  [OK] Catalog directory is writable")

	if c.AnalyseVideos {
		if err := ensureDirectory(c.FirstFrameDir, "first frame"); err != nil {
			logging.Warn("  First frame directory issue: %v", err)
			logging.Warn("  Video analysis will be disabled")
			c.AnalyseVideos = false
		}
	}

	return nil
}

func (c *Config) log() {
	logging.Info("  ASSET_DIRS:           %s", strings.Join(c.AssetDirs, string(filepath.ListSeparator)))
	logging.Info("  CATALOG_DIR:          %s", c.CatalogDir)
	logging.Info("  CATALOG_BATCH_SIZE:   %d", c.BatchSize)
	logging.Info("  THUMBNAIL_MAX:        %dx%d", c.ThumbnailMaxWidth, c.ThumbnailMaxHeight)
	logging.Info("  HASH:                 %s", c.Hash.Algorithm())
	logging.Info("  ANALYSE_VIDEOS:       %v", c.AnalyseVideos)
	if c.AnalyseVideos {
		logging.Info("  FIRST_FRAME_DIR:      %s", c.FirstFrameDir)
		logging.Info("  FFMPEG_PATH:          %s", c.FFmpegPath)
	}
	logging.Info("  PORT:                 %s", c.Port)
	logging.Info("  SYNC_INTERVAL:        %v", c.SyncInterval)
	logging.Info("  WATCH_ENABLED:        %v", c.WatchEnabled)
	logging.Info("  BACKUP_ENABLED:       %v", c.BackupEnabled)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue, minValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < minValue {
		logging.Warn("Invalid integer value for %s: %q (minimum %d), using default: %d", key, value, minValue, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
