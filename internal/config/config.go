package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for symlinkarr.
type Config struct {
	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Schedule is the cron schedule for the reconcile job in serve mode (e.g. "*/30 * * * *").
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
	// Paths holds the torrent and library root directories.
	Paths *PathsConfig `yaml:"paths" mapstructure:"paths"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Directories holds the names of the library category directories.
	Directories *DirectoriesConfig `yaml:"directories" mapstructure:"directories"`
	// Metadata holds the configuration for the metadata provider (OMDb).
	Metadata *MetadataConfig `yaml:"metadata" mapstructure:"metadata"`
	// Cache holds the cache engine configuration for metadata lookups.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
}

// PathsConfig holds the filesystem roots.
type PathsConfig struct {
	// Torrents is the directory containing one subdirectory per downloaded torrent.
	Torrents string `yaml:"torrents" mapstructure:"torrents"`
	// Library is the root of the organized media library.
	Library string `yaml:"library" mapstructure:"library"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
	// Reset drops and recreates all tables on start.
	Reset bool `yaml:"reset" mapstructure:"reset"`
}

// DirectoriesConfig holds the category directory names below the library root.
type DirectoriesConfig struct {
	// SeparateAnime puts anime into its own movie and show directories.
	SeparateAnime bool `yaml:"separate_anime" mapstructure:"separate_anime"`
	// Movies is the directory name for movies.
	Movies string `yaml:"movies" mapstructure:"movies"`
	// Shows is the directory name for shows.
	Shows string `yaml:"shows" mapstructure:"shows"`
	// AnimeMovies is the directory name for anime movies.
	AnimeMovies string `yaml:"anime_movies" mapstructure:"anime_movies"`
	// AnimeShows is the directory name for anime shows.
	AnimeShows string `yaml:"anime_shows" mapstructure:"anime_shows"`
}

// MetadataConfig holds the configuration for the OMDb API.
type MetadataConfig struct {
	// URL is the base URL of the OMDb API.
	URL string `yaml:"url" mapstructure:"url"`
	// APIKey is the OMDb API key.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// RequestsPerSecond limits the request rate against the API.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// MaxRetries is the number of retries for failed requests.
	MaxRetries uint64 `yaml:"max_retries" mapstructure:"max_retries"`
	// Timeout is the HTTP timeout of a single request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig holds the cache engine configuration.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long metadata lookups are cached.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// Dir returns the category directory name for a media item.
func (d *DirectoriesConfig) Dir(show, anime bool) string {
	switch {
	case show && anime && d.SeparateAnime:
		return d.AnimeShows
	case show:
		return d.Shows
	case anime && d.SeparateAnime:
		return d.AnimeMovies
	default:
		return d.Movies
	}
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	// bind some weirdly unsupported nested env vars
	bindNestedEnv(v)

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SYMLINKARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.symlinkarr")
		v.AddConfigPath("/etc/symlinkarr")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	} else {
		log.Warn("No config file found, using defaults and environment variables")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("schedule", "*/30 * * * *") // Every 30 minutes

	// Paths
	v.SetDefault("paths.torrents", "/mnt/remote/realdebrid/torrents")
	v.SetDefault("paths.library", "/mnt/plex")

	// Database
	v.SetDefault("database.path", "./data/symlinkarr.db")
	v.SetDefault("database.reset", false)

	// Library layout
	v.SetDefault("directories.separate_anime", true)
	v.SetDefault("directories.movies", "movies")
	v.SetDefault("directories.shows", "shows")
	v.SetDefault("directories.anime_movies", "anime_movies")
	v.SetDefault("directories.anime_shows", "anime_shows")

	// OMDb
	v.SetDefault("metadata.url", "https://www.omdbapi.com")
	v.SetDefault("metadata.requests_per_second", 5)
	v.SetDefault("metadata.max_retries", 3)
	v.SetDefault("metadata.timeout", 10*time.Second)

	// Cache
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 7*24*time.Hour)
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// Keys without a default have to be bound manually.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("metadata.api_key", "SYMLINKARR_METADATA_API_KEY")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing symlinkarr config")
	}

	if c.Schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	// Basic validation for cron format (5 fields)
	if len(strings.Fields(c.Schedule)) != 5 {
		return fmt.Errorf("schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
	}

	if c.Paths == nil {
		return fmt.Errorf("missing paths config")
	}
	if c.Paths.Torrents == "" {
		return fmt.Errorf("torrents path is required")
	}
	if c.Paths.Library == "" {
		return fmt.Errorf("library path is required")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Directories == nil {
		return fmt.Errorf("missing directories config")
	}
	dirs := map[string]string{
		"movies":       c.Directories.Movies,
		"shows":        c.Directories.Shows,
		"anime_movies": c.Directories.AnimeMovies,
		"anime_shows":  c.Directories.AnimeShows,
	}
	for key, name := range dirs {
		if name == "" {
			return fmt.Errorf("directory name for %s is required", key)
		}
		if strings.ContainsRune(name, filepath.Separator) {
			return fmt.Errorf("directory name %q for %s must not contain a path separator", name, key)
		}
	}

	if c.Metadata == nil {
		return fmt.Errorf("missing metadata config")
	}
	if c.Metadata.URL == "" {
		return fmt.Errorf("metadata URL is required")
	}
	if c.Metadata.APIKey == "" {
		return fmt.Errorf("metadata API key is required")
	}
	if c.Metadata.RequestsPerSecond <= 0 {
		return fmt.Errorf("metadata requests_per_second must be greater than 0")
	}

	if c.Cache != nil {
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	return nil
}

func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if c.Paths != nil {
		c.Paths.Torrents = pathSanitize(c.Paths.Torrents)
		c.Paths.Library = pathSanitize(c.Paths.Library)
	}

	if c.Directories != nil {
		c.Directories.Movies = strings.TrimSpace(c.Directories.Movies)
		c.Directories.Shows = strings.TrimSpace(c.Directories.Shows)
		c.Directories.AnimeMovies = strings.TrimSpace(c.Directories.AnimeMovies)
		c.Directories.AnimeShows = strings.TrimSpace(c.Directories.AnimeShows)
	}

	if c.Metadata != nil {
		c.Metadata.URL = urlSanitize(c.Metadata.URL)
	}
}

func pathSanitize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
