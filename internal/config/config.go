package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the output directory tree and log locations.
// Category directories are resolved relative to OutputDir unless absolute.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	ScriptsDir string `toml:"scripts_dir"`
	AudioDir   string `toml:"audio_dir"`
	VideoDir   string `toml:"video_dir"`
	FinalDir   string `toml:"final_dir"`
	LogDir     string `toml:"log_dir"`
	HistoryDB  string `toml:"history_db"`
}

// Script contains the chat-completion settings used to write narration.
type Script struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	SystemPrompt   string  `toml:"system_prompt"`
}

// Replicate contains the prediction platform connection settings shared by
// the speech and footage models.
type Replicate struct {
	APIToken       string `toml:"api_token"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains the text-to-speech model parameters.
type Speech struct {
	Version             string `toml:"version"`
	Speaker             string `toml:"speaker"`
	Language            string `toml:"language"`
	Preset              string `toml:"preset"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxWaitSeconds      int    `toml:"max_wait_seconds"`
	MaxPolls            int    `toml:"max_polls"`
}

// Video contains the footage model parameters.
type Video struct {
	Version             string  `toml:"version"`
	NegativePrompt      string  `toml:"negative_prompt"`
	Width               int     `toml:"width"`
	Height              int     `toml:"height"`
	NumOutputs          int     `toml:"num_outputs"`
	InferenceSteps      int     `toml:"num_inference_steps"`
	GuidanceScale       float64 `toml:"guidance_scale"`
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	MaxWaitSeconds      int     `toml:"max_wait_seconds"`
	MaxPolls            int     `toml:"max_polls"`
}

// Mux contains the ffmpeg invocation settings.
type Mux struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	AudioCodec    string `toml:"audio_codec"`
	ProbeOutput   bool   `toml:"probe_output"`
}

// Pipeline contains orchestration toggles.
type Pipeline struct {
	ParallelSynthesis bool `toml:"parallel_synthesis"`
	PreviewLength     int  `toml:"preview_length"`
	RecordHistory     bool `toml:"record_history"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: output tree, log directory, run history database
//   - Script: chat-completion service for narration scripts
//   - Replicate: prediction platform credentials and endpoint
//   - Speech: text-to-speech model inputs and polling bounds
//   - Video: footage model inputs and polling bounds
//   - Mux: ffmpeg/ffprobe binaries, audio codec, output probing
//   - Pipeline: parallel synthesis, preview length, history recording
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Script        Script        `toml:"script"`
	Replicate     Replicate     `toml:"replicate"`
	Speech        Speech        `toml:"speech"`
	Video         Video         `toml:"video"`
	Mux           Mux           `toml:"mux"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Missing credentials are not a load error; see
// MissingCredentials.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error; the boolean reports whether one was read.
func LoadEnvFile(path string) (bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("load env file %s: %w", path, err)
	}
	return true, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// OutputDirs returns the four artifact category directories in pipeline order:
// scripts, audio, video, final.
func (c *Config) OutputDirs() []string {
	return []string{c.Paths.ScriptsDir, c.Paths.AudioDir, c.Paths.VideoDir, c.Paths.FinalDir}
}

// EnsureDirectories creates the output tree and the log directory.
func (c *Config) EnsureDirectories() error {
	dirs := append([]string{c.Paths.OutputDir}, c.OutputDirs()...)
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MissingCredentials lists the environment variable names whose values are
// required before any network call and are currently unset.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if strings.TrimSpace(c.Script.APIKey) == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if strings.TrimSpace(c.Replicate.APIToken) == "" {
		missing = append(missing, EnvReplicateKey)
	}
	return missing
}

// ScriptTimeout returns the per-request timeout for the chat-completion call.
func (c *Config) ScriptTimeout() time.Duration {
	return seconds(c.Script.TimeoutSeconds)
}

// ReplicateTimeout returns the per-request timeout for prediction API calls.
func (c *Config) ReplicateTimeout() time.Duration {
	return seconds(c.Replicate.TimeoutSeconds)
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return seconds(c.Notifications.RequestTimeout)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
