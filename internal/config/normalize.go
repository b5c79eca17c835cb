package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScript()
	c.normalizeReplicate()
	c.normalizeSpeech()
	c.normalizeVideo()
	c.normalizeMux()
	c.normalizeNotifications()
	c.normalizeLogging()
	if c.Pipeline.PreviewLength <= 0 {
		c.Pipeline.PreviewLength = defaultPreviewLength
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	categories := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.scripts_dir", &c.Paths.ScriptsDir, defaultScriptsDir},
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.video_dir", &c.Paths.VideoDir, defaultVideoDir},
		{"paths.final_dir", &c.Paths.FinalDir, defaultFinalDir},
	}
	for _, category := range categories {
		if *category.value, err = c.resolveUnderOutput(*category.value, category.fallback); err != nil {
			return fmt.Errorf("%s: %w", category.key, err)
		}
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = c.resolveUnderOutput(c.Paths.HistoryDB, "history.db"); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

// resolveUnderOutput anchors relative values at OutputDir. Tilde and absolute
// values are expanded as-is.
func (c *Config) resolveUnderOutput(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) {
		value = filepath.Join(c.Paths.OutputDir, value)
	}
	return expandPath(value)
}

// SetOutputDir re-roots the category directories and history database under
// dir. Values that were configured as absolute paths outside the previous
// output directory are left alone.
func (c *Config) SetOutputDir(dir string) error {
	previous := c.Paths.OutputDir
	expanded, err := expandPath(strings.TrimSpace(dir))
	if err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if expanded == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	c.Paths.OutputDir = expanded
	for _, value := range []*string{&c.Paths.ScriptsDir, &c.Paths.AudioDir, &c.Paths.VideoDir, &c.Paths.FinalDir, &c.Paths.HistoryDB} {
		rel, err := filepath.Rel(previous, *value)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		*value = filepath.Join(expanded, rel)
	}
	return nil
}

func (c *Config) normalizeScript() {
	c.Script.APIKey = strings.TrimSpace(c.Script.APIKey)
	if c.Script.APIKey == "" {
		if value, ok := os.LookupEnv(EnvOpenAIKey); ok {
			c.Script.APIKey = strings.TrimSpace(value)
		}
	}
	c.Script.BaseURL = strings.TrimSpace(c.Script.BaseURL)
	c.Script.SystemPrompt = strings.TrimSpace(c.Script.SystemPrompt)
	c.Script.Model = strings.TrimSpace(c.Script.Model)
	if c.Script.Model == "" {
		c.Script.Model = defaultScriptModel
	}
	if c.Script.MaxTokens <= 0 {
		c.Script.MaxTokens = defaultScriptMaxTokens
	}
	if c.Script.TimeoutSeconds <= 0 {
		c.Script.TimeoutSeconds = defaultScriptTimeout
	}
}

func (c *Config) normalizeReplicate() {
	c.Replicate.APIToken = strings.TrimSpace(c.Replicate.APIToken)
	if c.Replicate.APIToken == "" {
		if value, ok := os.LookupEnv(EnvReplicateKey); ok && strings.TrimSpace(value) != "" {
			c.Replicate.APIToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv(EnvReplicateToken); ok {
			c.Replicate.APIToken = strings.TrimSpace(value)
		}
	}
	c.Replicate.BaseURL = strings.TrimRight(strings.TrimSpace(c.Replicate.BaseURL), "/")
	if c.Replicate.BaseURL == "" {
		c.Replicate.BaseURL = defaultReplicateBaseURL
	}
	if c.Replicate.TimeoutSeconds <= 0 {
		c.Replicate.TimeoutSeconds = defaultReplicateTimeout
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Version = strings.TrimSpace(c.Speech.Version)
	if c.Speech.Version == "" {
		c.Speech.Version = defaultSpeechVersion
	}
	c.Speech.Speaker = strings.TrimSpace(c.Speech.Speaker)
	if c.Speech.Speaker == "" {
		c.Speech.Speaker = defaultSpeechSpeaker
	}
	c.Speech.Language = strings.ToLower(strings.TrimSpace(c.Speech.Language))
	if c.Speech.Language == "" {
		c.Speech.Language = defaultSpeechLanguage
	}
	c.Speech.Preset = strings.TrimSpace(c.Speech.Preset)
	if c.Speech.Preset == "" {
		c.Speech.Preset = defaultSpeechPreset
	}
	if c.Speech.PollIntervalSeconds <= 0 {
		c.Speech.PollIntervalSeconds = defaultSpeechPoll
	}
}

func (c *Config) normalizeVideo() {
	c.Video.Version = strings.TrimSpace(c.Video.Version)
	if c.Video.Version == "" {
		c.Video.Version = defaultVideoVersion
	}
	c.Video.NegativePrompt = strings.TrimSpace(c.Video.NegativePrompt)
	if c.Video.NumOutputs <= 0 {
		c.Video.NumOutputs = defaultVideoOutputs
	}
	if c.Video.PollIntervalSeconds <= 0 {
		c.Video.PollIntervalSeconds = defaultVideoPoll
	}
}

func (c *Config) normalizeMux() {
	c.Mux.FFmpegBinary = strings.TrimSpace(c.Mux.FFmpegBinary)
	if c.Mux.FFmpegBinary == "" {
		c.Mux.FFmpegBinary = defaultFFmpegBinary
	}
	c.Mux.FFprobeBinary = strings.TrimSpace(c.Mux.FFprobeBinary)
	if c.Mux.FFprobeBinary == "" {
		c.Mux.FFprobeBinary = defaultFFprobeBinary
	}
	c.Mux.AudioCodec = strings.TrimSpace(c.Mux.AudioCodec)
	if c.Mux.AudioCodec == "" {
		c.Mux.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(EnvNtfyTopic); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
