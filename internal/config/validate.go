package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately through MissingCredentials so that a run can degrade to a
// warning instead of failing to load.
func (c *Config) Validate() error {
	if err := c.validateScript(); err != nil {
		return err
	}
	if err := c.validateReplicate(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScript() error {
	if c.Script.Temperature < 0 || c.Script.Temperature > 2 {
		return errors.New("script.temperature must be between 0 and 2")
	}
	if c.Script.BaseURL != "" {
		if err := validateURL(c.Script.BaseURL); err != nil {
			return fmt.Errorf("script.base_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateReplicate() error {
	if err := validateURL(c.Replicate.BaseURL); err != nil {
		return fmt.Errorf("replicate.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if _, err := language.Parse(c.Speech.Language); err != nil {
		return fmt.Errorf("speech.language %q is not a valid language tag: %w", c.Speech.Language, err)
	}
	if c.Speech.MaxWaitSeconds < 0 {
		return errors.New("speech.max_wait_seconds must be zero or positive")
	}
	if c.Speech.MaxPolls < 0 {
		return errors.New("speech.max_polls must be zero or positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	if c.Video.Width%8 != 0 || c.Video.Height%8 != 0 {
		return errors.New("video.width and video.height must be multiples of 8")
	}
	if c.Video.InferenceSteps <= 0 {
		return errors.New("video.num_inference_steps must be positive")
	}
	if c.Video.GuidanceScale <= 0 {
		return errors.New("video.guidance_scale must be positive")
	}
	if c.Video.MaxWaitSeconds < 0 {
		return errors.New("video.max_wait_seconds must be zero or positive")
	}
	if c.Video.MaxPolls < 0 {
		return errors.New("video.max_polls must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
