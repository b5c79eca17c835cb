package config

const (
	defaultConfigPath = "~/.config/reelsmith/config.toml"
	defaultOutputDir  = "outputs"
	defaultLogDir     = "~/.local/share/reelsmith/logs"
	defaultScriptsDir = "scripts"
	defaultAudioDir   = "audio"
	defaultVideoDir   = "video"
	defaultFinalDir   = "final"

	defaultScriptModel       = "gpt-4-turbo"
	defaultScriptTemperature = 0.7
	defaultScriptMaxTokens   = 1500
	defaultScriptTimeout     = 120

	defaultReplicateBaseURL = "https://api.replicate.com/v1"
	defaultReplicateTimeout = 60

	defaultSpeechVersion  = "ad76a56df6703904d3d2021a0ac213e8a714c493b5326546cd8ecf005fe74e22"
	defaultSpeechSpeaker  = "en_speaker_9"
	defaultSpeechLanguage = "pt"
	defaultSpeechPreset   = "balanced"
	defaultSpeechPoll     = 5

	defaultVideoVersion        = "a4a8bafd6089e5156a83b4b3b3a80cb615ddc4b643b92727abf9c59d5541d3e2"
	defaultVideoNegativePrompt = "Poor quality, blurry, distorted, unrealistic"
	defaultVideoWidth          = 1024
	defaultVideoHeight         = 576
	defaultVideoOutputs        = 1
	defaultVideoSteps          = 50
	defaultVideoGuidance       = 7.5
	defaultVideoPoll           = 10

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultAudioCodec    = "aac"

	defaultPreviewLength = 200
	defaultNotifyTimeout = 10
)

// Environment variable names consulted during normalization.
const (
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvReplicateKey   = "REPLICATE_API_KEY"
	EnvReplicateToken = "REPLICATE_API_TOKEN"
	EnvNtfyTopic      = "NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			ScriptsDir: defaultScriptsDir,
			AudioDir:   defaultAudioDir,
			VideoDir:   defaultVideoDir,
			FinalDir:   defaultFinalDir,
			LogDir:     defaultLogDir,
		},
		Script: Script{
			Model:          defaultScriptModel,
			Temperature:    defaultScriptTemperature,
			MaxTokens:      defaultScriptMaxTokens,
			TimeoutSeconds: defaultScriptTimeout,
		},
		Replicate: Replicate{
			BaseURL:        defaultReplicateBaseURL,
			TimeoutSeconds: defaultReplicateTimeout,
		},
		Speech: Speech{
			Version:             defaultSpeechVersion,
			Speaker:             defaultSpeechSpeaker,
			Language:            defaultSpeechLanguage,
			Preset:              defaultSpeechPreset,
			PollIntervalSeconds: defaultSpeechPoll,
		},
		Video: Video{
			Version:             defaultVideoVersion,
			NegativePrompt:      defaultVideoNegativePrompt,
			Width:               defaultVideoWidth,
			Height:              defaultVideoHeight,
			NumOutputs:          defaultVideoOutputs,
			InferenceSteps:      defaultVideoSteps,
			GuidanceScale:       defaultVideoGuidance,
			PollIntervalSeconds: defaultVideoPoll,
		},
		Mux: Mux{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			AudioCodec:    defaultAudioCodec,
			ProbeOutput:   true,
		},
		Pipeline: Pipeline{
			PreviewLength: defaultPreviewLength,
			RecordHistory: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
