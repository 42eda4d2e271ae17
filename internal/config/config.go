package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds everything the toolkit reads at construction time, including
// the capability defaults (default voice, default language) persisted by the
// settings collaborator.
type Config struct {
	Server struct {
		// Host is the listen address. Loopback by default: the gateway
		// serves exactly one local client population.
		Host string `yaml:"host" env:"TOOLKIT_HOST" env-default:"127.0.0.1"`
		Port string `yaml:"port" env:"TOOLKIT_PORT" env-default:"8765"`

		// APIKey, when set, gates every route except /health.
		APIKey string `yaml:"api_key" env:"TOOLKIT_API_KEY" env-default:""`

		// Body size caps, echo BodyLimit syntax.
		MaxImageBody string `yaml:"max_image_body" env:"TOOLKIT_MAX_IMAGE_BODY" env-default:"50M"`
		MaxAudioBody string `yaml:"max_audio_body" env:"TOOLKIT_MAX_AUDIO_BODY" env-default:"100M"`
	} `yaml:"server"`

	Defaults struct {
		Language string `yaml:"language" env:"TOOLKIT_DEFAULT_LANGUAGE" env-default:"en-US"`
		Voice    string `yaml:"voice" env:"TOOLKIT_DEFAULT_VOICE" env-default:""`
	} `yaml:"defaults"`

	OCR struct {
		Command string `yaml:"command" env:"TOOLKIT_OCR_COMMAND" env-default:"tesseract"`
	} `yaml:"ocr"`

	TTS struct {
		Command       string `yaml:"command" env:"TOOLKIT_TTS_COMMAND" env-default:"piper-speak"`
		VoicesCommand string `yaml:"voices_command" env:"TOOLKIT_TTS_VOICES_COMMAND" env-default:""`
		SampleRate    int    `yaml:"sample_rate" env:"TOOLKIT_TTS_SAMPLE_RATE" env-default:"22050"`
		Channels      int    `yaml:"channels" env:"TOOLKIT_TTS_CHANNELS" env-default:"1"`
		EncoderCmd    string `yaml:"encoder_command" env:"TOOLKIT_ENCODER_COMMAND" env-default:"ffmpeg"`
	} `yaml:"tts"`

	STT struct {
		Command    string `yaml:"command" env:"TOOLKIT_STT_COMMAND" env-default:"whisper-cli"`
		ModelPath  string `yaml:"model_path" env:"TOOLKIT_STT_MODEL" env-default:""`
		SampleRate int    `yaml:"sample_rate" env:"TOOLKIT_STT_SAMPLE_RATE" env-default:"16000"`
		Channels   int    `yaml:"channels" env:"TOOLKIT_STT_CHANNELS" env-default:"1"`
	} `yaml:"stt"`

	History struct {
		Enabled bool   `yaml:"enabled" env:"TOOLKIT_HISTORY_ENABLED" env-default:"true"`
		Path    string `yaml:"path" env:"TOOLKIT_HISTORY_PATH" env-default:"data/history.db"`
	} `yaml:"history"`
}

// Load reads configuration from an optional yaml file and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
