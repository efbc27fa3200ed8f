package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TypeAddressable = "addressable"
	TypeAggregate   = "aggregate"
)

var ErrInvalid = errors.New("config: invalid")

type PowerCfg struct {
	WhiteCap  float64 `yaml:"white_cap"`  // 0 or >=1 disables
	BudgetMA  float64 `yaml:"budget_ma"`  // 0 disables
	LEDChanMA float64 `yaml:"led_chan_ma"`
}

type SPI struct {
	Port    string `yaml:"port"`     // spireg name, "" for the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type PWM struct {
	FreqHz   float64 `yaml:"freq_hz"`
	PinRed   int     `yaml:"pin_red"`
	PinGreen int     `yaml:"pin_green"`
	PinBlue  int     `yaml:"pin_blue"`
}

type LED struct {
	Type       string  `yaml:"type"` // "addressable" | "aggregate"
	Count      int     `yaml:"count"`
	Brightness float64 `yaml:"brightness"`
	Reverse    bool    `yaml:"reverse"`

	SPI   SPI      `yaml:"spi,omitempty"`
	PWM   PWM      `yaml:"pwm,omitempty"`
	Power PowerCfg `yaml:"power"`
}

type Standby struct {
	Enabled bool    `yaml:"enabled"`
	Speed   float64 `yaml:"speed"`
	Reverse bool    `yaml:"reverse"`
}

type Server struct {
	Port           int    `yaml:"port"`
	UpdatePeriodMs int    `yaml:"update_period_ms"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	StatusAddr     string `yaml:"status_addr"`
	Advertise      bool   `yaml:"advertise"`

	LED     LED     `yaml:"led"`
	Standby Standby `yaml:"standby"`
}

type Client struct {
	Address         string  `yaml:"address"` // host:port or "auto"
	DeviceHint      string  `yaml:"device_hint"`
	Mode            string  `yaml:"mode"`
	BaseColor       string  `yaml:"base_color"` // hex RRGGBB
	History         int     `yaml:"history"`
	QueueSize       int     `yaml:"queue_size"`
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	WriteTimeoutMs  int     `yaml:"write_timeout_ms"`
}

type Config struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Port:           20200,
			UpdatePeriodMs: 10,
			ReadTimeoutMs:  5000,
			LED: LED{
				Type:       TypeAddressable,
				Brightness: 1.0,
				SPI:        SPI{SpeedHz: 2500000},
				PWM:        PWM{FreqHz: 100, PinRed: 23, PinGreen: 24, PinBlue: 25},
				Power:      PowerCfg{LEDChanMA: 20},
			},
			Standby: Standby{Enabled: true, Speed: 1.0},
		},
		Client: Client{
			BaseColor:       "ff0000",
			History:         100_000,
			QueueSize:       8,
			SampleRate:      48000,
			FramesPerBuffer: 512,
			WriteTimeoutMs:  1000,
		},
	}
}

// Load overlays the yaml file at path on the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyEnv loads an optional .env file then applies LUMIWAVE_* overrides.
func (c *Config) ApplyEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flt := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	num("LUMIWAVE_PORT", &c.Server.Port)
	str("LUMIWAVE_LED_TYPE", &c.Server.LED.Type)
	num("LUMIWAVE_LED_COUNT", &c.Server.LED.Count)
	flt("LUMIWAVE_BRIGHTNESS", &c.Server.LED.Brightness)
	str("LUMIWAVE_STATUS_ADDR", &c.Server.StatusAddr)
	str("LUMIWAVE_ADDRESS", &c.Client.Address)
	str("LUMIWAVE_DEVICE", &c.Client.DeviceHint)
	str("LUMIWAVE_MODE", &c.Client.Mode)
	return errors.Join(errs...)
}

func (s Server) UpdatePeriod() time.Duration {
	return time.Duration(s.UpdatePeriodMs) * time.Millisecond
}

func (s Server) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func (c Client) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

// Validate checks the type-conditional LED parameters.
func (s Server) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, s.Port)
	}
	if s.UpdatePeriodMs <= 0 {
		return fmt.Errorf("%w: update period must be positive", ErrInvalid)
	}
	return s.LED.Validate()
}

func (l LED) Validate() error {
	if l.Brightness < 0 || l.Brightness > 1 {
		return fmt.Errorf("%w: brightness %v not in [0,1]", ErrInvalid, l.Brightness)
	}
	switch strings.ToLower(l.Type) {
	case TypeAddressable:
		if l.Count <= 0 {
			return fmt.Errorf("%w: led count is required for %s leds", ErrInvalid, TypeAddressable)
		}
	case TypeAggregate:
		if l.PWM.FreqHz <= 0 {
			return fmt.Errorf("%w: pwm frequency is required for %s leds", ErrInvalid, TypeAggregate)
		}
		pins := []int{l.PWM.PinRed, l.PWM.PinGreen, l.PWM.PinBlue}
		for i, p := range pins {
			if p < 0 {
				return fmt.Errorf("%w: pwm pin %d is negative", ErrInvalid, i)
			}
			for _, q := range pins[i+1:] {
				if p == q {
					return fmt.Errorf("%w: pwm pin %d used twice", ErrInvalid, p)
				}
			}
		}
	default:
		return fmt.Errorf("%w: unknown led type %q", ErrInvalid, l.Type)
	}
	return nil
}
