package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-lumiwave/internal/config"
	"github.com/coreman2200/funtimes-lumiwave/internal/led"
	"github.com/coreman2200/funtimes-lumiwave/internal/logging"
	"github.com/coreman2200/funtimes-lumiwave/internal/server"
	"github.com/coreman2200/funtimes-lumiwave/internal/ws"
)

func main() {
	def := config.Default().Server
	var (
		configPath   = flag.String("config", "lumiwave.yaml", "path to the yaml config")
		envFile      = flag.String("env", ".env", "optional .env file")
		port         = flag.Int("port", def.Port, "TCP listen port")
		brightness   = flag.Float64("brightness", def.LED.Brightness, "global brightness 0..1")
		reset        = flag.Bool("reset", false, "turn the LEDs off and exit")
		ledType      = flag.String("type", def.LED.Type, "LED hardware: addressable | aggregate")
		count        = flag.Int("count", def.LED.Count, "LED count (addressable)")
		reverse      = flag.Bool("reverse", def.LED.Reverse, "strip is wired end to start")
		spiPort      = flag.String("spi", def.LED.SPI.Port, "SPI port name, empty for the first one")
		pwmFreq      = flag.Float64("pwm-freq", def.LED.PWM.FreqHz, "PWM frequency in Hz (aggregate)")
		pinRed       = flag.Int("pin-red", def.LED.PWM.PinRed, "BCM pin of the red channel (aggregate)")
		pinGreen     = flag.Int("pin-green", def.LED.PWM.PinGreen, "BCM pin of the green channel (aggregate)")
		pinBlue      = flag.Int("pin-blue", def.LED.PWM.PinBlue, "BCM pin of the blue channel (aggregate)")
		period       = flag.Int("update-period", def.UpdatePeriodMs, "standby update period in ms")
		readTimeout  = flag.Int("read-timeout", def.ReadTimeoutMs, "per-frame read timeout in ms, 0 disables")
		standby      = flag.Bool("standby", def.Standby.Enabled, "run the rainbow while idle")
		standbySpeed = flag.Float64("standby-speed", def.Standby.Speed, "standby rainbow turns per second")
		standbyRev   = flag.Bool("standby-reverse", def.Standby.Reverse, "reverse the standby rainbow")
		statusAddr   = flag.String("status-addr", def.StatusAddr, "HTTP address of the status surface, empty disables")
		advertise    = flag.Bool("advertise", def.Advertise, "advertise over mDNS")
	)
	flag.Parse()

	logger := logging.Configure("server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		}
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(*envFile); err != nil {
		log.Fatal().Err(err).Msg("environment")
	}

	// Flags given on the command line win over file and environment.
	s := &cfg.Server
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			s.Port = *port
		case "brightness":
			s.LED.Brightness = *brightness
		case "type":
			s.LED.Type = *ledType
		case "count":
			s.LED.Count = *count
		case "reverse":
			s.LED.Reverse = *reverse
		case "spi":
			s.LED.SPI.Port = *spiPort
		case "pwm-freq":
			s.LED.PWM.FreqHz = *pwmFreq
		case "pin-red":
			s.LED.PWM.PinRed = *pinRed
		case "pin-green":
			s.LED.PWM.PinGreen = *pinGreen
		case "pin-blue":
			s.LED.PWM.PinBlue = *pinBlue
		case "update-period":
			s.UpdatePeriodMs = *period
		case "read-timeout":
			s.ReadTimeoutMs = *readTimeout
		case "standby":
			s.Standby.Enabled = *standby
		case "standby-speed":
			s.Standby.Speed = *standbySpeed
		case "standby-reverse":
			s.Standby.Reverse = *standbyRev
		case "status-addr":
			s.StatusAddr = *statusAddr
		case "advertise":
			s.Advertise = *advertise
		}
	})
	if err := s.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	if _, err := host.Init(); err != nil {
		log.Fatal().Err(err).Msg("periph host init")
	}
	ctrl, hardware, err := led.Open(s.LED)
	if err != nil {
		log.Fatal().Err(err).Str("type", s.LED.Type).Msg("LED init failed")
	}
	if !hardware {
		log.Warn().Msg("no SPI port found; drawing to the console")
	}
	logger.Info().Str("type", s.LED.Type).Int("leds", ctrl.LedAmount()).Msg("LEDs ready")

	if *reset {
		if err := ctrl.Reset(); err != nil {
			log.Error().Err(err).Msg("reset")
		}
		_ = ctrl.Close()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		hub     *ws.Hub
		httpSrv *http.Server
	)
	if s.StatusAddr != "" {
		hub = ws.NewHub(ctrl.LedAmount(), s.LED.Type)
		go hub.Run(ctx)
		ctrl = led.NewPreview(ctrl, hub)
		httpSrv = &http.Server{
			Addr:         s.StatusAddr,
			Handler:      hub.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", s.StatusAddr).Msg("status server starting")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("status server crashed")
			}
		}()
	}

	srv := server.New(*s, ctrl, logger)
	if hub != nil {
		srv.WithObserver(hub)
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
	log.Info().Msg("shutting down")
	if httpSrv != nil {
		_ = httpSrv.Close()
	}
	if err := ctrl.Close(); err != nil {
		log.Warn().Err(err).Msg("close LEDs")
	}
}
