package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-lumiwave/internal/audio"
	"github.com/coreman2200/funtimes-lumiwave/internal/client"
	"github.com/coreman2200/funtimes-lumiwave/internal/config"
	"github.com/coreman2200/funtimes-lumiwave/internal/discovery"
	"github.com/coreman2200/funtimes-lumiwave/internal/logging"
	"github.com/coreman2200/funtimes-lumiwave/internal/protocol"
	"github.com/coreman2200/funtimes-lumiwave/model"
)

const browseTimeout = 5 * time.Second

func main() {
	def := config.Default().Client
	var (
		configPath  = flag.String("config", "lumiwave.yaml", "path to the yaml config")
		envFile     = flag.String("env", ".env", "optional .env file")
		address     = flag.String("address", def.Address, "server host:port, or auto to browse mDNS")
		device      = flag.String("device", def.DeviceHint, "substring of the input device name")
		listDevices = flag.Bool("list-devices", false, "print input devices and exit")
		onlyColor   = flag.Bool("only-color", false, "stream colours")
		onlyInt     = flag.Bool("only-intensity", false, "stream intensities")
		colorInt    = flag.Bool("color-and-intensity", false, "stream colours and intensities")
		baseColor   = flag.String("base-color", def.BaseColor, "level meter colour, RRGGBB")
		history     = flag.Int("history", def.History, "samples of loudness history")
		queue       = flag.Int("queue", def.QueueSize, "levels buffered for the network")
	)
	flag.Parse()

	logger := logging.Configure("client")

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
	c := &cfg.Client
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			c.Address = *address
		case "device":
			c.DeviceHint = *device
		case "base-color":
			c.BaseColor = *baseColor
		case "history":
			c.History = *history
		case "queue":
			c.QueueSize = *queue
		}
	})

	if err := audio.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("audio init")
	}
	defer audio.Terminate()

	if *listDevices {
		names, err := audio.InputDevices()
		if err != nil {
			log.Fatal().Err(err).Msg("list devices")
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	mode, err := selectMode(c.Mode, map[protocol.Mode]bool{
		protocol.OnlyColor:         *onlyColor,
		protocol.OnlyIntensity:     *onlyInt,
		protocol.ColorAndIntensity: *colorInt,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mode")
	}
	if !mode.Supported() {
		log.Fatal().Err(protocol.ErrModeNotSupported).Str("mode", mode.String()).Msg("mode")
	}
	base, err := model.ParseHex(c.BaseColor)
	if err != nil {
		log.Fatal().Err(err).Msg("base colour")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := c.Address
	if addr == "" || strings.EqualFold(addr, "auto") {
		found, err := discovery.Browse(ctx, browseTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("no address given and none discovered")
		}
		addr = found.Addr
		logger.Info().Str("instance", found.Instance).Str("addr", addr).Msg("discovered server")
	}

	conn, err := client.Dial(ctx, addr)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer conn.Close()
	if err := client.Handshake(conn, mode, client.DefaultInit(base)); err != nil {
		log.Fatal().Err(err).Msg("handshake")
	}
	logger.Info().Str("addr", addr).Str("mode", mode.String()).Msg("connected")

	outbox := client.NewOutbox(c.QueueSize)
	proc := audio.NewProcessor(c.History)
	capture := audio.NewCapture(audio.Config{
		DeviceHint:      c.DeviceHint,
		SampleRate:      c.SampleRate,
		FramesPerBuffer: c.FramesPerBuffer,
		Channels:        1,
	})
	if err := capture.Open(client.Feed(proc, outbox)); err != nil {
		log.Fatal().Err(err).Msg("open capture")
	}
	defer capture.Close()
	logger.Info().Str("device", capture.Device().Name).Msg("capturing")

	w := client.NewWriter(conn, mode, outbox, c.WriteTimeout())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wrote := make(chan error, 1)
	go func() { wrote <- w.Run(ctx) }()

	if err := capture.Start(); err != nil {
		log.Fatal().Err(err).Msg("start capture")
	}
	go func() {
		fmt.Fprintln(os.Stderr, "Press Enter to stop.")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		cancel()
	}()
	go report(ctx, capture, outbox, w)

	select {
	case <-ctx.Done():
	case err := <-wrote:
		if err != nil {
			log.Error().Err(err).Msg("stream ended")
		}
	}
	cancel()
	if err := capture.Stop(); err != nil {
		log.Warn().Err(err).Msg("stop capture")
	}
	logger.Info().Uint64("sent", w.Sent()).Uint64("dropped", outbox.Dropped()).Msg("stopped")
}

// report logs capture overflows and dropped levels away from the audio thread.
func report(ctx context.Context, c *audio.Capture, o *client.Outbox, w *client.Writer) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	var lastOverflows, lastDropped uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		ov, dr := c.Overflows(), o.Dropped()
		if ov != lastOverflows {
			log.Warn().Uint64("overflows", ov-lastOverflows).Msg("audio input overflowed; levels may be stale")
		}
		if dr != lastDropped {
			log.Debug().Uint64("dropped", dr-lastDropped).Uint64("sent", w.Sent()).Msg("network slower than capture")
		}
		lastOverflows, lastDropped = ov, dr
	}
}

// selectMode needs exactly one mode flag, or none and a configured mode.
func selectMode(configured string, flags map[protocol.Mode]bool) (protocol.Mode, error) {
	var picked []protocol.Mode
	for m, on := range flags {
		if on {
			picked = append(picked, m)
		}
	}
	switch {
	case len(picked) == 1:
		return picked[0], nil
	case len(picked) > 1:
		return 0, errors.New("choose only one of -only-color, -only-intensity, -color-and-intensity")
	case configured != "":
		return protocol.ModeFromName(configured)
	}
	return 0, errors.New("one of -only-color, -only-intensity, -color-and-intensity is required")
}
