package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/meonBot/visualization.matrix/internal/app"
	"github.com/meonBot/visualization.matrix/internal/audio"
)

func main() {
	var (
		deviceName = flag.String("audio-device", "", "PortAudio input device (substring match, empty = auto)")
		width      = flag.Int("width", 1280, "Window width")
		height     = flag.Int("height", 720, "Window height")
		targetFPS  = flag.Float64("fps", 0, "Target frames per second (0 = from settings)")
		noAudio    = flag.Bool("no-audio", false, "Run with synthetic audio (for testing)")
		listDevs   = flag.Bool("list-audio-devices", false, "List audio input devices and exit")
		webPort    = flag.Int("web-port", 0, "Control server port (0 = disabled)")
		settings   = flag.String("settings", "settings.json", "Settings file path")
		resources  = flag.String("resources", "resources", "Resource directory (shaders, textures)")
		thumbs     = flag.String("thumbnails", "", "Album-art thumbnail cache directory")
		profile    = flag.String("profile", "", "Write per-frame timings to this CSV file")
		debug      = flag.Bool("debug", false, "Verbose logging")
	)
	flag.Parse()

	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid dimensions: %dx%d", *width, *height)
	}

	logger := log.New(os.Stderr, "[vismatrix] ", log.LstdFlags)
	if !*debug {
		logger.SetFlags(0)
	}

	if *listDevs {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("initialize PortAudio: %v", err)
		}
		defer audio.Terminate()

		devices, err := audio.ListDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		for _, dev := range devices {
			if dev.InputChannels == 0 {
				continue
			}
			fmt.Println(dev)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{
		DeviceName:    *deviceName,
		Width:         *width,
		Height:        *height,
		FPS:           *targetFPS,
		DisableAudio:  *noAudio,
		WebPort:       *webPort,
		SettingsPath:  *settings,
		ResourcesDir:  *resources,
		ThumbnailsDir: *thumbs,
		ProfilePath:   *profile,
		Log:           logger,
	})
	if err != nil {
		logger.Fatalf("start: %v", err)
	}
	defer a.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("keys: n=next preset  p=previous  r=random  1-9=select  q=quit")
	}

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("runtime error: %v", err)
	}
}
