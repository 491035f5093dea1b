package main

import (
	"os"
	"strings"

	"github.com/samsamfire/gobadge/pkg/client"
	"github.com/samsamfire/gobadge/pkg/gatt/virtual"
	"github.com/samsamfire/gobadge/pkg/session"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	input := pflag.StringP("input", "i", "", "artifact to upload (.jpg or .avi)")
	kindName := pflag.StringP("kind", "k", "", "artifact kind: still|animation (default from extension)")
	name := pflag.StringP("name", "n", "", "file name announced to the device")
	useVirtual := pflag.Bool("virtual", false, "upload to an in-process emulated badge")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *input == "" {
		log.Error("missing --input")
		pflag.Usage()
		os.Exit(2)
	}

	payload, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("reading %v: %v", *input, err)
	}

	kind := session.KindStill
	switch *kindName {
	case "animation":
		kind = session.KindAnimation
	case "still":
	case "":
		if strings.HasSuffix(strings.ToLower(*input), ".avi") {
			kind = session.KindAnimation
		}
	default:
		log.Fatalf("unknown kind %v", *kindName)
	}

	if !*useVirtual {
		// The GATT transport is platform specific; this tool only
		// ships the emulator backend. Library users wire their own
		// gatt.Transport and call client.New directly.
		log.Fatal("no BLE backend selected, run with --virtual")
	}

	device := virtual.NewDevice(nil)
	defer device.Close()
	c := client.New(device.Connect())
	defer c.Disconnect()

	err = c.Upload(payload, kind, &session.Options{
		Name: *name,
		Progress: func(sent, total uint32) {
			log.Infof("progress %v/%v bytes", sent, total)
		},
	})
	if err != nil {
		log.Fatalf("upload failed: %v", err)
	}
	log.Infof("upload complete, stored as %v", device.Path())
}
