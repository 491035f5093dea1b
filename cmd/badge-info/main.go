package main

import (
	"os"

	"github.com/samsamfire/gobadge/pkg/client"
	"github.com/samsamfire/gobadge/pkg/gatt/virtual"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	useVirtual := pflag.Bool("virtual", false, "query an in-process emulated badge")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if !*useVirtual {
		log.Error("no BLE backend selected, run with --virtual")
		os.Exit(2)
	}

	device := virtual.NewDevice(nil)
	defer device.Close()
	c := client.New(device.Connect())
	defer c.Disconnect()

	if err := c.Auth.Authenticate(); err != nil {
		log.Fatalf("authentication failed: %v", err)
	}

	features, err := c.Rcsp.FeatureMap()
	if err != nil {
		log.Fatalf("feature map: %v", err)
	}
	log.Infof("feature map : x%08x", features)

	info, err := c.Rcsp.TargetInfo(0xFFFFFFFF, 0x02)
	if err != nil {
		log.Fatalf("target info: %v", err)
	}
	log.Infof("name        : %v", info.Name)
	log.Infof("version     : %v", info.Version)

	battery, err := c.Rcsp.Battery()
	if err != nil {
		log.Fatalf("battery: %v", err)
	}
	log.Infof("battery     : %v%%", battery.Level)

	screen, err := c.Rcsp.Screen()
	if err != nil {
		log.Fatalf("screen: %v", err)
	}
	log.Infof("screen      : %vx%v, %v bytes storage", screen.Width, screen.Height, screen.Memory)
}
