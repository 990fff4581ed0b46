package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/bmcu/bambubus.go/pkg/bridge/mqtt"
	"github.com/bmcu/bambubus.go/pkg/bus"
	"github.com/bmcu/bambubus.go/pkg/device"
	"github.com/bmcu/bambubus.go/pkg/framework"
	"github.com/bmcu/bambubus.go/pkg/transport/serial"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyUSB0", "serial device of the BMCU-C")
	baud         = flag.Int("baud", serial.DefaultBaud, "bus line rate")
	fallbackBaud = flag.Int("fallback-baud", 0, "baud to retry when the nominal rate is rejected")
	hostAddr     = flag.Int("host-address", int(bus.DefaultHostAddr), "bus address of this host")
	deviceAddr   = flag.Int("device-address", int(bus.DefaultDeviceAddr), "bus address of the BMCU-C")
	readInterval = flag.Duration("read-interval", device.DefaultReadInterval, "serial read tick period")
	pollInterval = flag.Duration("poll-interval", device.DefaultPollInterval, "status poll period")
	brokerURL    = flag.String("broker", "", "MQTT broker URL for the control/status bridge")
)

func main() {
	flag.Parse()

	port, err := serial.Open(serial.Config{
		Device:       *serialDevice,
		Baud:         *baud,
		FallbackBaud: *fallbackBaud,
	})
	if err != nil {
		glog.Exitf("serial setup failed: %v", err)
	}

	reactor := framework.NewReactor()
	drv := device.NewDriver(port, reactor, device.Config{
		HostAddr:     byte(*hostAddr),
		DeviceAddr:   byte(*deviceAddr),
		ReadInterval: *readInterval,
		PollInterval: *pollInterval,
	})

	runner := framework.NewRunner().HandleSignals()
	runner.Go(reactor, drv)
	if *brokerURL != "" {
		bridge, err := mqtt.NewBridge(*brokerURL, drv)
		if err != nil {
			glog.Exitf("bridge setup failed: %v", err)
		}
		runner.Go(bridge)
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
