package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bskari/go-fbw/config"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/servo"
)

const sweepStep = 5.0

func sweepServos(c config.Configuration, log *logger.MultiLogger) error {
	bench, err := servo.Open(c.Servo, log)
	if err != nil {
		return err
	}
	defer bench.Close()

	// Pause a bit after setting the first angle
	first := true
	err = bench.Sweep(sweepStep, func(angle float64) {
		fmt.Printf("Setting angle to %v\n", angle)
		if first {
			time.Sleep(3 * time.Second)
			first = false
		}
		time.Sleep(250 * time.Millisecond)
	})
	if err != nil {
		return err
	}
	time.Sleep(time.Second)
	return nil
}

// Manual testing with oscilloscope
func manualPulses(c config.Configuration, log *logger.MultiLogger) error {
	bench, err := servo.Open(c.Servo, log)
	if err != nil {
		return err
	}
	defer bench.Close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Set Hz to %v\n", servo.Hertz)
	fmt.Printf("Set Multiplier to %v\n", servo.Multiplier)
	line := strconv.Itoa(int(c.Servo.CenterUs))

	for line != "" {
		value, err := strconv.Atoi(line)
		if err != nil {
			fmt.Printf("Bad atoi: %v\n", err)
		} else if err := bench.SetPulse(uint32(value)); err != nil {
			fmt.Println(err)
		}

		fmt.Print("Enter pulse width in us: ")
		line, err = reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
	}
	return nil
}
