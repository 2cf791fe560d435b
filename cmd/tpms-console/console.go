package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tpms-gateway/internal/tpms"
)

// Console runs decoder commands typed by a user against one sensor.
type Console struct {
	sensor *tpms.Sensor
	out    io.Writer
}

func NewConsole(sensor *tpms.Sensor, out io.Writer) *Console {
	return &Console{sensor: sensor, out: out}
}

// Exec runs one input line. It returns false when the user asked to quit.
func (c *Console) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "help", "?":
		c.printHelp()

	case "update", "u":
		if err := c.sensor.UpdateHex(arg); err != nil {
			c.printf("rejected: %v\n", err)
			return true
		}
		c.printf("ok: %s %.1f C %.1f kPa %.2f V\n",
			c.sensor.MACString(), c.sensor.Temperature(), c.sensor.PressureKPa(), c.sensor.Voltage())

	case "mac", "m":
		if arg == "" {
			if c.sensor.MACString() == "" {
				c.printf("mac: none (learning)\n")
				return true
			}
			c.printf("mac: %s (%s) configured=%t\n", c.sensor.MACString(), c.sensor.MACStringRaw(), c.sensor.MACConfigured())
			return true
		}
		if err := c.sensor.SetMACString(arg); err != nil {
			c.printf("error: %v\n", err)
			return true
		}
		c.printf("bound to %s\n", c.sensor.MACString())

	case "clear":
		c.sensor.ClearMAC()
		c.printf("mac cleared, learning from next packet\n")

	case "reset":
		c.sensor.Reset()
		c.printf("sensor reset\n")

	case "dump", "d":
		if err := c.sensor.WriteDebug(c.out); err != nil {
			c.printf("error: %v\n", err)
		}

	case "stale", "s":
		timeout := tpms.DefaultStaleTimeout
		if arg != "" {
			d, err := time.ParseDuration(arg)
			if err != nil || d < 0 {
				c.printf("error: invalid duration %q\n", arg)
				return true
			}
			timeout = d
		}
		age := "never"
		if d := c.sensor.TimeSinceUpdate(); d != tpms.MaxAge {
			age = d.String()
		}
		c.printf("stale=%t age=%s timeout=%s\n", c.sensor.IsStaleAfter(timeout), age, timeout)

	case "quit", "exit", "q":
		return false

	default:
		c.printf("unknown command %q, type 'help'\n", cmd)
	}
	return true
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printHelp() {
	c.printf(`Commands:
  update <hex>    decode one advertisement payload (separators allowed)
  mac [<mac>]     show or bind the sensor MAC
  clear           forget the MAC and learn from the next packet
  reset           clear all state
  dump            print every decoded and raw value
  stale [<dur>]   report staleness (default %s)
  quit            exit
`, tpms.DefaultStaleTimeout)
}
