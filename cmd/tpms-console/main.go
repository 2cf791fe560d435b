// tpms-console is an interactive DJ TPMS decoder for inspecting captured
// advertisement payloads without a Bluetooth adapter.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"tpms-gateway/internal/config"
	"tpms-gateway/internal/logging"
	"tpms-gateway/internal/tpms"
)

var version = "dev"
var appName = "tpms-console"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tpms> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	slog.SetDefault(logging.NewWithWriter(rl.Stderr(), cfg, version, appName))

	sensor := tpms.New()
	if cfg.TPMSMAC != "" {
		if err := sensor.SetMACString(cfg.TPMSMAC); err != nil {
			slog.Error("invalid TPMS_MAC", "error", err)
			os.Exit(1)
		}
	}

	console := NewConsole(sensor, rl.Stdout())
	console.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}
		if !console.Exec(line) {
			return
		}
		slog.Debug("command", "line", strings.TrimSpace(line), "sensor", sensor)
	}
}
