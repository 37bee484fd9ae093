package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/google/shlex"

	"servostation/config"
	"servostation/host/serial"
	"servostation/host/station"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	script     = flag.String("script", "", "Run console commands from a file, one per line, then exit")
	evalOnly   = flag.Bool("e", false, "Run the command given as arguments, no interactive shell")
)

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *device != "" {
		cfg.Serial.Port = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	if cfg.Serial.Port == "" {
		cfg.Serial.Port = "/dev/ttyACM0"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// runScript feeds each non-empty, non-comment line of path to the shell
func runScript(sh *ishell.Shell, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if err := sh.Process(args...); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	return scanner.Err()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("%v", err)
	}

	glog.Infof("connecting to station on %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
	client, err := station.Connect(serial.FromConfig(cfg.Serial))
	if err != nil {
		glog.Exitf("connect failed: %v", err)
	}
	defer client.Close()

	sh := newShell(client, cfg.Console.Prompt)
	for _, line := range cfg.Console.Startup {
		reply, err := client.Exec(sh.ctx, line, station.DefaultQuiet)
		if err != nil {
			glog.Exitf("startup %q: %v", line, err)
		}
		for _, text := range reply {
			glog.Infof("startup %q: %s", line, text)
		}
	}

	switch {
	case *script != "":
		if err := runScript(sh.Shell, *script); err != nil {
			glog.Exitf("script: %v", err)
		}
	case flag.NArg() > 0:
		if err := sh.Process(flag.Args()...); err != nil {
			glog.Exitf("%v", err)
		}
	case *evalOnly:
		glog.Exit("command expected")
	default:
		sh.Println("Servo station console. Type 'help' for commands.")
		sh.Run()
	}
}
