package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"servostation/host/station"
)

const shellKey = "$station"

// Shell is the ishell front end of a station connection
type Shell struct {
	*ishell.Shell

	ctx    context.Context
	client *station.Client
}

func newShell(client *station.Client, prompt string) *Shell {
	s := &Shell{
		Shell:  ishell.New(),
		ctx:    context.Background(),
		client: client,
	}
	s.Set(shellKey, s)
	s.SetPrompt(prompt)
	for _, cmd := range commands {
		s.AddCmd(cmd)
	}
	return s
}

func shellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// exec sends one station command and prints the reply
func exec(c *ishell.Context, line string) {
	s := shellFrom(c)
	reply, err := s.client.Exec(s.ctx, line, station.DefaultQuiet)
	if err != nil {
		c.Err(err)
		return
	}
	for _, text := range reply {
		c.Println(text)
	}
}

// channelCmd builds enable/disable, which take a channel number 1 or 2
func channelCmd(name, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: %s CHANNEL", name))
				return
			}
			exec(c, name+c.Args[0])
		},
	}
}

var commands = []*ishell.Cmd{
	channelCmd("enable", "CHANNEL: arm servo 1 or 2 and steer it"),
	channelCmd("disable", "CHANNEL: disarm servo 1 or 2"),
	{
		Name:    "angle",
		Aliases: []string{"a"},
		Help:    "DEGREES: set the steered servo (0-180)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: angle DEGREES"))
				return
			}
			deg, err := strconv.Atoi(c.Args[0])
			if err != nil || deg < 0 || deg > 180 {
				c.Err(fmt.Errorf("angle must be 0-180, got %q", c.Args[0]))
				return
			}
			exec(c, "angle "+strconv.Itoa(deg))
		},
	},
	{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "show both servos",
		Func:    func(c *ishell.Context) { exec(c, "status") },
	},
	{
		Name: "events",
		Help: "dump the station event log",
		Func: func(c *ishell.Context) { exec(c, "events") },
	},
	{
		Name: "send",
		Help: "LINE...: send a raw line to the station",
		Func: func(c *ishell.Context) { exec(c, strings.Join(c.Args, " ")) },
	},
	{
		Name: "watch",
		Help: "[SECONDS]: print station output (keypad entries) for a while",
		Func: func(c *ishell.Context) {
			d := 10 * time.Second
			if len(c.Args) > 0 {
				secs, err := strconv.Atoi(c.Args[0])
				if err != nil || secs <= 0 {
					c.Err(fmt.Errorf("bad duration %q", c.Args[0]))
					return
				}
				d = time.Duration(secs) * time.Second
			}
			s := shellFrom(c)
			deadline := time.After(d)
			for {
				select {
				case text, ok := <-s.client.Lines():
					if !ok {
						c.Err(station.ErrClosed)
						return
					}
					c.Println(text)
				case <-deadline:
					return
				}
			}
		},
	},
}
