// Command armboard launches a single Cortex-M board simulation and
// exposes it over the debug protocol of §4.8, optionally alongside an
// interactive console (§C14). Flag/action shape follows the pack's
// own urfave/cli v2 launcher convention; the interrupt-driven shutdown
// follows the pack's signal.Notify/channel pattern for stopping a
// running emulator cleanly.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/cortexsim/armboard/internal/board"
	_ "github.com/cortexsim/armboard/internal/boards/stm32c031"
	_ "github.com/cortexsim/armboard/internal/boards/stm32f4"
	_ "github.com/cortexsim/armboard/internal/boards/tm4c123"
	"github.com/cortexsim/armboard/internal/console"
	"github.com/cortexsim/armboard/internal/debugsession"
	"github.com/cortexsim/armboard/internal/firmware"
)

func main() {
	app := &cli.App{
		Name:  "armboard",
		Usage: "run a Cortex-M board simulation behind a debug server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "board", Required: true, Usage: fmt.Sprintf("board to simulate (%v)", board.ListAvailable())},
			&cli.StringFlag{Name: "firmware", Required: true, Usage: "path to a raw firmware image"},
			&cli.StringFlag{Name: "config", Usage: "override the board's bundled config.yaml"},
			&cli.StringFlag{Name: "host", Value: "127.0.0.1"},
			&cli.IntFlag{Name: "port", Value: 3333},
			&cli.BoolFlag{Name: "interactive", Usage: "start the interactive console instead of / alongside the debug server"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Printf("[board] fatal: %v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	boardName := c.String("board")
	cfg, err := loadConfig(boardName, c.String("config"))
	if err != nil {
		return err
	}

	image, err := firmware.Load(c.String("firmware"))
	if err != nil {
		return err
	}

	b, err := board.Create(boardName, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.AddressSpace().Flash().LoadImage(image); err != nil {
		return err
	}
	if err := b.Reset(); err != nil {
		return err
	}
	log.Printf("[board] %s ready, firmware %s loaded (%d bytes)", boardName, c.String("firmware"), len(image))

	debugger := debugsession.New(b)

	addr := net.JoinHostPort(c.String("host"), fmt.Sprintf("%d", c.Int("port")))
	server, err := debugsession.Listen(addr, debugger)
	if err != nil {
		return err
	}
	defer server.Close()
	log.Printf("[debug] listening on %s", server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[board] interrupt received, halting")
		debugger.Halt()
		server.Close()
	}()

	if c.Bool("interactive") {
		go func() {
			if err := server.Serve(); err != nil {
				log.Printf("[debug] server stopped: %v", err)
			}
		}()
		return console.New(debugger).Run()
	}

	if err := server.Serve(); err != nil {
		log.Printf("[debug] server stopped: %v", err)
	}
	return nil
}

func loadConfig(boardName, override string) (board.Config, error) {
	if override != "" {
		return board.LoadConfig(boardName, override)
	}
	defaultYAML, ok := board.DefaultConfig(boardName)
	if !ok {
		return board.Config{}, fmt.Errorf("unknown board %q", boardName)
	}
	return board.LoadConfigBytes(boardName, defaultYAML)
}
