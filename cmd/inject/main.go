package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/IgorYunusov/bluerain"
	"github.com/IgorYunusov/bluerain/memory"
)

// profile is the TOML shape accepted by --config. Flags override profile values.
type profile struct {
	Pid       uint     `toml:"pid"`
	Libraries []string `toml:"libraries"`
	Wait      string   `toml:"wait"`
	Eject     bool     `toml:"eject"`
}

func main() {
	app := cli.NewApp()
	app.Name = "inject"
	app.Usage = "load shared libraries into a local or remote process"
	app.Description = "injects the given libraries into the process selected by --pid, or into the current process when no pid is given"
	app.Args = true
	app.ArgsUsage = "library..."
	app.Flags = []cli.Flag{
		&cli.UintFlag{Name: "pid", Aliases: []string{"p"}, Usage: "target process id, 0 for the current process"},
		&cli.DurationFlag{Name: "wait", Aliases: []string{"w"}, Value: bluerain.DefaultWaitTimeout, Usage: "bound on waiting for the target's loader, 0 to fire and forget"},
		&cli.BoolFlag{Name: "eject", Aliases: []string{"e"}, Usage: "unload the injected libraries again before exiting"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML profile with pid, libraries, wait and eject"},
	}
	app.Action = action
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("failure %s", err)
	}
}

func action(ctx *cli.Context) (err error) {
	var p profile
	if f := ctx.String("config"); f != "" {
		if _, err = toml.DecodeFile(f, &p); err != nil {
			return fmt.Errorf("read profile %s: %w", f, err)
		}
	}
	wait := ctx.Duration("wait")
	if p.Wait != "" && !ctx.IsSet("wait") {
		if wait, err = time.ParseDuration(p.Wait); err != nil {
			return fmt.Errorf("profile wait: %w", err)
		}
	}
	if ctx.IsSet("pid") {
		p.Pid = ctx.Uint("pid")
	}
	if ctx.IsSet("eject") {
		p.Eject = ctx.Bool("eject")
	}
	p.Libraries = append(p.Libraries, ctx.Args().Slice()...)
	if len(p.Libraries) == 0 {
		return fmt.Errorf("missing libraries to inject")
	}

	mem := memory.Local()
	if p.Pid != 0 {
		if mem, err = memory.Open(uint32(p.Pid)); err != nil {
			return err
		}
		defer mem.Close()
	}
	opts := []bluerain.Option{bluerain.WithWaitTimeout(wait)}
	if p.Eject {
		opts = append(opts, bluerain.WithEjectOnClose())
	}
	inj, err := bluerain.New(mem, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inj.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for _, lib := range p.Libraries {
		var m bluerain.Module
		if m, err = inj.Inject(lib); err != nil {
			return err
		}
		if m.Handle == 0 {
			log.Printf("injected %s (not awaited)", m.Name)
		} else {
			log.Printf("injected %s (handle %#x)", m.Name, m.Handle)
		}
	}
	return nil
}
