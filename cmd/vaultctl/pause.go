package main

import (
	"flag"
	"fmt"

	"vaultcore/config"
)

func runPause(args []string) error {
	fs := flag.NewFlagSet(pauseCommand, flag.ExitOnError)
	cfgPath := fs.String("config", "./vaultd.toml", "path to vaultd configuration")
	module := fs.String("module", "", "service to pause: lend, swap, or trade")
	undo := fs.Bool("resume", false, "resume the module instead of pausing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *module == "" {
		return fmt.Errorf("-module is required")
	}

	ok, err := confirmDestructive.Matches(
		fmt.Sprintf("type %q to confirm: ", *module),
		*module,
	)
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		return fmt.Errorf("confirmation did not match %q, aborting", *module)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *undo {
		cfg.Risk.Paused = removeModule(cfg.Risk.Paused, *module)
	} else if !cfg.IsPaused(*module) {
		cfg.Risk.Paused = append(cfg.Risk.Paused, *module)
	}

	if err := config.Save(*cfgPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("%s is now paused=%v\n", *module, !*undo)
	return nil
}

func removeModule(modules []string, module string) []string {
	out := modules[:0]
	for _, m := range modules {
		if m != module {
			out = append(out, m)
		}
	}
	return out
}
