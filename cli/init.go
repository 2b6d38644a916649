package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/holdings/config"
)

type InitCmd struct {
	Path  string `help:"Where to write the manifest, defaults to --manifest." arg:"" optional:"" type:"path"`
	Force bool   `help:"Overwrite an existing manifest without asking." short:"f"`
}

func (cmd *InitCmd) Run(ctx *kong.Context, globals *Globals) error {
	path := cmd.Path
	if path == "" {
		path = globals.Manifest
	}

	if _, err := os.Stat(path); err == nil {
		overwrite := cmd.Force

		if !overwrite {
			confirmed, err := promptYesNo(fmt.Sprintf("Manifest %q already exists. Overwrite it?", path))
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			overwrite = confirmed
		}

		if !overwrite {
			return fmt.Errorf("manifest already exists: %s (use --force to overwrite)", path)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	if err := os.WriteFile(path, config.Sample(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Wrote sample manifest to %s", pathStyle.Render(path)))
	printInfof(ctx.Stdout, "Edit the document paths, then run %s", infoStyle.Render("holdings check"))

	return nil
}
