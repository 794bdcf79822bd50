package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jorabin/sounds/internal/cadence"
	"github.com/jorabin/sounds/internal/player"
)

type playOptions struct {
	block bool
	file  string
	watch bool
}

var (
	playOpts playOptions

	playCmd = &cobra.Command{
		Use:   "play [SCRIPT|NAME]",
		Short: "Play a ToneScript or a named tone",
		Long: paragraph(fmt.Sprintf("\n%s a ToneScript given as text, read from a file, or picked by name from the catalog. "+
			"Use %s to list the names.", keyword("Play"), keyword("sounds list"))),
		Example: paragraph("sounds play us_busy\nsounds play \"440@-19,480@-19;10(2/4/1+2)\"\nsounds play --file ring.tone --watch"),
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeNames(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case playOpts.file != "" && len(args) > 0:
				return errors.New("give either a script or --file, not both")
			case playOpts.file == "" && len(args) == 0:
				return errors.New("missing script, name or --file")
			case playOpts.watch && playOpts.file == "":
				return errors.New("--watch needs --file")
			}
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			return runPlay(cmd.Context(), arg, playOpts)
		},
	}
)

func runPlay(ctx context.Context, arg string, opts playOptions) error {
	if opts.watch {
		return withSession(ctx, func(ctx context.Context, sess *session) error {
			return watchScript(ctx, sess.player, expandPath(opts.file), opts.block)
		})
	}

	var script *cadence.Script
	var err error
	if opts.file != "" {
		script, err = loadScriptFile(expandPath(opts.file))
	} else {
		script, err = resolveScript(arg)
	}
	if err != nil {
		return err
	}

	return withSession(ctx, func(ctx context.Context, sess *session) error {
		return playScript(ctx, sess.player, script, opts.block)
	})
}

// playScript queues script and waits until it has been played.
func playScript(ctx context.Context, p *player.Player, script *cadence.Script, block bool) error {
	log.Info("playing script", "script", script.Description, "sections", len(script.Sections), "duration_ms", script.Duration())
	items, err := p.PlayScript(ctx, script, block)
	if err != nil {
		return err
	}
	if block {
		return nil
	}
	return waitAll(ctx, p, items)
}

// resolveScript compiles a catalog name or literal ToneScript text.
func resolveScript(arg string) (*cadence.Script, error) {
	arg = strings.TrimSpace(arg)
	script, ok, err := cadence.Lookup(arg)
	if ok {
		return script, err
	}

	script, err = cadence.Parse(arg, arg)
	if err == nil {
		return script, nil
	}
	// something that does not look like a script was probably a name
	if !strings.ContainsAny(arg, "()") {
		if names := cadence.Search(arg); len(names) > 0 {
			return nil, fmt.Errorf("unknown tone %q, did you mean %s?", arg, strings.Join(names[:min(3, len(names))], ", "))
		}
		return nil, fmt.Errorf("unknown tone %q", arg)
	}
	return nil, err
}

func loadScriptFile(path string) (*cadence.Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read script: %w", err)
	}
	return cadence.Parse(filepath.Base(path), stripComments(string(b)))
}

// stripComments drops blank lines and lines starting with '#' so a script
// file can carry notes.
func stripComments(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "")
}

// watchScript plays the script in path and plays it again, from the start,
// whenever the file is written.
func watchScript(ctx context.Context, p *player.Player, path string, block bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	reload := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Debug("fsnotify error", "dir", dir, "error", err)
			}
		}
	})

	g.Go(func() error {
		for {
			script, err := loadScriptFile(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, errorText(err.Error()))
			} else {
				p.CancelCurrent()
				if _, err := p.PlayScript(ctx, script, block); err != nil && ctx.Err() == nil {
					log.Warn("unable to play script", "file", path, "error", err)
				}
			}

			select {
			case <-ctx.Done():
				return nil
			case <-reload:
			}
		}
	})

	return g.Wait()
}

func completeNames(prefix string) []string {
	var names []string
	for _, name := range cadence.Names() {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

func init() {
	playCmd.Flags().BoolVarP(&playOpts.block, "block", "b", false, "wait for each section before queueing the next")
	playCmd.Flags().StringVarP(&playOpts.file, "file", "f", "", "read the script from a file")
	playCmd.Flags().BoolVarP(&playOpts.watch, "watch", "w", false, "play the file again whenever it changes")
}
