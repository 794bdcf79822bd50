package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# log at debug level
debug: false

player:
  # sections waiting to be played
  queue_size: 16
  # slack allowed beyond the expected wait of a blocking play
  grace_period: "2s"
  # how long to wait for playback to stop on exit
  shutdown_timeout: "3s"

audio:
  # output device: oto (speakers) or null (silent)
  device: "oto"
  # 44100 or 48000
  sample_rate: 44100
  # periods of the lowest tone held in each rendered clip
  periods: 200

cache:
  # keep rendered clips on disk between runs
  disabled: false
  # defaults to the user cache directory
  dir: ""
  # size on disk in MB
  max_size: 64
  # zstd level, 0 stores clips uncompressed
  compression_level: 3
  # clips older than this are removed
  ttl: "720h"
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the sounds config file",
	Long: paragraph(fmt.Sprintf("\n%s the sounds config file in $EDITOR. A commented default is written first when the file is missing, "+
		"and the result is checked once the editor exits.", keyword("Edit"))),
	Example: paragraph("sounds config\nsounds config --config ~/tones/sounds.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Sounds", configFile)
		if err != nil {
			return fmt.Errorf("no editor for %s: %w", configFile, err)
		}
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("editor exited: %w", err)
		}

		if err := checkConfigFile(configFile); err != nil {
			fmt.Fprintln(os.Stderr, errorText(err.Error()))
			return fmt.Errorf("%s was saved but will be rejected", configFile)
		}
		fmt.Println("Config saved:", configFile)
		return nil
	},
}

// ensureConfigFile writes defaultConfig to configFile unless a file is
// already there. An empty configFile falls back to the file viper found.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		return errors.New("no config file location")
	}

	switch ext := path.Ext(configFile); ext {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("config %s: %q files are not supported, use .yml or .yaml", configFile, ext)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return fmt.Errorf("config directory: %w", err)
	}
	f, err := os.OpenFile(configFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := f.WriteString(defaultConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("write default config: %w", err)
	}
	return f.Close()
}

// checkConfigFile loads path on its own and validates the settings in it.
func checkConfigFile(path string) error {
	v := viper.New()
	setDefaults(v)
	if err := readConfigFile(v, path); err != nil {
		return err
	}
	_, err := loadSettings(v)
	return err
}
