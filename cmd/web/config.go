package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"wordrelay/internal/game"
	"wordrelay/internal/grammar"
)

const releaseVersion = "0.4.0"

type Config struct {
	bind            string
	baseURL         string
	cheatPenalty    int
	diceMax         int
	diceMin         int
	duration        time.Duration
	grammarLanguage string
	grammarTimeout  time.Duration
	grammarURL      string
	logPretty       bool
	port            int
	sessionTimeout  time.Duration
	sweepInterval   time.Duration
	verbose         bool
	version         bool
	wordRepeat      int
	wordsFile       string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.duration < time.Minute {
		return fmt.Errorf("invalid duration (must be at least 1m): %s", c.duration)
	}
	if c.diceMin < 1 || c.diceMax < c.diceMin {
		return fmt.Errorf("invalid sentence length range: %d-%d", c.diceMin, c.diceMax)
	}
	if c.cheatPenalty < 1 {
		return errors.New("--cheat-penalty must be at least 1")
	}
	if c.wordRepeat < 1 {
		return errors.New("--word-repeat must be at least 1")
	}
	if c.grammarTimeout <= 0 {
		return errors.New("--grammar-timeout must be positive")
	}
	if c.sweepInterval <= 0 || c.sessionTimeout <= 0 {
		return errors.New("--sweep-interval and --session-timeout must be positive")
	}
	return nil
}

func (c *Config) addr() string {
	return fmt.Sprintf("%s:%d", c.bind, c.port)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WORDRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordrelay",
		Short:         "A timed two-player team relay: unscramble words, then write sentences with them.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDRELAY_BIND)")
	fs.StringVar(&cfg.baseURL, "base-url", "", "public URL used in join links and QR codes (env: WORDRELAY_BASE_URL)")
	fs.IntVar(&cfg.cheatPenalty, "cheat-penalty", game.DefaultCheatPenalty, "points lost when a player leaves the tab (env: WORDRELAY_CHEAT_PENALTY)")
	fs.IntVar(&cfg.diceMax, "dice-max", game.DefaultDiceMax, "longest required sentence, in words (env: WORDRELAY_DICE_MAX)")
	fs.IntVar(&cfg.diceMin, "dice-min", game.DefaultDiceMin, "shortest required sentence, in words (env: WORDRELAY_DICE_MIN)")
	fs.DurationVarP(&cfg.duration, "duration", "d", game.DefaultDuration, "default game length (env: WORDRELAY_DURATION)")
	fs.StringVar(&cfg.grammarLanguage, "grammar-language", "en-US", "language tag sent to the grammar service (env: WORDRELAY_GRAMMAR_LANGUAGE)")
	fs.DurationVar(&cfg.grammarTimeout, "grammar-timeout", grammar.DefaultTimeout, "time to wait for the grammar service (env: WORDRELAY_GRAMMAR_TIMEOUT)")
	fs.StringVar(&cfg.grammarURL, "grammar-url", grammar.DefaultLanguageToolURL, "LanguageTool check endpoint, empty for the offline check only (env: WORDRELAY_GRAMMAR_URL)")
	fs.BoolVar(&cfg.logPretty, "log-pretty", false, "human readable console logs (env: WORDRELAY_LOG_PRETTY)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDRELAY_PORT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are removed (env: WORDRELAY_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", time.Minute, "how often idle games are looked for (env: WORDRELAY_SWEEP_INTERVAL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WORDRELAY_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WORDRELAY_VERSION)")
	fs.IntVar(&cfg.wordRepeat, "word-repeat", game.DefaultWordRepeat, "times each word appears in a game (env: WORDRELAY_WORD_REPEAT)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "word list, one per line, instead of the built-in list (env: WORDRELAY_WORDS_FILE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordrelay v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
