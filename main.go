// parley CLI entry point
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	xterm "golang.org/x/term"

	"github.com/parleylabs/parley/internal/config"
	"github.com/parleylabs/parley/internal/domain"
	"github.com/parleylabs/parley/internal/latex"
	"github.com/parleylabs/parley/internal/mathtex"
	"github.com/parleylabs/parley/internal/provider"
	"github.com/parleylabs/parley/internal/raster"
	"github.com/parleylabs/parley/internal/repl"
	"github.com/parleylabs/parley/internal/store"
	"github.com/parleylabs/parley/internal/symbolic"
	"github.com/parleylabs/parley/internal/term"
	"github.com/parleylabs/parley/internal/tui"
)

const openRouterKeysURL = "https://openrouter.ai/keys"

var version = "dev"

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

func main() {
	versionFlag := flag.Bool("version", false, "Print version and exit")
	setupFlag := flag.Bool("setup", false, "Prompt for an OpenRouter API key and save it")
	modelFlag := flag.String("model", "", "Model name or alias (e.g. grok, openai/gpt-5-mini)")
	continueFlag := flag.String("c", "", "Resume a session (latest for cwd, or pass a session ID)")
	configFlag := flag.Bool("config", false, "Manage preferences: show|provider|display|get|set|reset")

	// A bare -c (no session ID) resumes the latest session for the cwd.
	// flag.Parse would reject it as a missing value, so strip it first.
	argv := make([]string, 0, len(os.Args)-1)
	resumeLatest := false
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "-c" && (i+1 == len(os.Args) || strings.HasPrefix(os.Args[i+1], "-")) {
			resumeLatest = true
			continue
		}
		argv = append(argv, os.Args[i])
	}
	flag.CommandLine.Parse(argv)

	logger := config.NewLogger()
	defer logger.Close()

	if *versionFlag {
		fmt.Printf("parley %s\n", version)
		return
	}

	if *setupFlag {
		if err := runSetup(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	prefs := config.LoadPreferences()

	if *configFlag {
		out, err := config.ExecuteConfigAction(&prefs, flag.Args())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	provider.SetOllamaBaseURL(prefs.OllamaURL)

	st, err := store.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	// Create or resume session
	cwd := tui.MustGetwd()
	var session *domain.Session
	resumed := false

	if *continueFlag != "" {
		session, err = st.FindSessionByPrefix(*continueFlag)
		if err == sql.ErrNoRows {
			fmt.Fprintf(os.Stderr, "no session matches %s\n", *continueFlag)
			os.Exit(1)
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		resumed = true
	} else if resumeLatest {
		session, err = st.LatestSession(cwd)
		if err == sql.ErrNoRows {
			fmt.Fprintf(os.Stderr, "no sessions found for %s\n", cwd)
			os.Exit(1)
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		resumed = true
	}

	if resumed {
		// Bump updated_at so a later bare -c resumes this session.
		if err := st.TouchSession(session.ID); err != nil {
			logger.Printf("touch session: %v", err)
		}
	}

	// Resolve the model: flag, then the resumed session's model, then
	// preferences, then the default.
	modelLabel := *modelFlag
	if modelLabel == "" && resumed && session.Model != "" {
		modelLabel = session.Model
	}
	if modelLabel == "" {
		modelLabel = prefs.Model
	}
	if modelLabel == "" {
		modelLabel = provider.DefaultModel
	}

	providerName, modelID := provider.ResolveProviderAndModel(modelLabel, prefs.Provider)
	prov, err := provider.GetProvider(providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Resolve the key against the provider actually selected, which may
	// differ from the configured one when the model spec forces a switch.
	keyPrefs := prefs
	keyPrefs.Provider = providerName
	apiKey, err := config.ResolveAPIKey(keyPrefs)
	if err != nil {
		printMissingKeyHelp()
		os.Exit(1)
	}

	if session == nil {
		session, err = st.CreateSession(cwd, modelID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating session: %v\n", err)
			os.Exit(1)
		}
	}

	backends := mathtex.Backends{
		TextEngine: latex.NewEngine(),
		Symbolic:   symbolic.NewEngine(),
	}
	if prefs.Render != config.RenderText {
		backends.Rasterizer = raster.NewRenderer()
	}

	r := repl.New(repl.Options{
		Store:    st,
		Session:  session,
		Renderer: tui.NewRenderer(mathtex.NewConverter(backends)),
		Caps:     term.Detect(),
		Prefs:    prefs,
		Provider: prov,
		Stream: provider.StreamOptions{
			Model:    modelID,
			APIKey:   apiKey,
			Referer:  prefs.Referer,
			AppTitle: prefs.AppTitle,
		},
		Logger:  logger,
		Resumed: resumed,
	})
	defer r.Close()

	if flag.NArg() > 0 {
		prompt := strings.Join(flag.Args(), " ")
		fmt.Printf("%s %s\n\n", tui.UserIconStyle.Render("You:"), prompt)
		fmt.Println(tui.AsstIconStyle.Render("AI:"))
		if err := r.RunOnce(prompt); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := r.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley failed: %v\n", err)
		os.Exit(1)
	}
}

// runSetup prompts for the OpenRouter API key with echo off and saves
// it to the config file. The keys URL prints first, with a scannable
// QR code.
func runSetup() error {
	fmt.Println("Get your API key at: " + openRouterKeysURL)
	if q, err := qrcode.New(openRouterKeysURL, qrcode.Low); err == nil {
		fmt.Print(q.ToSmallString(false))
	} else {
		fmt.Fprintf(os.Stderr, "QR generation failed: %v\n", err)
	}
	fmt.Println()

	fmt.Print("Enter your OpenRouter API key: ")
	keyBytes, err := xterm.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	key := config.SanitizeValue(string(keyBytes))
	if key == "" {
		return fmt.Errorf("no key entered")
	}

	prefs := config.LoadPreferences()
	prefs.APIKey = key
	if err := config.SavePreferences(prefs); err != nil {
		return err
	}
	fmt.Println(tui.SuccessStyle.Render("API key saved successfully!"))
	return nil
}

// printMissingKeyHelp explains how to configure the OpenRouter key.
func printMissingKeyHelp() {
	fmt.Println(tui.ErrorLineStyle.Render("No API key found!"))
	fmt.Println("Set your API key using one of these methods:")
	fmt.Println("1. Run: parley --setup")
	fmt.Println("2. Set environment variable: export OPENROUTER_API_KEY='your-key'")
	fmt.Println()
	fmt.Println("Get your API key at: " + openRouterKeysURL)
}
