// Command webtest runs browser test suites from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/harness"
	"github.com/wanmail/webtest/logging"
	"github.com/wanmail/webtest/report"
	"github.com/wanmail/webtest/screenshot"
)

var (
	envFlag = &cli.StringFlag{
		Name:    "env",
		Usage:   "environment profile to load (dev, staging, prod)",
		EnvVars: []string{config.EnvVar},
	}
	configDirFlag = &cli.StringFlag{
		Name:  "config-dir",
		Usage: "configuration root directory",
		Value: "config",
	}
	browserFlag = &cli.StringFlag{
		Name:    "browser",
		Usage:   "browser to drive (chrome, firefox, edge); overrides the profile",
		EnvVars: []string{"WEBTEST_BROWSER"},
	}
	headlessFlag = &cli.BoolFlag{
		Name:    "headless",
		Usage:   "run the browser headless; overrides the profile",
		EnvVars: []string{"WEBTEST_HEADLESS"},
	}
	hubFlag = &cli.StringFlag{
		Name:    "hub",
		Usage:   "Selenium Grid hub URL; overrides the profile",
		EnvVars: []string{"WEBTEST_HUB"},
	}
)

func main() {
	app := &cli.App{
		Name:  "webtest",
		Usage: "browser test automation harness",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the test suite and write reports",
				Flags:  []cli.Flag{envFlag, configDirFlag, browserFlag, headlessFlag, hubFlag},
				Action: runAction,
			},
			{
				Name:   "cleanup",
				Usage:  "prune reports and screenshots past the retention window",
				Flags:  []cli.Flag{envFlag, configDirFlag},
				Action: cleanupAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logging.New("webtest").Error("command failed", "error", err)
		os.Exit(2)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	overrides := map[string]string{}
	if c.IsSet(browserFlag.Name) {
		overrides["browser"] = c.String(browserFlag.Name)
	}
	if c.IsSet(headlessFlag.Name) {
		overrides["headless"] = fmt.Sprint(c.Bool(headlessFlag.Name))
	}
	if c.IsSet(hubFlag.Name) {
		overrides["grid.hub.url"] = c.String(hubFlag.Name)
	}
	return config.Load(c.String(envFlag.Name),
		config.WithDir(c.String(configDirFlag.Name)),
		config.WithOverrides(overrides))
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	html, err := report.NewHTMLSink(cfg.ReportsPath(), runID)
	if err != nil {
		return err
	}
	sink := report.NewMultiSink(report.NewConsoleSink(nil), html)

	suite := harness.NewSuite(cfg, sink)
	results, err := suite.Run(c.Context, loginCases())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "report written to %s\n", html.Path())
	if results.HasFailures() {
		return cli.Exit(fmt.Sprintf("%d of %d tests failed", results.Failed, len(results.Outcomes)), 1)
	}
	return nil
}

func cleanupAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	retention := cfg.ScreenshotRetention()
	for _, dir := range []string{cfg.ScreenshotsPath(), cfg.ReportsPath()} {
		removed, err := screenshot.CleanupOlderThan(dir, retention)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s: removed %d files older than %s\n", dir, removed, retention)
	}
	return nil
}
