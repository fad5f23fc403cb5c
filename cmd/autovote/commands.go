package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
)

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote for every eligible project now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		e, err := openEnv(ctx, envOptions{withBrowser: true})
		if err != nil {
			return err
		}
		defer e.Close()

		if _, err := e.app.Stats.RolloverIfNewDay(ctx, time.Now()); err != nil {
			return err
		}
		result, err := e.app.Runner.Batch(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderBatch(result))
		if result.Opened > 0 {
			fmt.Println(labelStyle.Render("Waiting for tabs to finish..."))
		}
		return nil
	},
}

var visitCmd = &cobra.Command{
	Use:   "visit <url>",
	Short: "Open a vote page in a visible browser and vote if it belongs to an eligible project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		e, err := openEnv(ctx, envOptions{withBrowser: true, headful: true})
		if err != nil {
			return err
		}
		defer e.Close()

		attempt, err := e.app.Runner.Visit(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(renderAttempt(attempt))
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage vote projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		projects, err := e.app.Projects.List(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(renderProjects(projects, time.Now()))
		return nil
	},
}

var projectsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a project",
	Example: `  autovote projects add --name Skyblock --username steve \
    --url https://minecraft-mp.com/server/1/vote/ --interval 24`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		username, _ := cmd.Flags().GetString("username")
		url, _ := cmd.Flags().GetString("url")
		hours, _ := cmd.Flags().GetFloat64("interval")
		disabled, _ := cmd.Flags().GetBool("disabled")

		interval, err := project.IntervalFromHours(hours)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		created, err := e.app.Projects.Create(cmd.Context(), project.CreateRequest{
			Name:     name,
			Username: username,
			URL:      url,
			Interval: interval,
			Enabled:  !disabled,
		})
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Added %s (%s)", created.Name, created.ID)))
		return nil
	},
}

var projectsToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Enable or disable a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		updated, err := e.app.Projects.Toggle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s enabled: %s\n", updated.Name, onOff(updated.Enabled))
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.app.Projects.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Deleted " + args[0]))
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.app.Settings.Get(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(renderSettings(s))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; only the flags given are changed",
	Example: `  autovote settings set --captcha-warnings=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req settings.UpdateRequest
		req.NotificationsEnabled = boolFlag(cmd, "notifications")
		req.AutoVoteOnVisit = boolFlag(cmd, "auto-vote")
		req.CaptchaWarnings = boolFlag(cmd, "captcha-warnings")

		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.app.Settings.Update(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Println(renderSettings(s))
		return nil
	},
}

// boolFlag returns nil unless the flag was given on the command line.
func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vote counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, _ := cmd.Flags().GetBool("reset")

		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		if _, err := e.app.Stats.RolloverIfNewDay(ctx, time.Now()); err != nil {
			return err
		}
		get := e.app.Stats.Get
		if reset {
			get = e.app.Stats.ResetAll
		}
		s, err := get(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderStats(s))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many projects can vote and when the next one is due",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		summary, err := e.app.Projects.Summary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(renderStatus(summary, time.Now()))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all projects, settings and stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to clear without --yes")
		}

		e, err := openEnv(cmd.Context(), envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.app.Store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("All data cleared"))
		return nil
	},
}

func init() {
	projectsAddCmd.Flags().String("name", "", "Server display name")
	projectsAddCmd.Flags().String("username", "", "In-game username")
	projectsAddCmd.Flags().String("url", "", "Vote page URL")
	projectsAddCmd.Flags().Float64("interval", 24, "Hours between votes")
	projectsAddCmd.Flags().Bool("disabled", false, "Add the project disabled")
	_ = projectsAddCmd.MarkFlagRequired("name")
	_ = projectsAddCmd.MarkFlagRequired("username")
	_ = projectsAddCmd.MarkFlagRequired("url")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsAddCmd)
	projectsCmd.AddCommand(projectsToggleCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)

	settingsSetCmd.Flags().Bool("notifications", true, "Notify after each vote")
	settingsSetCmd.Flags().Bool("auto-vote", true, "Vote automatically when a project page is visited")
	settingsSetCmd.Flags().Bool("captcha-warnings", true, "Warn on pages with a CAPTCHA")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	statsCmd.Flags().Bool("reset", false, "Zero all counters")

	clearCmd.Flags().Bool("yes", false, "Confirm deleting everything")
}
