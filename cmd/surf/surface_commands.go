package main

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/surf/internal/config"
	"github.com/Gaurav-Gosain/surf/internal/ipc"
	"github.com/Gaurav-Gosain/surf/internal/surface"
)

// presentationFlags collects the command-line override layer for open and
// toggle. Only flags the user actually set are sent to the daemon; the
// daemon fills in the rest from its config file.
type presentationFlags struct {
	mode      string
	width     string
	height    string
	position  string
	margin    string
	direction string
	size      string
	command   string
	provider  string
	ephemeral bool
	send      string
}

func (f *presentationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "Presentation mode: float, split, or tab")
	cmd.Flags().StringVar(&f.width, "width", "", `Width as cells or percentage (e.g. "120", "80%")`)
	cmd.Flags().StringVar(&f.height, "height", "", `Height as cells or percentage`)
	cmd.Flags().StringVar(&f.position, "position", "", "Float anchor: center, top, bottom, left, right, top-left, top-right, bottom-left, bottom-right")
	cmd.Flags().StringVar(&f.margin, "margin", "", "Margin between a float and the screen edge")
	cmd.Flags().StringVar(&f.direction, "direction", "", "Split edge: top, bottom, left, or right")
	cmd.Flags().StringVar(&f.size, "size", "", "Split size along its direction (split mode only)")
	cmd.Flags().StringVar(&f.command, "cmd", "", "Command to run inside the surface")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Session provider backing the command (tmux, abduco)")
	cmd.Flags().BoolVar(&f.ephemeral, "ephemeral", false, "Tear the surface down completely on hide")
	cmd.Flags().StringVar(&f.send, "send", "", "Text sent to the surface's process shortly after a cold start")
}

// anySet reports whether the user set any presentation flag.
func (f *presentationFlags) anySet(cmd *cobra.Command) bool {
	for _, name := range []string{
		"mode", "width", "height", "position", "margin", "direction",
		"size", "cmd", "provider", "ephemeral", "send",
	} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// overrides builds the override layer from the flags that were set.
func (f *presentationFlags) overrides(cmd *cobra.Command) config.SurfaceConfig {
	sc := config.SurfaceConfig{
		Mode:      f.mode,
		Width:     f.width,
		Height:    f.height,
		Position:  f.position,
		Margin:    f.margin,
		Direction: f.direction,
		Size:      f.size,
		Command:   f.command,
		Provider:  f.provider,
		Send:      f.send,
	}
	if cmd.Flags().Changed("ephemeral") {
		sc.Ephemeral = &f.ephemeral
	}
	return sc
}

func client() *ipc.Client {
	return ipc.NewClient(socketPath)
}

func newOpenCmd() *cobra.Command {
	var flags presentationFlags
	cmd := &cobra.Command{
		Use:   "open <name>",
		Short: "Show a surface, creating it if needed",
		Long: `Show the named surface.

If the surface is already visible this refocuses it. If it was hidden the
existing content is reattached in a new window. Otherwise the surface is
created from scratch: config file settings for the name apply first, and
any flags given here override them.`,
		Example: `  surf open scratch
  surf open repl --mode split --direction right --size 40% --cmd python3
  surf open notes --mode tab --cmd "nvim ~/notes.md"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().Open(args[0], flags.overrides(cmd))
		},
	}
	flags.register(cmd)
	return cmd
}

func newToggleCmd() *cobra.Command {
	var flags presentationFlags
	cmd := &cobra.Command{
		Use:   "toggle <name>",
		Short: "Show a surface, or hide it if already visible",
		Long: `Toggle the named surface.

With no flags this flips the surface: hidden surfaces are shown, visible
ones are hidden. With flags the surface is shown (or refreshed in place if
already visible) using the given settings, which is what a keybinding that
always wants the surface front-and-center should use together with a
separate hide binding.`,
		Example: `  surf toggle scratch
  surf toggle scratch --width 90% --position top`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			if !flags.anySet(cmd) {
				visible, err := surfaceVisible(c, args[0])
				if err != nil {
					return err
				}
				if visible {
					return c.Toggle(args[0], nil)
				}
			}
			o := flags.overrides(cmd)
			return c.Toggle(args[0], &o)
		},
	}
	flags.register(cmd)
	return cmd
}

// surfaceVisible reports whether the named surface currently has a window.
func surfaceVisible(c *ipc.Client, name string) (bool, error) {
	infos, err := c.List()
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info.Name == name {
			return info.Open, nil
		}
	}
	return false, nil
}

func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide <name>",
		Short: "Hide a surface, keeping its process alive",
		Long: `Hide the named surface.

Floating and split surfaces have their window destroyed; tab surfaces are
switched away from but keep their tab. The backing process keeps running
unless the surface was opened as ephemeral.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().Hide(args[0])
		},
	}
}

func newResizeCmd() *cobra.Command {
	var width, height string
	cmd := &cobra.Command{
		Use:   "resize <name>",
		Short: "Change a visible surface's dimensions",
		Long: `Resize the named surface.

Dimensions take cells ("120"), percentages of the screen ("80%"), or
deltas relative to the current size ("+10", "-5%"). Split surfaces resize
along whichever dimension matches their direction; resizing a tab surface
is a no-op.`,
		Example: `  surf resize scratch --width 90% --height 30
  surf resize logs --height +5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width == "" && height == "" {
				return fmt.Errorf("nothing to resize: give --width and/or --height")
			}
			return client().Resize(args[0], width, height)
		},
	}
	cmd.Flags().StringVar(&width, "width", "", "New width (cells, percentage, or delta)")
	cmd.Flags().StringVar(&height, "height", "", "New height (cells, percentage, or delta)")
	return cmd
}

func newMoveCmd() *cobra.Command {
	var position, row, col, direction string
	cmd := &cobra.Command{
		Use:   "move <name>",
		Short: "Reposition a visible surface",
		Long: `Move the named surface.

Floating surfaces accept an anchor keyword (--position) and/or explicit
--row/--col tokens; explicit coordinates win where both are given. Split
surfaces accept --direction, which re-docks the pane to another screen
edge.`,
		Example: `  surf move scratch --position bottom-right
  surf move scratch --row 2 --col +10
  surf move logs --direction right`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if position == "" && row == "" && col == "" && direction == "" {
				return fmt.Errorf("nothing to move: give --position, --row/--col, or --direction")
			}
			return client().Move(args[0], surface.RepositionOpts{
				Position:  position,
				Row:       row,
				Col:       col,
				Direction: direction,
			})
		},
	}
	cmd.Flags().StringVar(&position, "position", "", "Float anchor keyword")
	cmd.Flags().StringVar(&row, "row", "", "Row (cells, percentage, or delta)")
	cmd.Flags().StringVar(&col, "col", "", "Column (cells, percentage, or delta)")
	cmd.Flags().StringVar(&direction, "direction", "", "New split edge: top, bottom, left, or right")
	return cmd
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Focus the next surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := client().Next()
			if err != nil {
				return err
			}
			fmt.Println(name)
			return nil
		},
	}
}

func newPrevCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Focus the previous surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := client().Prev()
			if err != nil {
				return err
			}
			fmt.Println(name)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List surfaces known to the daemon",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := client().List()
			if err != nil {
				return err
			}
			printSurfaceTable(infos)
			return nil
		},
	}
}

func printSurfaceTable(infos []surface.Info) {
	if len(infos) == 0 {
		fmt.Println("No surfaces. Open one with: surf open <name>")
		return
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		state := "hidden"
		if info.Open {
			state = "open"
		}
		rows = append(rows, []string{
			info.Name, info.Mode, state, info.WindowID, info.Command,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("Name", "Mode", "State", "Window", "Command").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Println(t.Render())
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().Shutdown()
		},
	}
}
