package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a-marczewski/temporalmem/internal/app"
	"github.com/a-marczewski/temporalmem/internal/memory"
)

const version = "v0.1.0"

var (
	configPath string
	userID     string
	statusFlag string
	turnID     string
	limitFlag  int
	typeFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "temporalmem",
	Short: "temporalmem - temporal memory for conversational agents",
	Long: `temporalmem maintains a per-user store of time-bounded factual memories
extracted from conversation, with conflict resolution, lazy expiration
and temporally-adjusted similarity search.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(completionCmd)

	addCmd.Flags().StringVarP(&userID, "user", "u", "", "owning user id")
	addCmd.Flags().StringVar(&turnID, "turn-id", "", "source conversational turn id")
	addCmd.MarkFlagRequired("user")

	listCmd.Flags().StringVarP(&userID, "user", "u", "", "owning user id")
	listCmd.Flags().StringVar(&statusFlag, "status", "active", "record status to list")
	listCmd.MarkFlagRequired("user")

	searchCmd.Flags().StringVarP(&userID, "user", "u", "", "owning user id")
	searchCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().StringVar(&typeFlag, "type", "", "restrict results to a memory type")
	searchCmd.MarkFlagRequired("user")

	reindexCmd.Flags().StringVarP(&userID, "user", "u", "", "owning user id")
	reindexCmd.Flags().StringVar(&statusFlag, "status", "active", "record status to reindex")
	reindexCmd.MarkFlagRequired("user")
}

// withApp wires the application, runs fn and releases resources
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.New(configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("temporalmem " + version)
	},
}

var addCmd = &cobra.Command{
	Use:   "add [message]",
	Short: "Extract and store memories from a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			messages := []memory.ChatMessage{{Role: "user", Content: args[0]}}
			result, err := a.Memory.Add(ctx, userID, messages, turnID)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's memories by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			records, err := a.Memory.List(ctx, userID, memory.Status(statusFlag))
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"results": records})
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Similarity search over a user's active memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			filters := map[string]string{}
			if typeFlag != "" {
				filters["type"] = typeFlag
			}
			results, err := a.Memory.Search(ctx, userID, args[0], limitFlag, filters)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"results": results})
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [id] [new text]",
	Short: "Replace a memory's text, archiving the old record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			rec, err := a.Memory.Update(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintf(os.Stderr, "memory %s not found\n", args[0])
				return nil
			}
			return printJSON(rec)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Mark a memory deleted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Memory.Delete(ctx, args[0])
		})
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recompute vector embeddings for a user's memories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			stats, err := a.Memory.Reindex(ctx, userID, memory.Status(statusFlag))
			if err != nil {
				return err
			}
			return printJSON(stats)
		})
	},
}

var completionCmd = &cobra.Command{
	Use:                   "completion [bash|zsh|fish|powershell]",
	Short:                 "Generate the autocompletion script for the specified shell",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
