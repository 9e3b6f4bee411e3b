package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yatube/database"
	"yatube/forms"
	"yatube/models"
	"yatube/repositories"
	"yatube/services"
	"yatube/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Info("schema up to date", "driver", cfg.DBDriver)

		if cfg.Seed {
			return database.SeedData(db)
		}
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupDescription string

var groupCreateCmd = &cobra.Command{
	Use:   "create <slug> <title>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, title := args[0], args[1]
		if !utils.IsValidSlug(slug) {
			return fmt.Errorf("invalid slug %q: use letters, digits, hyphens and underscores", slug)
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		group := &models.Group{Title: title, Slug: slug, Description: groupDescription}
		if err := repositories.NewGroupRepository(db).Create(cmd.Context(), group); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created group %d (%s)\n", group.ID, group.Slug)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		groups, err := repositories.NewGroupRepository(db).List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tTITLE")
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		return w.Flush()
	},
}

var (
	userEmail     string
	userFirstName string
	userLastName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username> <password>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		users := repositories.NewUserRepository(db)
		form := forms.SignupForm{
			FirstName: userFirstName,
			LastName:  userLastName,
			Username:  args[0],
			Email:     userEmail,
			Password1: args[1],
			Password2: args[1],
		}
		data, err := form.Validate(cmd.Context(), users)
		if err != nil {
			return err
		}

		auth := services.NewAuthService(users, cfg.JWTSecret, cfg.SessionTTL)
		user, err := auth.Register(cmd.Context(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Username)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached page",
	Long: "Drop every cached page. Only useful with CACHE_BACKEND=nats: the memory\n" +
		"cache lives inside the server process.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if cfg.CacheBackend == "memory" {
			fmt.Fprintln(os.Stderr, "warning: the memory cache belongs to the running server; nothing to clear here")
		}

		pages, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pages.Close()

		if err := pages.Clear(cmd.Context()); err != nil {
			return err
		}
		logger.Info("page cache cleared", "backend", cfg.CacheBackend)
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "group description")
	groupCmd.AddCommand(groupCreateCmd, groupListCmd)

	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "first name")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "last name")
	userCmd.AddCommand(userCreateCmd)

	cacheCmd.AddCommand(cacheClearCmd)
}
