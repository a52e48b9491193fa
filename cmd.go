package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/library"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/Xunop/e-shelf/internal/server"
	"github.com/Xunop/e-shelf/internal/storage"
	"github.com/Xunop/e-shelf/internal/store"
	"github.com/Xunop/e-shelf/internal/store/db"
	"github.com/Xunop/e-shelf/internal/version"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	greetingBanner = `
███████       ███████ ██   ██ ███████ ██      ███████
██            ██      ██   ██ ██      ██      ██
█████   █████ ███████ ███████ █████   ██      █████
██                 ██ ██   ██ ██      ██      ██
███████       ███████ ██   ██ ███████ ███████ ██
`
	shutdownTimeout = 10 * time.Second
)

var (
	configFile string
	favorites  bool

	rootCmd = &cobra.Command{
		Use:           "e-shelf",
		Short:         "E-Shelf keeps a local PDF library and remembers where you stopped reading",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the local API used by the reader UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			srv, err := server.NewServer(ctx, s)
			if err != nil {
				return err
			}
			// The engine must outlive ctx long enough to close the open book.
			if err := srv.Start(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			fmt.Print(greetingBanner)

			select {
			case <-ctx.Done():
				log.Info("Shutting down")
			case err := <-srv.Err():
				if err != nil {
					log.Error("Server stopped", zap.Error(err))
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	importCmd = &cobra.Command{
		Use:   "import <file>...",
		Short: "Copy documents into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, closeFn, err := openLibrary(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			books, err := lib.AddBooks(ctx, args)
			for _, b := range books {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d pages\n", b.ID, b.Name, b.PageCount)
			}
			return err
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the books in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, closeFn, err := openLibrary(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			find := &model.FindBook{}
			if favorites {
				find.IsFavorite = &favorites
			}
			books, err := lib.ListBooks(ctx, find)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPAGE\tPROGRESS")
			for _, b := range books {
				fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.1f%%\n", b.ID, b.Name, b.CurrentPage, b.PageCount, b.Progress())
			}
			return tw.Flush()
		},
	}

	removeCmd = &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove books and their files from the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, closeFn, err := openLibrary(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			for _, id := range args {
				if err := lib.DeleteBook(ctx, id); err != nil {
					return errors.Wrapf(err, "failed to remove %s", id)
				}
			}
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetCurrentVersion())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (toml, yaml or json)")
	listCmd.Flags().BoolVar(&favorites, "favorites", false, "only list favorite books")
	rootCmd.AddCommand(serveCmd, importCmd, listCmd, removeCmd, versionCmd)
}

func loadConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to load .env")
	}

	var err error
	if configFile != "" {
		_, err = config.ParseFile(configFile)
	} else {
		_, err = config.GetConfig()
	}
	if err != nil {
		return err
	}

	log.Logger = log.NewLogger()
	return nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	d, err := db.NewDB(config.Opts.DSN)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	s := store.NewStore(d.DB)
	if err := s.Ping(); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return s, nil
}

// openLibrary is for commands that run without the reader.
func openLibrary(ctx context.Context) (*library.Service, func(), error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	lib := library.NewService(s, storage.NewLocalStorage(config.Opts.Data), library.NewPDFInspector(), nil, nil)
	return lib, func() { s.Close() }, nil
}
