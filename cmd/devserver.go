package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/devserver"
	"github.com/Andres337939/libros-front/internal/log"
)

func newDevServerCmd(a *app) *cobra.Command {
	var (
		host string
		port int
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory library API for development",
		Long: `Starts an in-memory implementation of the library REST API. Data is
lost when the server stops. An administrator account is created from the
devserver_admin_username and devserver_admin_password options.`,
		Example: `  # Serve on the default port and point the client at it
  libros devserver &
  libros --api-url http://127.0.0.1:3000/api books`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.opts
			if cmd.Flags().Changed("host") {
				opts.DevServerHost = host
			}
			if cmd.Flags().Changed("port") {
				opts.DevServerPort = port
			}
			if cmd.Flags().Changed("seed") {
				opts.DevServerSeed = seed
			}

			s, err := devserver.New(devserver.Options{
				Host:          opts.DevServerHost,
				Port:          opts.DevServerPort,
				AdminUsername: opts.DevServerAdminUsername,
				AdminPassword: opts.DevServerAdminPassword,
				JWTSecret:     opts.DevServerJWTSecret,
				Seed:          opts.DevServerSeed,
			})
			if err != nil {
				return err
			}
			if _, err := s.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Library API available at http://%s:%d/api\n", opts.DevServerHost, opts.DevServerPort)

			<-cmd.Context().Done()
			log.Info("Development server stopped", zap.String("host", opts.DevServerHost), zap.Int("port", opts.DevServerPort))
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen address, overrides devserver_host")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port, overrides devserver_port")
	cmd.Flags().BoolVar(&seed, "seed", true, "Load the sample books")
	return cmd
}
