package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialconnect/internal/config"
	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/graph"
	"github.com/dropDatabas3/socialconnect/internal/handshake"
	"github.com/dropDatabas3/socialconnect/internal/http/server"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/validation"
)

func userCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Usuarios"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Crea un usuario y lo selecciona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			c, err := s.Apply(func(c *configtree.AppConfig) (*configtree.AppConfig, error) { return c.AddUser(args[0]) })
			if err != nil {
				return err
			}
			return printJSON(c.CurrentSelection)
		},
	})
	return cmd
}

func brandCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "brand", Short: "Marcas del usuario seleccionado"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Crea una marca y la selecciona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			c, err := s.Apply(func(c *configtree.AppConfig) (*configtree.AppConfig, error) { return c.AddBrand(args[0]) })
			if err != nil {
				return err
			}
			return printJSON(c.CurrentSelection)
		},
	})
	return cmd
}

func selectCmd(g *globals) *cobra.Command {
	var sel configtree.Selection
	var platform string
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Cambia el usuario/marca/plataforma activos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if platform != "" {
				p, err := configtree.ParsePlatform(platform)
				if err != nil {
					return err
				}
				sel.Platform = p
			}
			s, err := openSession(g)
			if err != nil {
				return err
			}
			c, err := s.Apply(func(c *configtree.AppConfig) (*configtree.AppConfig, error) {
				if sel.User == "" {
					sel.User = c.CurrentSelection.User
				}
				return c.Select(sel), nil
			})
			if err != nil {
				return err
			}
			return printJSON(c.CurrentSelection)
		},
	}
	cmd.Flags().StringVar(&sel.User, "user", "", "Usuario (default: el actual)")
	cmd.Flags().StringVar(&sel.Brand, "brand", "", "Marca")
	cmd.Flags().StringVar(&platform, "platform", "", "Plataforma")
	return cmd
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Lee y escribe la marca seleccionada por path (ej. platforms.meta.dev.credentials.app_id)"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set PATH VALUE",
			Short: "Escribe un valor",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openSession(g)
				if err != nil {
					return err
				}
				_, err = s.Update(configtree.ParsePath(args[0]), args[1])
				return err
			},
		},
		&cobra.Command{
			Use:   "get PATH",
			Short: "Lee un valor",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openSession(g)
				if err != nil {
					return err
				}
				v, ok := s.Current().Get(configtree.ParsePath(args[0]))
				if !ok {
					return fmt.Errorf("%s: not found", args[0])
				}
				fmt.Println(v)
				return nil
			},
		},
	)
	return cmd
}

func connectCmd(g *globals) *cobra.Command {
	var (
		stage   string
		timeout time.Duration
		noOpen  bool
	)
	cmd := &cobra.Command{
		Use:   "connect PLATFORM",
		Short: "Abre la ventana de autorización y espera el resultado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configtree.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			st, err := configtree.ParseStage(stage)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			session, err := openSession(g)
			if err != nil {
				return err
			}
			rdb := openRedis(g)
			if rdb != nil {
				defer rdb.Close()
			}
			tokens, err := openTokens(g, rdb)
			if err != nil {
				return err
			}

			var (
				bus       events.Bus
				serverURL = g.serverURL
			)
			if rdb != nil {
				rb := events.NewRedisBus(rdb, g.channel)
				defer rb.Close()
				bus = rb
			} else {
				app, url, shutdown, err := embedded(ctx, g.configPath)
				if err != nil {
					return err
				}
				defer shutdown()
				bus, serverURL = app.Bus, url
			}

			var opener handshake.WindowOpener = handshake.BrowserOpener{}
			if noOpen {
				opener = handshake.OpenerFunc(func(_ context.Context, w handshake.WindowSpec) error {
					fmt.Fprintf(cmd.ErrOrStderr(), "Abrí esta URL (%s):\n  %s\n", w.Features(), w.URL)
					return nil
				})
			}

			coord, err := handshake.New(handshake.Deps{
				Session:   session,
				Tokens:    tokens,
				Bus:       bus,
				Opener:    opener,
				ServerURL: serverURL,
			})
			if err != nil {
				return err
			}
			defer coord.Close()

			pending, err := coord.Connect(ctx, p, st)
			if err != nil {
				return err
			}
			res, err := pending.Wait(ctx)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				pending.Cancel()
			}
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&stage, "stage", string(configtree.StageDev), "dev|live")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Tiempo máximo de espera (0 = sin límite)")
	cmd.Flags().BoolVar(&noOpen, "no-browser", false, "Imprime la URL en lugar de abrir el navegador")
	return cmd
}

// embedded levanta el servidor de auth en este proceso, compartiendo el bus en memoria.
func embedded(ctx context.Context, configPath string) (*server.App, string, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", nil, err
	}
	app, err := server.Build(ctx, cfg, server.Options{Version: "embedded"})
	if err != nil {
		return nil, "", nil, err
	}
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		_ = app.Close()
		return nil, "", nil, err
	}
	srv := &http.Server{Handler: app.Handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("embedded server stopped", logger.Err(err))
		}
	}()
	logger.L().Debug("embedded auth server", logger.String("addr", ln.Addr().String()))

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		_ = srv.Shutdown(sctx)
		_ = app.Close()
	}
	return app, cfg.Server.PublicURL, shutdown, nil
}

func validateCmd(g *globals) *cobra.Command {
	var (
		stage    string
		graphURL string
		remote   bool
	)
	cmd := &cobra.Command{
		Use:   "validate PLATFORM",
		Short: "Valida tokens y scopes del entorno activo contra el proveedor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configtree.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			st, err := configtree.ParseStage(stage)
			if err != nil {
				return err
			}
			session, err := openSession(g)
			if err != nil {
				return err
			}
			rdb := openRedis(g)
			if rdb != nil {
				defer rdb.Close()
			}
			tokens, err := openTokens(g, rdb)
			if err != nil {
				return err
			}

			env, ok := session.Current().ActiveEnvironment(p, st)
			if !ok {
				return fmt.Errorf("%s/%s: not configured for the selected brand", p, st)
			}
			var rep validation.Report
			if remote {
				// el access token del proveedor queda en el servidor; acá solo el SignedToken
				rep, err = validation.NewRemote(graph.New(), g.serverURL, tokens).ValidateEnvironment(cmd.Context(), p, st, env)
				if err != nil {
					return err
				}
			} else {
				rep = validation.ForMeta(tokens, validation.NewMetaIntrospector(graph.New(), graphURL)).ValidateEnvironment(cmd.Context(), p, st, env)
			}
			if err := printJSON(rep); err != nil {
				return err
			}
			if !rep.OK {
				return errors.New("validation failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", string(configtree.StageDev), "dev|live")
	cmd.Flags().StringVar(&graphURL, "graph-url", "", "Base del Graph API (default v19.0)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Validar vía POST /api/validate del servidor con el token de la conexión")
	return cmd
}
