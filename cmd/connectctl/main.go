package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// globals son los flags persistentes compartidos por todos los comandos.
type globals struct {
	seedPath   string
	statePath  string
	tokensPath string
	redisAddr  string
	redisDB    int
	prefix     string
	channel    string
	serverURL  string
	configPath string
	verbose    bool
}

func main() {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".socialconnect")
	g := &globals{}

	root := &cobra.Command{
		Use:           "connectctl",
		Short:         "Gestión de marcas y conexiones OAuth por plataforma",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := "warn"
			if g.verbose {
				lvl = "debug"
			}
			logger.Init(logger.Config{Env: "dev", Level: lvl, ServiceName: "connectctl"})
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.seedPath, "seed", envOr("SOCIALCONNECT_SEED", ""), "YAML inicial de configuración (env SOCIALCONNECT_SEED)")
	pf.StringVar(&g.statePath, "state", envOr("SOCIALCONNECT_STATE", filepath.Join(base, "state.json")), "Snapshot JSON de la sesión")
	pf.StringVar(&g.tokensPath, "tokens", envOr("SOCIALCONNECT_TOKENS", filepath.Join(base, "tokens.json")), "Archivo del token store local")
	pf.StringVar(&g.redisAddr, "redis", envOr("REDIS_ADDR", ""), "Redis compartido con el servidor; vacío => servidor embebido")
	pf.IntVar(&g.redisDB, "redis-db", 0, "DB de Redis")
	pf.StringVar(&g.prefix, "redis-prefix", envOr("REDIS_PREFIX", "socialconnect"), "Prefijo de claves en Redis")
	pf.StringVar(&g.channel, "channel", envOr("REDIS_CHANNEL", ""), "Canal Pub/Sub de mensajes de auth")
	pf.StringVar(&g.serverURL, "server", envOr("SOCIALCONNECT_SERVER", "http://localhost:8080"), "URL base del servidor de auth")
	pf.StringVar(&g.configPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "Config del servidor embebido")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Logs de debug")

	root.AddCommand(
		userCmd(g),
		brandCmd(g),
		selectCmd(g),
		configCmd(g),
		connectCmd(g),
		validateCmd(g),
	)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
