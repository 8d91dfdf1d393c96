// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "socialconnect"})
//	defer logger.Sync()
//
// En handlers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Provider("facebook"))
//	log.Info("callback received", logger.State("callback_received"))
//
// Los middlewares HTTP inyectan un logger con request_id/method/path en el contexto;
// From(ctx) cae al singleton si no hay ninguno.
package logger
