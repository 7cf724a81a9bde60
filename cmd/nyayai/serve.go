package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nyayai/internal/assistant"
	"nyayai/internal/core/providers"
	"nyayai/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the NyayAI server",
	Long:  `Start the NyayAI HTTP API and begin accepting requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadApp()
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		st, err := rt.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		sessions := assistant.NewSessions(providers.NewFactory(rt.providerOptions()...), rt.assistantOptions())

		addr := fmt.Sprintf("%s:%d", rt.cfg.Server.Host, rt.cfg.Server.Port)
		srv := server.New(server.Options{
			Addr:            addr,
			ContextSections: rt.cfg.Assistant.ContextSections,
			MaxUploadBytes:  rt.cfg.Upload.MaxBytes(),
			RPS:             rt.cfg.RateLimit.RPS,
			Burst:           rt.cfg.RateLimit.Burst,
		}, st, sessions, rt.registry, rt.log)
		return srv.Start()
	},
}

func SetupServeCmd() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Server port")
	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "Server host")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}
