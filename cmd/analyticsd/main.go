// Command analyticsd runs the chat analytics HTTP API.
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/360techsys1/SalesAnalysis/config"
	srv "github.com/360techsys1/SalesAnalysis/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:   "analyticsd",
		Short: "Natural-language analytics chat over the sales database",
	}
	root.AddCommand(serveCMD())
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	var listen string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.General.Listen = listen
			}
			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	serve.Flags().StringVar(&listen, "addr", "", "listen address (overrides general.listen)")
	return serve
}
