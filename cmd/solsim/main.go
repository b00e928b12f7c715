package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/solsim/solsim/db/badgerdb"
	"github.com/solsim/solsim/executor"
	"github.com/solsim/solsim/server"
	"github.com/solsim/solsim/types"
)

var (
	config = flag.String("config", "", "Config directory")
	bind   = flag.String("bind", server.DefaultBindAddress, "API bind address")
)

func main() {
	flag.Parse()
	log.Logger = log.With().Caller().Logger()

	viper.SetDefault("rpcEndpoint", executor.DefaultRPCEndpoint)
	viper.SetDefault("commitmentLevel", string(types.CommitmentProcessed))
	viper.SetDefault("fetchPolicy", string(executor.FetchPolicyRefresh))
	viper.SetDefault("dbBackend", "memory")
	viper.SetDefault("dbDir", "/tmp/solsim/forkdb")
	if *config != "" {
		viper.AddConfigPath(*config)
		viper.SetConfigName("parameters")
		if err := viper.MergeInConfig(); err != nil {
			log.Error().Err(err).Msg("Fail to read config")
			os.Exit(1)
		}
	}

	commitment, err := types.ParseCommitment(viper.GetString("commitmentLevel"))
	if err != nil {
		log.Error().Err(err).Msg("Invalid commitment level")
		os.Exit(1)
	}
	fetchPolicy, err := executor.ParseFetchPolicy(viper.GetString("fetchPolicy"))
	if err != nil {
		log.Error().Err(err).Msg("Invalid fetch policy")
		os.Exit(1)
	}

	builder, err := executor.NewBuilder()
	if err != nil {
		log.Error().Err(err).Msg("Fail to seed genesis")
		os.Exit(1)
	}
	builder.SetRPCConfig(viper.GetString("rpcEndpoint"), commitment)
	builder.SetFetchPolicy(fetchPolicy)

	if viper.GetString("dbBackend") == "badgerdb" {
		store, dbErr := badgerdb.NewDB(viper.GetString("dbDir"))
		if dbErr != nil {
			log.Error().Err(dbErr).Msg("Fail to open badger fork store")
			os.Exit(1)
		}
		builder.SetStore(store)
	}

	exec, err := builder.Build()
	if err != nil {
		log.Error().Err(err).Msg("Fail to build executor")
		os.Exit(1)
	}
	defer exec.Close()

	srv, err := server.New(exec)
	if err != nil {
		log.Error().Err(err).Msg("Fail to create server")
		os.Exit(1)
	}
	if err := srv.Start(*bind); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		os.Exit(1)
	}
}
