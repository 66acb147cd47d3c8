/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/penny-vault/import-eastmoney/eastmoney"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "import-eastmoney",
	Short: "Download historical daily quotes for Shanghai/Shenzhen A-shares",
	Long: `Download historical daily quotes for the Shanghai/Shenzhen A-share
universe from eastmoney, append them to a CSV file and checkpoint progress so
an interrupted run resumes where it left off`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := eastmoney.NewConfig()
		if v := viper.GetString("start_date"); v != "" {
			cfg.StartDate = v
		}
		if v := viper.GetString("end_date"); v != "" {
			cfg.EndDate = v
		}
		if v := viper.GetString("output_file"); v != "" {
			cfg.OutputFile = v
		}
		if v := viper.GetString("status_file"); v != "" {
			cfg.StatusFile = v
		}
		if v := viper.GetInt("max_retries"); v > 0 {
			cfg.MaxRetries = v
		}
		if v := viper.GetInt("batch_size"); v > 0 {
			cfg.BatchSize = v
		}
		if v := viper.GetDuration("min_delay"); v > 0 {
			cfg.MinDelay = v
		}
		if v := viper.GetDuration("max_delay"); v > 0 {
			cfg.MaxDelay = v
		}
		if v := viper.GetInt("eastmoney_rate_limit"); v > 0 {
			cfg.RateLimit = v
		}
		cfg.Limit = viper.GetInt("limit")
		cfg.KeepFailed = viper.GetBool("keep_failed")

		universe := &eastmoney.Fallback{
			Primary: eastmoney.NewSpotUniverse(),
			Backup:  eastmoney.StaticUniverse(eastmoney.DefaultFallbackCodes),
		}

		downloader := eastmoney.NewDownloader(cfg, universe)
		summary, err := downloader.Run()
		if err != nil {
			log.Error().Err(err).Msg("download run failed")
			os.Exit(1)
		}

		fmt.Printf("Downloaded %d of %d stocks (%d failed) in %.1f minutes\n",
			summary.Succeeded, summary.Total, summary.Failed, summary.Elapsed.Minutes())
		fmt.Printf("Saved to %s (%.2f MB)\n",
			summary.OutputFile, float64(summary.OutputBytes)/1024/1024)

		if viper.GetString("parquet_file") != "" || viper.GetString("database.url") != "" {
			quotes, err := eastmoney.LoadQuotes(cfg.OutputFile)
			if err != nil {
				log.Error().Err(err).Msg("could not read output file for export")
				os.Exit(1)
			}
			if viper.GetString("parquet_file") != "" {
				eastmoney.SaveToParquet(quotes, viper.GetString("parquet_file"))
			}
			if viper.GetString("database.url") != "" {
				eastmoney.SaveToDatabase(quotes, viper.GetString("database.url"))
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLog)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is import-eastmoney.toml)")
	rootCmd.PersistentFlags().Bool("log.json", false, "print logs as json to stderr")
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log.json"))

	// Local flags
	rootCmd.Flags().String("start-date", "", "first day of the quote range (YYYYMMDD)")
	viper.BindPFlag("start_date", rootCmd.Flags().Lookup("start-date"))

	rootCmd.Flags().String("end-date", "", "last day of the quote range (YYYYMMDD)")
	viper.BindPFlag("end_date", rootCmd.Flags().Lookup("end-date"))

	rootCmd.Flags().StringP("output-file", "o", "", "CSV file quotes are appended to")
	viper.BindPFlag("output_file", rootCmd.Flags().Lookup("output-file"))

	rootCmd.Flags().String("status-file", "", "JSON checkpoint file for resumable runs")
	viper.BindPFlag("status_file", rootCmd.Flags().Lookup("status-file"))

	rootCmd.Flags().Int("max-retries", 5, "retry cap for transient fetch failures")
	viper.BindPFlag("max_retries", rootCmd.Flags().Lookup("max-retries"))

	rootCmd.Flags().Int("batch-size", 50, "stocks buffered before an append to the output file")
	viper.BindPFlag("batch_size", rootCmd.Flags().Lookup("batch-size"))

	rootCmd.Flags().Duration("min-delay", 0, "minimum pause between stocks")
	viper.BindPFlag("min_delay", rootCmd.Flags().Lookup("min-delay"))

	rootCmd.Flags().Duration("max-delay", 0, "maximum pause between stocks")
	viper.BindPFlag("max_delay", rootCmd.Flags().Lookup("max-delay"))

	rootCmd.Flags().Int("eastmoney-rate-limit", 5, "eastmoney rate limit (items per second)")
	viper.BindPFlag("eastmoney_rate_limit", rootCmd.Flags().Lookup("eastmoney-rate-limit"))

	rootCmd.Flags().Uint32P("limit", "l", 0, "limit universe to N stocks")
	viper.BindPFlag("limit", rootCmd.Flags().Lookup("limit"))

	rootCmd.Flags().Bool("keep-failed", false, "keep the checkpoint when some stocks never succeeded")
	viper.BindPFlag("keep_failed", rootCmd.Flags().Lookup("keep-failed"))

	rootCmd.Flags().String("parquet-file", "", "also save results to parquet")
	viper.BindPFlag("parquet_file", rootCmd.Flags().Lookup("parquet-file"))

	rootCmd.Flags().StringP("database-url", "d", "", "DSN for database connection")
	viper.BindPFlag("database.url", rootCmd.Flags().Lookup("database-url"))
}

func initLog() {
	if !viper.GetBool("log.json") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".import-eastmoney" (without extension).
		viper.AddConfigPath("/etc/import-eastmoney/") // path to look for the config file in
		viper.AddConfigPath(fmt.Sprintf("%s/.import-eastmoney", home))
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName("import-eastmoney")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("ConfigFile", viper.ConfigFileUsed()).Msg("Loaded config file")
	}
}
