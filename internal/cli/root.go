package cli

import (
	"fmt"
	"os"

	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	dbPath  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hopweaver",
	Short: "HopWeaver - claim caching and multi-hop annotation backend",
	Long: `HopWeaver builds the data side of a multi-hop question annotation
workflow: it caches web pages and extracted claim records in SQLite,
indexes claim topics for BM25 retrieval, and mediates live page fetches
and search API calls through the cache.

Typical flow:
  hopweaver seed target_topic.jsonl     # load the topic corpus
  hopweaver search "openai safety"      # rank cached topics
  hopweaver fetch https://example.com   # cache a page and its claims
  hopweaver compose --count 3           # generate a multi-hop question`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for HopWeaver.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("hopweaver v0.2.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.hopweaver/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: search_db.db)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.hopweaver")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match HOPWEAVER_*
	viper.SetEnvPrefix("HOPWEAVER")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the runtime configuration from defaults, the viper
// config file, and secret-bearing environment variables.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetInt("llm.chunk_size"); v > 0 {
		cfg.LLM.ChunkSize = v
	}
	if v := viper.GetInt("llm.max_chunks"); v > 0 {
		cfg.LLM.MaxChunks = v
	}
	if v := viper.GetString("index.topic_file"); v != "" {
		cfg.Index.TopicFile = v
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := viper.GetString("search.web_engine_id"); v != "" {
		cfg.Search.WebEngineID = v
	}

	// Secrets come from the environment, never the config file
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.LLM.APIKey = k
	}
	if k := os.Getenv("GOOGLE_SEARCH_API_KEY"); k != "" {
		cfg.Search.WebAPIKey = k
	}
	if k := os.Getenv("GOOGLE_SEARCH_ENGINE_ID"); k != "" {
		cfg.Search.WebEngineID = k
	}
	if k := os.Getenv("MEDIASTACK_API_KEY"); k != "" {
		cfg.Search.NewsAPIKey = k
	}

	cfg.Output.Verbose = verbose
	return cfg
}

// openStore opens the SQLite store at the configured path
func openStore(cfg *model.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	return st, nil
}
