package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/samuelfneumann/fblearn/experiment"
)

// loadConfig reads a JSON, YAML or TOML configuration file. Settings in
// the file override the defaults of experiment.DefaultConfig.
func loadConfig(path string) (experiment.Config, error) {
	c := experiment.DefaultConfig()
	if path == "" {
		return c, nil
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	if err := vp.ReadInConfig(); err != nil {
		return experiment.Config{}, errors.Wrap(err, "loadConfig")
	}

	// Decode through JSON so that typed configurations such as solvers
	// and weight initializers apply their own decoding
	data, err := json.Marshal(vp.AllSettings())
	if err != nil {
		return experiment.Config{}, errors.Wrap(err, "loadConfig")
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return experiment.Config{}, errors.Wrapf(err, "loadConfig: could "+
			"not decode %v", path)
	}
	return c, nil
}

// run trains an agent as configured by c. The agent is closed before
// run returns.
func run(c experiment.Config, opts ...experiment.Option) error {
	e, agent, err := c.Create()
	if err != nil {
		return err
	}
	defer agent.Close()

	trainer, err := experiment.NewTrainer(c, e, agent, opts...)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"environment": c.Env.Environment,
		"sampling":    c.Agent.Sampling,
		"epochs":      c.NEpochs,
		"save":        c.SaveDir,
	}).Info("starting training")

	runErr := trainer.Run(c.NEpochs)
	if err := trainer.Finalize(); err != nil {
		if runErr != nil {
			log.Error(err)
			return runErr
		}
		return err
	}
	return runErr
}

func main() {
	configFile := flag.String("config", "", "configuration file "+
		"(JSON, YAML or TOML), defaults are used if empty")
	epochs := flag.Int("epochs", 0, "number of epochs, overrides the "+
		"configuration if positive")
	saveDir := flag.String("save", "", "save directory, overrides the "+
		"configuration if set")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	c, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *epochs > 0 {
		c.NEpochs = *epochs
	}
	if *saveDir != "" {
		c.SaveDir = *saveDir
	}

	err = run(c, experiment.WithLogger(log.StandardLogger()),
		experiment.WithProgress(os.Stdout))
	if err != nil {
		log.Fatal(err)
	}
}
