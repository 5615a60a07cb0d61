package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flagBinding struct {
	viperKey string
	flagName string
}

func bindFlags(v *viper.Viper, lookup func(string) *pflag.Flag, bindings []flagBinding) {
	for _, bind := range bindings {
		if err := v.BindPFlag(bind.viperKey, lookup(bind.flagName)); err != nil {
			// Non-critical, the value still comes from file, env or default
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}
