package command

import (
	"fmt"
	"os"

	"github.com/DataDog/datadog-agent/pkg/util/fxutil"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/sage3280/tracker/api"
)

// Run executes a given function with dependencies supplied by the tracker
// service DI graph. `f` must return an error or nothing. `opts` can be
// used to supply additional arguments that are not provided by the service.
func Run(f interface{}, opts ...fx.Option) error {
	deps := append(opts, api.Dependencies()...)
	return fxutil.OneShot(f, deps...)
}

var rootCmd = &cobra.Command{
	Use:   "sagectl",
	Short: "Operations tool for the population health tracker",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
