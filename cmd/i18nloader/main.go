// Command i18nloader loads, resolves, caches and serves gadget message catalogs.
package main

import (
	"context"

	"github.com/nimburion/i18nloader/pkg/cli"
)

func main() {
	cmd := cli.NewCommand(cli.CommandOptions{
		Name:        "i18nloader",
		Description: "Gadget message catalog loader and cache",
	})
	cli.Execute(context.Background(), cmd)
}
