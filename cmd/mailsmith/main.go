// mailsmith builds HTML email campaigns from templates, styles, and images.
package main

import (
	"os"

	"github.com/hupe1980/mailsmith/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
