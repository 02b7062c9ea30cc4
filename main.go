package main

import (
	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/i18nmerge/i18nmerge/cmd"
)

var version = "0.0.1"

func main() {
	cmd.Execute(version)
}
