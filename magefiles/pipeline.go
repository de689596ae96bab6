//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
)

// Trends builds the CLI and writes today's topic file to topics/.
func Trends() error {
	mg.Deps(Build)
	out := filepath.Join("topics", time.Now().Format("2006-01-02")+".yaml")
	return runCLI("trends", "--out", out)
}

// Run builds the CLI and processes today's topic file end to end,
// logging to logs/.
func Run() error {
	mg.Deps(Build, Init)
	day := time.Now().Format("2006-01-02")
	return runCLI("run",
		"--topics", filepath.Join("topics", day+".yaml"),
		"--log", filepath.Join("logs", day+".log"))
}

func runCLI(args ...string) error {
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
