package service

import (
	"os"
	"testing"

	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()

	os.Exit(code)
}
