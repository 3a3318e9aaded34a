package config

import "testing"

func TestBuildLoggerDefaults(t *testing.T) {
	l := Logging{Level: "info"}
	log, err := l.BuildLogger()
	if err != nil {
		t.Fatalf("BuildLogger: %v", err)
	}
	defer log.Sync()
	log.Info("hello")
}

func TestBuildLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l := Logging{Level: "debug", File: dir + "/porcula.log"}
	log, err := l.BuildLogger()
	if err != nil {
		t.Fatalf("BuildLogger: %v", err)
	}
	defer log.Sync()
	log.Debug("debug message")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]bool{
		"debug": true,
		"warn":  true,
		"error": true,
		"":      true,
		"bogus": true,
	}
	for level := range cases {
		_ = parseLevel(level)
	}
}
