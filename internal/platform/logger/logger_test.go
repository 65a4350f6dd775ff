package logger

import "testing"

func TestInitRejectsUnknownLevel(t *testing.T) {
	before := Log
	if err := Init("loud"); err == nil {
		t.Fatal("Expected error for unknown level")
	}
	if Log != before {
		t.Error("Logger must not change when Init fails")
	}
}

func TestInitInstallsLogger(t *testing.T) {
	before := Log
	t.Cleanup(func() { Log = before })

	if err := Init("debug"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Log == before {
		t.Error("Expected Init to replace the logger")
	}
	if !Log.Desugar().Core().Enabled(-1) {
		t.Error("Expected debug level to be enabled")
	}
}
