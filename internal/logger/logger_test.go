package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevelAndFormat(t *testing.T) {
	l := New("debug", "json")
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want JSON", l.Formatter)
	}

	l = New("nonsense", "")
	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %v", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("formatter = %T, want text", l.Formatter)
	}
}
